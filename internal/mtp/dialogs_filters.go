package mtp

import (
	"github.com/gotd/contrib/storage"
)

// Kind is the kind of the telegram chat.
type Kind uint8

const (
	KindPrivate Kind = iota
	KindBot
	KindGroup
	KindSupergroup
	KindChannel
)

var kindNames = map[Kind]string{
	KindPrivate:    "private",
	KindBot:        "bot",
	KindGroup:      "group",
	KindSupergroup: "supergroup",
	KindChannel:    "channel",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Chat is a typed view of a dialog peer.  Optional telegram attributes are
// explicit members here: Username is empty when the peer has none, Support is
// only ever set for users.
type Chat struct {
	Kind     Kind
	ID       int64
	Title    string
	Username string
	Support  bool

	ent Entity
}

// Entity returns the underlying telegram object.
func (c Chat) Entity() Entity { return c.ent }

// IsZero reports whether the Chat carries no peer.
func (c Chat) IsZero() bool { return c.ent == nil }

// IsPrivate reports whether the chat is a conversation with a user or a bot.
func (c Chat) IsPrivate() bool { return c.Kind == KindPrivate || c.Kind == KindBot }

// IsGroupLike reports whether the chat is a group, supergroup or a broadcast
// channel.
func (c Chat) IsGroupLike() bool {
	return c.Kind == KindGroup || c.Kind == KindSupergroup || c.Kind == KindChannel
}

// FilterFunc converts the stored peer to a Chat, if the peer satisfies the
// filter criteria, returning the Chat and true, or the zero Chat and false
// otherwise.
type FilterFunc func(storage.Peer) (Chat, bool)

// FilterAll lets every classifiable peer through.
func FilterAll() FilterFunc {
	return classify
}

// FilterPrivate matches conversations with users, including bots.
func FilterPrivate() FilterFunc {
	return func(peer storage.Peer) (Chat, bool) {
		chat, ok := classify(peer)
		return chat, ok && chat.IsPrivate()
	}
}

// FilterGroupLike matches groups, supergroups and broadcast channels.
func FilterGroupLike() FilterFunc {
	return func(peer storage.Peer) (Chat, bool) {
		chat, ok := classify(peer)
		return chat, ok && chat.IsGroupLike()
	}
}

// classify maps a stored peer onto a Chat.  Unknown peer flavours are
// dropped.
func classify(peer storage.Peer) (Chat, bool) {
	switch {
	case peer.User != nil:
		u := peer.User
		kind := KindPrivate
		if u.Bot {
			kind = KindBot
		}
		username, _ := u.GetUsername()
		return Chat{
			Kind:     kind,
			ID:       u.ID,
			Title:    User{u}.GetTitle(),
			Username: username,
			Support:  u.Support,
			ent:      User{u},
		}, true
	case peer.Chat != nil:
		return Chat{
			Kind:  KindGroup,
			ID:    peer.Chat.ID,
			Title: peer.Chat.Title,
			ent:   peer.Chat,
		}, true
	case peer.Channel != nil:
		ch := peer.Channel
		kind := KindSupergroup
		if ch.Broadcast {
			kind = KindChannel
		}
		username, _ := ch.GetUsername()
		return Chat{
			Kind:     kind,
			ID:       ch.ID,
			Title:    ch.Title,
			Username: username,
			ent:      ch,
		}, true
	}
	return Chat{}, false
}
