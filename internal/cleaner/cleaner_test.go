package cleaner

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/gotd/td/telegram/query/messages"
	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"
	"github.com/rusq/dlog"
	"github.com/stretchr/testify/assert"

	"github.com/rusq/tgclean/internal/mtp"
)

var (
	chatAlice = mtp.Chat{Kind: mtp.KindPrivate, ID: 1, Title: "Alice", Username: "alice"}
	chatBot   = mtp.Chat{Kind: mtp.KindBot, ID: 2, Title: "SomeBot", Username: "somebot"}
	chatSupp  = mtp.Chat{Kind: mtp.KindPrivate, ID: 999, Title: "Telegram", Support: true}
	chatGroup = mtp.Chat{Kind: mtp.KindGroup, ID: 100, Title: "Friends"}
	chatSuper = mtp.Chat{Kind: mtp.KindSupergroup, ID: 200, Title: "Work"}
	chatBcast = mtp.Chat{Kind: mtp.KindChannel, ID: 300, Title: "News"}
)

func elems(ids ...int) []messages.Elem {
	ee := make([]messages.Elem, len(ids))
	for i, id := range ids {
		ee[i] = messages.Elem{Msg: &tg.Message{ID: id}}
	}
	return ee
}

// fakeTG is a scripted Telegramer that records every destructive call.
type fakeTG struct {
	chats    []mtp.Chat
	contacts []mtp.User
	my       map[int64][]messages.Elem // own messages per chat ID
	history  map[int64][]messages.Elem // full history per chat ID
	linked   map[int64]mtp.Chat        // channel ID -> discussion group
	linkErr  map[int64]error
	self     *tg.User

	deletedContacts int
	deletedHistory  []int64
	deletedMsgs     map[int64]int // chat ID -> number of DeleteMessages calls
	left            []int64
	loggedOut       int
	order           []string
}

func (f *fakeTG) record(op string) {
	f.order = append(f.order, op)
}

func (f *fakeTG) GetChats(ctx context.Context) ([]mtp.Chat, error) {
	return f.chats, nil
}

func (f *fakeTG) GetPrivateChats(ctx context.Context) ([]mtp.Chat, error) {
	var out []mtp.Chat
	for _, c := range f.chats {
		if c.IsPrivate() {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeTG) GetGroupChats(ctx context.Context) ([]mtp.Chat, error) {
	var out []mtp.Chat
	for _, c := range f.chats {
		if c.IsGroupLike() {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeTG) GetContacts(ctx context.Context) ([]mtp.User, error) {
	return f.contacts, nil
}

func (f *fakeTG) DeleteContacts(ctx context.Context, users []mtp.User) (int, error) {
	f.record("delete contacts")
	f.deletedContacts += len(users)
	return len(users), nil
}

func (f *fakeTG) SearchAllMyMessages(ctx context.Context, chat mtp.Chat, cb func(n int)) ([]messages.Elem, error) {
	return f.my[chat.ID], nil
}

func (f *fakeTG) GetHistory(ctx context.Context, chat mtp.Chat, cb func(n int)) ([]messages.Elem, error) {
	return f.history[chat.ID], nil
}

func (f *fakeTG) DeleteMessages(ctx context.Context, chat mtp.Chat, msgs []messages.Elem) (int, error) {
	f.record("delete messages")
	if f.deletedMsgs == nil {
		f.deletedMsgs = make(map[int64]int)
	}
	f.deletedMsgs[chat.ID]++
	return len(msgs), nil
}

func (f *fakeTG) DeleteHistory(ctx context.Context, chat mtp.Chat) (int, error) {
	f.record("delete history")
	f.deletedHistory = append(f.deletedHistory, chat.ID)
	return len(f.history[chat.ID]), nil
}

func (f *fakeTG) GetLinkedChat(ctx context.Context, chat mtp.Chat) (mtp.Chat, bool, error) {
	if err := f.linkErr[chat.ID]; err != nil {
		return mtp.Chat{}, false, err
	}
	linked, ok := f.linked[chat.ID]
	return linked, ok, nil
}

func (f *fakeTG) LeaveChat(ctx context.Context, chat mtp.Chat) error {
	f.record("leave")
	f.left = append(f.left, chat.ID)
	return nil
}

func (f *fakeTG) Self(ctx context.Context) (*tg.User, error) {
	if f.self == nil {
		return nil, errors.New("no self")
	}
	return f.self, nil
}

func (f *fakeTG) LogOut(ctx context.Context) error {
	f.record("logout")
	f.loggedOut++
	return nil
}

// testCleaner returns a Cleaner that auto-confirms, logs to the returned
// buffer and swallows progress output.
func testCleaner(tg Telegramer, opts ...Option) (*Cleaner, *bytes.Buffer) {
	var buf bytes.Buffer
	defaults := []Option{
		WithConfirmAll(true),
		WithLogger(dlog.New(&buf, "", 0, true)),
		WithOutput(io.Discard),
	}
	return New(tg, append(defaults, opts...)...), &buf
}

func TestCleaner_Keep(t *testing.T) {
	tests := []struct {
		name string
		keep []string
		chat mtp.Chat
		want bool
	}{
		{"id match", []string{"1"}, chatAlice, true},
		{"username match", []string{"@alice"}, chatAlice, true},
		{"username match is case insensitive", []string{"ALICE"}, chatAlice, true},
		{"no match", []string{"777000"}, chatAlice, false},
		{"support account is always kept", []string{"777000"}, chatSupp, true},
		{"empty list keeps support only", nil, chatGroup, false},
		{"mixed list, id", []string{"somebot", "100"}, chatGroup, true},
		{"mixed list, username", []string{"somebot", "100"}, chatBot, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := testCleaner(&fakeTG{}, WithKeepList(ParseKeepList(tt.keep)))
			assert.Equal(t, tt.want, c.Keep(tt.chat))
		})
	}
}

func TestCleaner_DeleteContacts(t *testing.T) {
	t.Run("deletes all contacts", func(t *testing.T) {
		ftg := &fakeTG{contacts: []mtp.User{
			{User: &tg.User{ID: 1}},
			{User: &tg.User{ID: 2}},
		}}
		c, _ := testCleaner(ftg)
		c.DeleteContacts(context.Background())
		assert.Equal(t, 2, ftg.deletedContacts)
	})
	t.Run("no contacts is not an error", func(t *testing.T) {
		ftg := &fakeTG{}
		c, buf := testCleaner(ftg)
		c.DeleteContacts(context.Background())
		assert.Zero(t, ftg.deletedContacts)
		assert.Contains(t, buf.String(), "no contacts")
	})
}

func TestCleaner_DeletePrivateChats(t *testing.T) {
	ftg := &fakeTG{chats: []mtp.Chat{chatAlice, chatGroup, chatBot, chatSupp}}
	c, _ := testCleaner(ftg, WithKeepList(ParseKeepList([]string{"alice"})))
	c.DeletePrivateChats(context.Background())

	// groups are untouched, alice is kept, support is kept
	assert.Equal(t, []int64{chatBot.ID}, ftg.deletedHistory)
}

func TestCleaner_ClearPrivateChats(t *testing.T) {
	ftg := &fakeTG{
		chats: []mtp.Chat{chatAlice, chatBot},
		history: map[int64][]messages.Elem{
			chatAlice.ID: elems(1, 2, 3),
		},
	}
	c, _ := testCleaner(ftg)
	c.ClearPrivateChats(context.Background())

	// bot chat has no history, so only alice's chat gets a deletion call
	assert.Equal(t, map[int64]int{chatAlice.ID: 1}, ftg.deletedMsgs)
	assert.Empty(t, ftg.deletedHistory)
}

func TestCleaner_DeleteGroupMessages(t *testing.T) {
	t.Run("linked group is wiped exactly once", func(t *testing.T) {
		// the discussion group is reachable both directly and via the
		// channel link.
		ftg := &fakeTG{
			chats:  []mtp.Chat{chatBcast, chatGroup},
			linked: map[int64]mtp.Chat{chatBcast.ID: chatGroup},
			my: map[int64][]messages.Elem{
				chatBcast.ID: elems(1),
				chatGroup.ID: elems(2, 3),
			},
		}
		c, _ := testCleaner(ftg)
		c.DeleteGroupMessages(context.Background())

		assert.Equal(t, 1, ftg.deletedMsgs[chatGroup.ID])
		assert.Equal(t, 1, ftg.deletedMsgs[chatBcast.ID])
	})
	t.Run("linked group absent from dialogs is still wiped", func(t *testing.T) {
		hidden := mtp.Chat{Kind: mtp.KindGroup, ID: 400, Title: "News Comments"}
		ftg := &fakeTG{
			chats:  []mtp.Chat{chatBcast},
			linked: map[int64]mtp.Chat{chatBcast.ID: hidden},
			my: map[int64][]messages.Elem{
				hidden.ID: elems(4),
			},
		}
		c, _ := testCleaner(ftg)
		c.DeleteGroupMessages(context.Background())

		assert.Equal(t, 1, ftg.deletedMsgs[hidden.ID])
	})
	t.Run("inaccessible channel is skipped, the walk continues", func(t *testing.T) {
		ftg := &fakeTG{
			// LIFO: the channel is processed first
			chats:   []mtp.Chat{chatGroup, chatBcast},
			linkErr: map[int64]error{chatBcast.ID: tgerr.New(400, "CHANNEL_PRIVATE")},
			my: map[int64][]messages.Elem{
				chatGroup.ID: elems(1),
			},
		}
		c, buf := testCleaner(ftg)
		c.DeleteGroupMessages(context.Background())

		assert.Zero(t, ftg.deletedMsgs[chatBcast.ID])
		assert.Equal(t, 1, ftg.deletedMsgs[chatGroup.ID])
		assert.Contains(t, buf.String(), "skipping")
	})
	t.Run("kept chats are not scanned", func(t *testing.T) {
		ftg := &fakeTG{
			chats: []mtp.Chat{chatGroup, chatSuper},
			my: map[int64][]messages.Elem{
				chatGroup.ID: elems(1),
				chatSuper.ID: elems(2),
			},
		}
		c, _ := testCleaner(ftg, WithKeepList(ParseKeepList([]string{"100"})))
		c.DeleteGroupMessages(context.Background())

		assert.Zero(t, ftg.deletedMsgs[chatGroup.ID])
		assert.Equal(t, 1, ftg.deletedMsgs[chatSuper.ID])
	})
}

func TestCleaner_LeaveGroups(t *testing.T) {
	ftg := &fakeTG{chats: []mtp.Chat{chatAlice, chatGroup, chatSuper, chatBcast}}
	c, _ := testCleaner(ftg, WithKeepList(ParseKeepList([]string{"200"})))
	c.LeaveGroups(context.Background())

	assert.Equal(t, []int64{chatGroup.ID, chatBcast.ID}, ftg.left)
}

func TestCleaner_declinedConfirmation(t *testing.T) {
	decline := func(string) (bool, error) { return false, nil }

	ftg := &fakeTG{
		chats:    []mtp.Chat{chatAlice, chatGroup, chatBcast},
		contacts: []mtp.User{{User: &tg.User{ID: 1}}},
		my:       map[int64][]messages.Elem{chatGroup.ID: elems(1)},
		history:  map[int64][]messages.Elem{chatAlice.ID: elems(2)},
	}
	c, buf := testCleaner(ftg, WithConfirmAll(false), WithConfirmFunc(decline))

	ctx := context.Background()
	c.DeleteContacts(ctx)
	c.DeletePrivateChats(ctx)
	c.ClearPrivateChats(ctx)
	c.DeleteGroupMessages(ctx)
	c.LeaveGroups(ctx)

	// not a single destructive call may be issued
	assert.Zero(t, ftg.deletedContacts)
	assert.Empty(t, ftg.deletedHistory)
	assert.Empty(t, ftg.deletedMsgs)
	assert.Empty(t, ftg.left)
	assert.Contains(t, buf.String(), "cancelled")
}

func TestCleaner_Clean(t *testing.T) {
	ftg := &fakeTG{
		chats:    []mtp.Chat{chatAlice, chatGroup},
		contacts: []mtp.User{{User: &tg.User{ID: 1}}},
		my:       map[int64][]messages.Elem{chatGroup.ID: elems(1)},
		history:  map[int64][]messages.Elem{chatAlice.ID: elems(2)},
	}
	c, _ := testCleaner(ftg)
	c.Clean(context.Background())

	// contacts, then group messages, then private chats, then leaving
	assert.Equal(t, []string{"delete contacts", "delete messages", "delete history", "leave"}, ftg.order)
	assert.Zero(t, ftg.loggedOut, "logout is not part of the aggregate")
}

func TestCleaner_DumpChats(t *testing.T) {
	var out bytes.Buffer
	ftg := &fakeTG{chats: []mtp.Chat{chatGroup, chatAlice}}
	c, _ := testCleaner(ftg)
	c.w = &out
	c.DumpChats(context.Background())

	got := out.String()
	assert.Contains(t, got, "Alice")
	assert.Contains(t, got, "Friends")
	assert.Contains(t, got, "@alice")
	// sorted by title
	assert.Less(t, bytes.Index(out.Bytes(), []byte("Alice")), bytes.Index(out.Bytes(), []byte("Friends")))
}

func TestCleaner_DumpMe(t *testing.T) {
	var out bytes.Buffer
	ftg := &fakeTG{self: &tg.User{ID: 42, FirstName: "Alice", LastName: "Liddell"}}
	c, _ := testCleaner(ftg)
	c.w = &out
	c.DumpMe(context.Background())

	assert.Contains(t, out.String(), "42")
	assert.Contains(t, out.String(), "Alice Liddell")
}

func TestCleaner_Logout(t *testing.T) {
	ftg := &fakeTG{}
	c, _ := testCleaner(ftg)
	c.Logout(context.Background())
	assert.Equal(t, 1, ftg.loggedOut)
}

func TestParseKeepList(t *testing.T) {
	kl := ParseKeepList([]string{"777000", "@Alice", "bob", " ", ""})
	assert.Equal(t, 3, kl.Len())
	assert.True(t, kl.HasID(777000))
	assert.True(t, kl.HasName("alice"))
	assert.True(t, kl.HasName("@ALICE"))
	assert.True(t, kl.HasName("bob"))
	assert.False(t, kl.HasID(42))
	assert.False(t, kl.HasName("carol"))
}
