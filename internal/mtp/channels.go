package mtp

import (
	"context"
	"fmt"

	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"
)

// GetLinkedChat returns the discussion group linked to the broadcast channel,
// if there is one.  Non-channel chats return false without a roundtrip.  The
// linked group is discoverable only through the full channel info: joining it
// is optional, so it may be absent from the dialog list.
func (c *Client) GetLinkedChat(ctx context.Context, chat Chat) (Chat, bool, error) {
	if chat.Kind != KindChannel {
		return Chat{}, false, nil
	}
	ch, ok := chat.ent.(*tg.Channel)
	if !ok {
		return Chat{}, false, fmt.Errorf("unexpected channel entity type: %T", chat.ent)
	}

	full, err := c.cl.API().ChannelsGetFullChannel(ctx, ch.AsInput())
	if err != nil {
		return Chat{}, false, fmt.Errorf("failed to get full channel %d: %w", chat.ID, err)
	}
	channelFull, ok := full.FullChat.(*tg.ChannelFull)
	if !ok {
		return Chat{}, false, nil
	}
	linkedID, ok := channelFull.GetLinkedChatID()
	if !ok {
		return Chat{}, false, nil
	}
	// the linked chat rides along in the full channel response.
	for _, cc := range full.Chats {
		switch peer := cc.(type) {
		case *tg.Chat:
			if peer.ID == linkedID {
				return Chat{Kind: KindGroup, ID: peer.ID, Title: peer.Title, ent: peer}, true, nil
			}
		case *tg.Channel:
			if peer.ID == linkedID {
				kind := KindSupergroup
				if peer.Broadcast {
					kind = KindChannel
				}
				username, _ := peer.GetUsername()
				return Chat{Kind: kind, ID: peer.ID, Title: peer.Title, Username: username, ent: peer}, true, nil
			}
		}
	}
	return Chat{}, false, nil
}

// LeaveChat removes the account from the group, supergroup or channel.
func (c *Client) LeaveChat(ctx context.Context, chat Chat) error {
	switch peer := chat.ent.(type) {
	case *tg.Channel:
		if _, err := c.cl.API().ChannelsLeaveChannel(ctx, peer.AsInput()); err != nil {
			return fmt.Errorf("failed to leave channel %d: %w", chat.ID, err)
		}
	case *tg.Chat:
		if _, err := c.cl.API().MessagesDeleteChatUser(ctx, &tg.MessagesDeleteChatUserRequest{
			ChatID: peer.ID,
			UserID: &tg.InputUserSelf{},
		}); err != nil {
			return fmt.Errorf("failed to leave chat %d: %w", chat.ID, err)
		}
	default:
		return fmt.Errorf("unsupported chat type: %T", peer)
	}
	return nil
}

// IsChannelPrivate reports whether err is the CHANNEL_PRIVATE RPC error, which
// telegram returns for channels one has no access to.
func IsChannelPrivate(err error) bool {
	return tgerr.Is(err, "CHANNEL_PRIVATE")
}
