package cleaner

import (
	"context"
	"fmt"

	"github.com/schollz/progressbar/v3"

	"github.com/rusq/tgclean/internal/mtp"
)

// DeleteGroupMessages deletes the account's own messages in every group,
// supergroup and channel that is not in the keep list.  Channels are followed
// into their linked discussion groups: a comment group does not have to be
// joined, so it may be missing from the dialog list and is reachable only
// through the channel info.
func (c *Cleaner) DeleteGroupMessages(ctx context.Context) {
	c.gated(ctx, "Delete group messages", c.deleteGroupMessages)
}

// deleteGroupMessages walks the group-like chats as a graph: a channel and its
// discussion group reference each other, so the worklist traversal keeps a
// visited set to wipe each chat exactly once.
func (c *Cleaner) deleteGroupMessages(ctx context.Context) error {
	chats, err := c.tg.GetGroupChats(ctx)
	if err != nil {
		return err
	}
	work := append([]mtp.Chat(nil), chats...)
	seen := make(map[int64]struct{}, len(work))
	for len(work) > 0 {
		chat := work[len(work)-1]
		work = work[:len(work)-1]

		if c.Keep(chat) {
			continue
		}
		if _, ok := seen[chat.ID]; ok {
			c.lg.Debugf("already seen: %d", chat.ID)
			continue
		}
		seen[chat.ID] = struct{}{}
		c.lg.Debugf("%d - %s", chat.ID, chat.Title)

		if chat.Kind == mtp.KindChannel {
			// pace the full-channel lookups to stay clear of flood control.
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
			linked, ok, err := c.tg.GetLinkedChat(ctx, chat)
			if err != nil {
				if mtp.IsChannelPrivate(err) {
					c.lg.Printf("skipping inaccessible channel %d (%s): %s", chat.ID, chat.Title, err)
					continue
				}
				return err
			}
			if ok {
				work = append(work, linked)
			}
		}
		if err := c.DeleteOwnMessages(ctx, chat); err != nil {
			if mtp.IsChannelPrivate(err) {
				c.lg.Printf("skipping inaccessible channel %d (%s): %s", chat.ID, chat.Title, err)
				continue
			}
			return err
		}
	}
	c.lg.Println("group messages deleted")
	return nil
}

// DeleteOwnMessages finds all messages sent by the account in the chat and
// deletes them with revoke.
func (c *Cleaner) DeleteOwnMessages(ctx context.Context, chat mtp.Chat) error {
	pb := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(fmt.Sprintf("scanning %d (%s)", chat.ID, chat.Title)),
		progressbar.OptionSetWriter(c.w),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionSpinnerType(9),
	)
	msgs, err := c.tg.SearchAllMyMessages(ctx, chat, func(n int) {
		pb.Add(n)
	})
	pb.Finish()
	fmt.Fprint(c.w, "\r")
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		return nil
	}
	n, err := c.tg.DeleteMessages(ctx, chat, msgs)
	if err != nil {
		return err
	}
	c.lg.Printf("%s: deleted %d messages", chat.Title, n)
	return nil
}

// LeaveGroups leaves every group, supergroup and channel that is not in the
// keep list.
func (c *Cleaner) LeaveGroups(ctx context.Context) {
	c.gated(ctx, "Leave groups", c.leaveGroups)
}

func (c *Cleaner) leaveGroups(ctx context.Context) error {
	chats, err := c.tg.GetGroupChats(ctx)
	if err != nil {
		return err
	}
	for _, chat := range chats {
		if c.Keep(chat) {
			continue
		}
		c.lg.Debugf("leave group: %d (%s)", chat.ID, chat.Title)
		if err := c.tg.LeaveChat(ctx, chat); err != nil {
			return err
		}
	}
	c.lg.Println("groups left")
	return nil
}
