package cleaner

import (
	"context"
)

// DeletePrivateChats deletes the full history of every private and bot chat
// that is not in the keep list, revoking it for the other side.
func (c *Cleaner) DeletePrivateChats(ctx context.Context) {
	c.gated(ctx, "Delete private chats", c.deletePrivateChats)
}

func (c *Cleaner) deletePrivateChats(ctx context.Context) error {
	chats, err := c.tg.GetPrivateChats(ctx)
	if err != nil {
		return err
	}
	for _, chat := range chats {
		if c.Keep(chat) {
			continue
		}
		c.lg.Debugf("delete private chat: %d (%s)", chat.ID, chat.Title)
		if _, err := c.tg.DeleteHistory(ctx, chat); err != nil {
			return err
		}
	}
	c.lg.Println("private chats deleted")
	return nil
}

// ClearPrivateChats removes the content of every private and bot chat that is
// not in the keep list by deleting its messages one batch at a time, with
// revoke.  Unlike DeletePrivateChats, the dialog itself survives: the two
// API paths differ in revocation scope, so both operations are kept.
func (c *Cleaner) ClearPrivateChats(ctx context.Context) {
	c.gated(ctx, "Clear private chats", c.clearPrivateChats)
}

func (c *Cleaner) clearPrivateChats(ctx context.Context) error {
	chats, err := c.tg.GetPrivateChats(ctx)
	if err != nil {
		return err
	}
	for _, chat := range chats {
		if c.Keep(chat) {
			continue
		}
		c.lg.Debugf("clear private chat: %d (%s)", chat.ID, chat.Title)
		msgs, err := c.tg.GetHistory(ctx, chat, nil)
		if err != nil {
			return err
		}
		if len(msgs) == 0 {
			continue
		}
		if _, err := c.tg.DeleteMessages(ctx, chat, msgs); err != nil {
			return err
		}
	}
	c.lg.Println("private chats cleared")
	return nil
}
