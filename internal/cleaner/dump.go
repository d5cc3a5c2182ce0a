package cleaner

import (
	"context"
	"fmt"
	"sort"

	"github.com/rusq/tgclean/internal/text"
)

// DumpChats prints the chat list: ID, kind and title.
func (c *Cleaner) DumpChats(ctx context.Context) {
	c.ungated(ctx, "List chats", c.dumpChats)
}

func (c *Cleaner) dumpChats(ctx context.Context) error {
	chats, err := c.tg.GetChats(ctx)
	if err != nil {
		return err
	}
	sort.Slice(chats, func(i, j int) bool {
		return chats[i].Title < chats[j].Title
	})
	for _, chat := range chats {
		title := text.TruncateDefault(chat.Title)
		if chat.Username != "" {
			title += " (@" + chat.Username + ")"
		}
		if _, err := fmt.Fprintf(c.w, "%15d  %-10s  %s\n", chat.ID, chat.Kind, title); err != nil {
			return err
		}
	}
	return nil
}

// DumpMe prints the authenticated account profile.
func (c *Cleaner) DumpMe(ctx context.Context) {
	c.ungated(ctx, "Dump profile", c.dumpMe)
}

func (c *Cleaner) dumpMe(ctx context.Context) error {
	me, err := c.tg.Self(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.w, "ID:         %d\n", me.ID)
	fmt.Fprintf(c.w, "Name:       %s %s\n", me.FirstName, me.LastName)
	if username, ok := me.GetUsername(); ok {
		fmt.Fprintf(c.w, "Username:   @%s\n", username)
	}
	if phone, ok := me.GetPhone(); ok {
		fmt.Fprintf(c.w, "Phone:      +%s\n", phone)
	}
	return nil
}

// Logout terminates the authorization on this device.
func (c *Cleaner) Logout(ctx context.Context) {
	c.gated(ctx, "Log out", func(ctx context.Context) error {
		if err := c.tg.LogOut(ctx); err != nil {
			return err
		}
		c.lg.Println("logged out")
		return nil
	})
}
