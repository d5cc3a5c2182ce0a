package mtp

import (
	"context"
	"fmt"

	"github.com/gotd/td/tg"
)

// Self returns the profile of the authenticated account.
func (c *Client) Self(ctx context.Context) (*tg.User, error) {
	return c.cl.Self(ctx)
}

// LogOut terminates the account authorization on this device.  The local
// session file becomes useless after this call.
func (c *Client) LogOut(ctx context.Context) error {
	if _, err := c.cl.API().AuthLogOut(ctx); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}
	return nil
}
