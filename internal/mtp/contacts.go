package mtp

import (
	"context"
	"fmt"
	"runtime/trace"

	"github.com/gotd/td/tg"
)

// GetContacts returns the account's contact list.
func (c *Client) GetContacts(ctx context.Context) ([]User, error) {
	resp, err := c.cl.API().ContactsGetContacts(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to get contacts: %w", err)
	}
	contacts, ok := resp.AsModified()
	if !ok {
		// zero hash must never hit the not-modified branch
		return nil, nil
	}
	users := make([]User, 0, len(contacts.Users))
	for _, uc := range contacts.Users {
		u, ok := uc.(*tg.User)
		if !ok {
			continue
		}
		users = append(users, User{u})
	}
	return users, nil
}

// DeleteContacts removes the given users from the contact list.  Removal is
// batched,  returns the number of users submitted for deletion.
func (c *Client) DeleteContacts(ctx context.Context, users []User) (int, error) {
	ctx, task := trace.NewTask(ctx, "DeleteContacts")
	defer task.End()

	if len(users) == 0 {
		return 0, nil
	}
	chunks := splitBy(defBatchSize, users, func(i int) tg.InputUserClass {
		return users[i].AsInput()
	})
	total := 0
	for _, chunk := range chunks {
		if _, err := c.cl.API().ContactsDeleteContacts(ctx, chunk); err != nil {
			trace.Logf(ctx, "api", "delete contacts error: %s", err)
			return total, fmt.Errorf("failed to delete contacts: %w", err)
		}
		total += len(chunk)
	}
	return total, nil
}
