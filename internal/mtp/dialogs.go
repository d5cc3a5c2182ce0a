package mtp

import (
	"context"
	"runtime/trace"

	"github.com/gotd/contrib/storage"

	"github.com/gotd/td/telegram/query/dialogs"
)

// GetChats retrieves all chats the account has a dialog with.
func (c *Client) GetChats(ctx context.Context) ([]Chat, error) {
	return c.GetDialogs(ctx, FilterAll())
}

// GetPrivateChats retrieves the account conversations with users and bots.
func (c *Client) GetPrivateChats(ctx context.Context) ([]Chat, error) {
	return c.GetDialogs(ctx, FilterPrivate())
}

// GetGroupChats retrieves the account groups, supergroups and channels.
func (c *Client) GetGroupChats(ctx context.Context) ([]Chat, error) {
	return c.GetDialogs(ctx, FilterGroupLike())
}

// GetDialogs ensures that storage is populated, then iterates through storage
// peers calling filterFn for each peer. The filterFn should return a Chat and
// true, if the peer satisfies the criteria, or the zero Chat and false,
// otherwise.
func (c *Client) GetDialogs(ctx context.Context, filterFn FilterFunc) ([]Chat, error) {
	ctx, task := trace.NewTask(ctx, "GetDialogs")
	defer task.End()

	if err := c.ensureStoragePopulated(ctx); err != nil {
		return nil, err
	}

	peerIter, err := c.storage.Iterate(ctx)
	if err != nil {
		return nil, err
	}
	defer peerIter.Close()

	var chats []Chat

	for peerIter.Next(ctx) {
		chat, ok := filterFn(peerIter.Value())
		if !ok {
			continue
		}
		chats = append(chats, chat)
	}
	if err := peerIter.Err(); err != nil {
		return nil, err
	}
	return chats, nil
}

// ensureStoragePopulated ensures that the peer storage has been populated within
// defCacheEvict duration.
func (c *Client) ensureStoragePopulated(ctx context.Context) error {
	if cached, err := c.cache.Get(cacheDlgStorage); err == nil && cached.(bool) {
		trace.Log(ctx, "cache", "hit")
		return nil
	}
	// populating the storage
	trace.Log(ctx, "cache", "miss")

	dlgIter := dialogs.NewQueryBuilder(c.cl.API()).
		GetDialogs().
		BatchSize(defBatchSize).
		Iter()
	if err := storage.CollectPeers(c.storage).Dialogs(ctx, dlgIter); err != nil {
		return err
	}
	if err := c.cache.SetWithExpire(cacheDlgStorage, true, defCacheEvict); err != nil {
		return err
	}

	return nil
}
