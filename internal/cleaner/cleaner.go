// Package cleaner implements the account cleanup operations: deleting
// contacts, wiping or clearing private chats, deleting own messages in groups
// and channels (including linked discussion groups), and leaving groups.
//
// Every operation is gated by a yes/no confirmation (unless confirm-all is
// set), and no operation propagates its error to the caller: a failure is
// logged and the run moves on to whatever comes next.  Deletions already
// issued before a failure stay in effect.
package cleaner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/gotd/td/telegram/query/messages"
	"github.com/gotd/td/tg"
	"github.com/rusq/dlog"
	"golang.org/x/time/rate"

	"github.com/rusq/tgclean/internal/mtp"
)

// linkLookupEvery is the pacing of the full-channel info requests during the
// group walk.  Telegram flood control is sensitive to bursts of
// channels.getFullChannel.
const linkLookupEvery = 2 * time.Second

// Telegramer is the telegram client surface the cleaner needs.
type Telegramer interface {
	GetChats(ctx context.Context) ([]mtp.Chat, error)
	GetPrivateChats(ctx context.Context) ([]mtp.Chat, error)
	GetGroupChats(ctx context.Context) ([]mtp.Chat, error)

	GetContacts(ctx context.Context) ([]mtp.User, error)
	DeleteContacts(ctx context.Context, users []mtp.User) (int, error)

	SearchAllMyMessages(ctx context.Context, chat mtp.Chat, cb func(n int)) ([]messages.Elem, error)
	GetHistory(ctx context.Context, chat mtp.Chat, cb func(n int)) ([]messages.Elem, error)
	DeleteMessages(ctx context.Context, chat mtp.Chat, msgs []messages.Elem) (int, error)
	DeleteHistory(ctx context.Context, chat mtp.Chat) (int, error)

	GetLinkedChat(ctx context.Context, chat mtp.Chat) (mtp.Chat, bool, error)
	LeaveChat(ctx context.Context, chat mtp.Chat) error

	Self(ctx context.Context) (*tg.User, error)
	LogOut(ctx context.Context) error
}

// ConfirmFunc asks the user to confirm the operation, returning true on an
// affirmative answer.
type ConfirmFunc func(title string) (bool, error)

type Cleaner struct {
	tg Telegramer

	keep       KeepList
	confirmAll bool
	confirm    ConfirmFunc
	lg         *dlog.Logger
	limiter    *rate.Limiter
	w          io.Writer
}

type Option func(c *Cleaner)

// WithKeepList sets the chats excluded from all destructive operations.
func WithKeepList(kl KeepList) Option {
	return func(c *Cleaner) {
		c.keep = kl
	}
}

// WithConfirmAll skips the confirmation prompts.
func WithConfirmAll(yes bool) Option {
	return func(c *Cleaner) {
		c.confirmAll = yes
	}
}

// WithConfirmFunc overrides the terminal confirmation prompt.
func WithConfirmFunc(fn ConfirmFunc) Option {
	return func(c *Cleaner) {
		if fn != nil {
			c.confirm = fn
		}
	}
}

// WithLogger sets the logger.
func WithLogger(lg *dlog.Logger) Option {
	return func(c *Cleaner) {
		if lg != nil {
			c.lg = lg
		}
	}
}

// WithOutput sets the destination for dumps and progress output.
func WithOutput(w io.Writer) Option {
	return func(c *Cleaner) {
		if w != nil {
			c.w = w
		}
	}
}

func New(tg Telegramer, opts ...Option) *Cleaner {
	c := &Cleaner{
		tg:      tg,
		confirm: termConfirm,
		lg:      dlog.New(os.Stderr, "", dlog.Flags(), false),
		limiter: rate.NewLimiter(rate.Every(linkLookupEvery), 1),
		w:       os.Stdout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Keep reports whether the chat must be preserved:  it is in the keep list by
// ID or username, or it is the telegram support account.  Deleting the dialog
// with the support account (ID 777000) looks like the account was hijacked.
func (c *Cleaner) Keep(chat mtp.Chat) bool {
	if chat.Support {
		return true
	}
	if c.keep.HasID(chat.ID) {
		return true
	}
	return chat.Username != "" && c.keep.HasName(chat.Username)
}

// gated runs fn after user confirmation.  A declined prompt is a logged
// cancellation, not an error.  Errors from fn are logged and swallowed, so
// that one failed operation does not abort a multi-step run.
func (c *Cleaner) gated(ctx context.Context, title string, fn func(context.Context) error) {
	if !c.confirmAll {
		ok, err := c.confirm(title)
		if err != nil || !ok {
			c.lg.Printf("%s: cancelled", title)
			return
		}
	}
	if err := fn(ctx); err != nil {
		c.lg.Printf("%s: %s", title, err)
	}
}

// ungated is the gated counterpart for non-destructive operations: no prompt,
// same catch-and-log policy.
func (c *Cleaner) ungated(ctx context.Context, title string, fn func(context.Context) error) {
	if err := fn(ctx); err != nil {
		c.lg.Printf("%s: %s", title, err)
	}
}

func termConfirm(title string) (bool, error) {
	fmt.Printf("%s? (y/N): ", title)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false, err
	}
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(line)), "y"), nil
}

// Clean runs the fixed cleanup sequence: contacts, group messages, private
// chats, leaving groups.  Clearing private chats is deliberately not part of
// the sequence and must be invoked on its own.
func (c *Cleaner) Clean(ctx context.Context) {
	c.DeleteContacts(ctx)
	c.DeleteGroupMessages(ctx)
	c.DeletePrivateChats(ctx)
	c.LeaveGroups(ctx)
}

// DeleteContacts removes every contact from the account contact list.
func (c *Cleaner) DeleteContacts(ctx context.Context) {
	c.gated(ctx, "Delete contacts", c.deleteContacts)
}

func (c *Cleaner) deleteContacts(ctx context.Context) error {
	contacts, err := c.tg.GetContacts(ctx)
	if err != nil {
		return err
	}
	if len(contacts) == 0 {
		c.lg.Println("no contacts to delete")
		return nil
	}
	n, err := c.tg.DeleteContacts(ctx, contacts)
	if err != nil {
		return err
	}
	c.lg.Printf("deleted %d contacts", n)
	return nil
}
