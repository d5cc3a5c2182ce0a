package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/gotd/td/telegram"
	"github.com/joho/godotenv"
	"github.com/rusq/dlog"
	"github.com/rusq/osenv/v2"
	"github.com/rusq/tracer"

	"github.com/rusq/tgclean/internal/cleaner"
	"github.com/rusq/tgclean/internal/mtp"
	"github.com/rusq/tgclean/internal/mtp/authflow"
	"github.com/rusq/tgclean/internal/session"
)

const cacheDirName = "tgclean"

const AppName = "Telegram Account Cleaner"

var (
	version   = "dev"
	builtOn   = "just now"
	gitCommit = ""
	gitRef    = ""

	versionSig = fmt.Sprintf("%s %s (built %s)", AppName, version, builtOn)
)

var _ = godotenv.Load() // load environment variables from .env, if present

type Params struct {
	CacheDirName string

	ApiID   int
	ApiHash string
	Phone   string

	Reset bool

	// operations
	Clean         bool
	Contacts      bool
	DeletePrivate bool
	ClearPrivate  bool
	WipeGroups    bool
	Leave         bool
	List          bool
	Me            bool
	Logout        bool

	Keep keepList
	Yes  bool

	Version bool
	Verbose bool
	Trace   string

	cacheDir string
}

func main() {
	p, err := parseCmdLine()
	if err != nil {
		dlog.Fatal(err)
	}
	if p.Version {
		ver(os.Stdout)
		return
	}

	dlog.SetDebug(p.Verbose)

	if err := p.initCacheDir(cacheDirName); err != nil {
		dlog.Fatalf("failed to create cache directory: %s", err)
	}

	if err := run(context.Background(), p); err != nil {
		dlog.Fatal(err)
	}
}

// keepList collects mixed chat IDs and usernames that must be preserved.
type keepList []string

func (k *keepList) Set(val string) error {
	for _, s := range strings.Split(val, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		*k = append(*k, s)
	}
	return nil
}

func (k *keepList) String() string {
	return strings.Join(*k, ",")
}

func parseCmdLine() (Params, error) {
	var p = Params{CacheDirName: cacheDirName}
	{
		flag.IntVar(&p.ApiID, "api-id", osenv.Secret("APP_ID", 0), "Telegram API ID")
		flag.StringVar(&p.ApiHash, "api-token", osenv.Secret("APP_HASH", ""), "Telegram API token")
		flag.StringVar(&p.Phone, "phone", osenv.Value("PHONE", ""), "phone `number` in international format for authentication (optional)")
		flag.BoolVar(&p.Reset, "reset", false, "reset authentication")

		flag.BoolVar(&p.Clean, "clean", false, "delete contacts, wipe group messages, delete private chats and leave groups")
		flag.BoolVar(&p.Contacts, "contacts", false, "delete all contacts")
		flag.BoolVar(&p.DeletePrivate, "delete-private", false, "delete private chat histories (with revoke)")
		flag.BoolVar(&p.ClearPrivate, "clear-private", false, "clear private chat contents message by message, keeping the dialogs")
		flag.BoolVar(&p.WipeGroups, "wipe-groups", false, "delete own messages in groups, supergroups and channels")
		flag.BoolVar(&p.Leave, "leave", false, "leave all groups, supergroups and channels")
		flag.BoolVar(&p.List, "list", false, "list chats and their IDs")
		flag.BoolVar(&p.Me, "me", false, "print the authenticated account profile")
		flag.BoolVar(&p.Logout, "logout", false, "log out, terminating the session on this device")

		flag.Var(&p.Keep, "keep", "comma separated chat `IDs or usernames` to exclude from all destructive operations")
		flag.BoolVar(&p.Yes, "yes", false, "do not ask for confirmation")

		flag.BoolVar(&p.Version, "v", false, "print version and exit")
		flag.BoolVar(&p.Verbose, "verbose", osenv.Value("DEBUG", "") != "", "verbose output")
		flag.StringVar(&p.Trace, "trace", osenv.Value("TRACE_FILE", ""), "trace `filename`")

		flag.Parse()
	}
	return p, nil
}

func (p *Params) initCacheDir(appName string) error {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return err
	}
	cacheDir = filepath.Join(cacheDir, appName)
	if err := os.MkdirAll(cacheDir, 0700); err != nil {
		return err
	}
	p.cacheDir = cacheDir
	return nil
}

func unlink(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func run(ctx context.Context, p Params) error {
	if p.Trace != "" {
		tr := tracer.New(p.Trace)
		if err := tr.Start(); err != nil {
			return err
		}
		defer tr.End()
	}

	header(os.Stdout)

	sessFile := filepath.Join(p.cacheDir, "session.dat")
	apiCredsFile := filepath.Join(p.cacheDir, "telegram.dat")
	if p.Reset {
		if err := unlink(sessFile); err != nil {
			return err
		}
		if err := unlink(apiCredsFile); err != nil {
			return err
		}
	}
	if migrated, err := migratev120(sessFile); err != nil {
		dlog.Printf("session migration error: %s", err)
	} else if migrated {
		dlog.Debug("session file migrated")
	}

	opts := telegram.Options{
		SessionStorage: &session.FileStorage{Path: sessFile},
	}

	cl, err := mtp.New(p.ApiID, p.ApiHash,
		mtp.WithAuth(authflow.NewTermAuth(p.Phone)),
		mtp.WithApiCredsFile(apiCredsFile),
		mtp.WithMTPOptions(opts),
		mtp.WithDebug(p.Verbose),
	)
	if err != nil {
		return err
	}

	dlog.Println("Connecting to telegram . . .")
	if err := cl.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := cl.Stop(); err != nil {
			dlog.Printf("stop error: %s", err)
		}
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cln := cleaner.New(cl,
		cleaner.WithKeepList(cleaner.ParseKeepList(p.Keep)),
		cleaner.WithConfirmAll(p.Yes),
		cleaner.WithLogger(dlog.New(os.Stderr, "", dlog.Flags(), p.Verbose)),
	)

	// fixed operation order; -clean expands into its own sequence.  The
	// default with no operation flags is to list the chats.
	ops := []struct {
		requested bool
		fn        func(context.Context)
	}{
		{p.Clean, cln.Clean},
		{p.Contacts && !p.Clean, cln.DeleteContacts},
		{p.WipeGroups && !p.Clean, cln.DeleteGroupMessages},
		{p.DeletePrivate && !p.Clean, cln.DeletePrivateChats},
		{p.ClearPrivate, cln.ClearPrivateChats},
		{p.Leave && !p.Clean, cln.LeaveGroups},
		{p.List, cln.DumpChats},
		{p.Me, cln.DumpMe},
		{p.Logout, cln.Logout},
	}
	ran := false
	for _, op := range ops {
		if !op.requested {
			continue
		}
		ran = true
		op.fn(ctx)
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	if !ran {
		cln.DumpChats(ctx)
	}

	return nil
}

func header(w io.Writer) {
	fmt.Fprintf(w, "%s\n%s\n%s\n", versionSig, strings.Repeat("-", len(versionSig)),
		color.New(color.Italic).Sprint("Delete contacts, chats and messages from your Telegram account."),
	)
	fmt.Fprintln(w)
}

func ver(w io.Writer) {
	header(w)
	if gitCommit != "" {
		fmt.Fprintf(w, "commit: %s ref: %s\n", gitCommit, gitRef)
	}
}
