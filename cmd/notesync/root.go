package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"notesync-be/internal/pkg/logger"
	"notesync-be/pkg/notesync"
)

var (
	baseURL   string
	token     string
	prefsPath string
	verbose   bool

	page     int
	pageSize int
)

var rootCmd = &cobra.Command{
	Use:   "notesync",
	Short: "Browse and arrange your notes from the terminal",
	Long: `notesync talks to a notes server and keeps an ordered, paginated view of your
notes. Reorders and edits show immediately and are reconciled with the server.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", envOr("NOTESYNC_BASE_URL", "http://localhost:3000/api"), "Notes API base URL")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("NOTESYNC_TOKEN"), "Bearer token")
	rootCmd.PersistentFlags().StringVar(&prefsPath, "prefs", envOr("NOTESYNC_PREFS_FILE", defaultPrefsPath()), "Preferences file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Write client logs next to the preferences file")
	rootCmd.PersistentFlags().IntVar(&page, "page", 1, "Page to show")
	rootCmd.PersistentFlags().IntVar(&pageSize, "page-size", 10, "Notes per page")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultPrefsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "notesync-prefs.yaml"
	}
	return filepath.Join(dir, "notesync", "prefs.yaml")
}

var clientLogger = sync.OnceValue(func() *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	return logger.NewIsolatedLogger(filepath.Join(filepath.Dir(prefsPath), "notesync.log")).Zap()
})

// failures prints failed calls and remembers that one happened.
type failures struct {
	mu  sync.Mutex
	ops []string
}

func (f *failures) Error(op string, err error) {
	f.mu.Lock()
	f.ops = append(f.ops, op)
	f.mu.Unlock()
	color.New(color.FgRed).Fprintf(os.Stderr, "%s failed: %v\n", op, err)
}

func (f *failures) any() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.ops) > 0
}

// startEngine builds an engine for the current flags and waits for the first page.
func startEngine(ctx context.Context, params notesync.Params, opts ...notesync.Option) (*notesync.Engine, *failures) {
	if token == "" {
		fatal("missing token", fmt.Errorf("pass --token or set NOTESYNC_TOKEN"))
	}
	params.Page = page
	params.PageSize = pageSize

	f := &failures{}
	opts = append([]notesync.Option{
		notesync.WithNotifier(f),
		notesync.WithLogger(clientLogger()),
		notesync.WithParams(params),
		notesync.WithViewPreferences(notesync.NewFileStore(prefsPath)),
	}, opts...)

	e := notesync.New(notesync.NewHTTPClient(baseURL, token), opts...)
	e.Start(ctx)
	e.Wait()
	if f.any() {
		os.Exit(1)
	}
	return e, f
}

// settle waits for outstanding calls, prints the page and exits non-zero on failure.
func settle(e *notesync.Engine, f *failures) {
	e.Wait()
	render(os.Stdout, e.Snapshot())
	if f.any() {
		os.Exit(1)
	}
}
