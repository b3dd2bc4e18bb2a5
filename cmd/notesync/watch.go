package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"notesync-be/pkg/notesync"
)

const clearScreen = "\033[H\033[2J"

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep a page on screen and redraw it when notes change anywhere",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var (
			mu       sync.Mutex
			rendered uint64
		)
		redraw := func(snap notesync.Snapshot) {
			if snap.State != notesync.StateReady {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if snap.Version <= rendered {
				return
			}
			rendered = snap.Version
			os.Stdout.WriteString(clearScreen)
			render(os.Stdout, snap)
		}

		e, _ := startEngine(ctx, listParams(), notesync.OnChange(redraw))
		defer e.Close()
		redraw(e.Snapshot())

		watcher, err := notesync.NewWatcher(baseURL, token)
		if err != nil {
			fatal("Error creating watcher", err)
		}
		watcher.Logger = clientLogger()

		err = watcher.Run(ctx, e.Refetch)
		if err != nil && !errors.Is(err, context.Canceled) {
			watcher.Logger.Error("watch stopped", zap.Error(err))
			fatal("Watch stopped", err)
		}
	},
}

func init() {
	addListFlags(watchCmd)
	rootCmd.AddCommand(watchCmd)
}
