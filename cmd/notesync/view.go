package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"notesync-be/pkg/notesync"
)

var viewCmd = &cobra.Command{
	Use:       "view [list|grid]",
	Short:     "Show or change how notes are laid out",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{string(notesync.ViewList), string(notesync.ViewGrid)},
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		store := notesync.NewFileStore(prefsPath)

		if len(args) == 0 {
			mode, err := notesync.LoadViewMode(ctx, store)
			if err != nil {
				fatal("Error reading preferences", err)
			}
			fmt.Println(mode)
			return
		}

		mode, ok := notesync.ParseViewMode(args[0])
		if !ok {
			fatal("Unknown view", fmt.Errorf("%q, expected list or grid", args[0]))
		}
		if err := store.Set(ctx, mode); err != nil {
			fatal("Error saving preferences", err)
		}
		fmt.Println(mode)
	},
}

func init() {
	rootCmd.AddCommand(viewCmd)
}
