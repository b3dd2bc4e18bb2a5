package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"notesync-be/pkg/notesync"
)

var (
	addTitle    string
	addCategory string
	addStatus   string
	favoriteOff bool
)

var addCmd = &cobra.Command{
	Use:   "add <content>",
	Short: "Create a note at the end of your list",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		e, f := startEngine(context.Background(), listParams())
		err := e.CreateNote(notesync.NewNote{
			Title:    addTitle,
			Content:  args[0],
			Category: addCategory,
			Status:   addStatus,
		})
		if err != nil {
			fatal("Error creating note", err)
		}
		settle(e, f)
	},
}

var moveCmd = &cobra.Command{
	Use:   "move <from> <to>",
	Short: "Move the note at one index of the page to another",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		from, err := strconv.Atoi(args[0])
		if err != nil {
			fatal("Invalid index", err)
		}
		to, err := strconv.Atoi(args[1])
		if err != nil {
			fatal("Invalid index", err)
		}

		e, f := startEngine(context.Background(), listParams())
		if err := e.MoveItem(from, to); err != nil {
			fatal("Error moving note", err)
		}
		settle(e, f)
	},
}

var favoriteCmd = &cobra.Command{
	Use:   "favorite <index>",
	Short: "Mark the note at an index as favorite",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		e, f := startEngine(context.Background(), listParams())
		note := noteAt(e, args[0])
		e.ToggleFavorite(note.Id, !favoriteOff)
		settle(e, f)
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm <index>",
	Short: "Delete the note at an index",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		e, f := startEngine(context.Background(), listParams())
		note := noteAt(e, args[0])
		e.DeleteNote(note.Id)
		settle(e, f)
	},
}

func noteAt(e *notesync.Engine, arg string) notesync.Note {
	index, err := strconv.Atoi(arg)
	if err != nil {
		fatal("Invalid index", err)
	}
	notes := e.Snapshot().LocalData
	if index < 0 || index >= len(notes) {
		fatal("Invalid index", fmt.Errorf("page has %d notes", len(notes)))
	}
	return notes[index]
}

func init() {
	addCmd.Flags().StringVarP(&addTitle, "title", "t", "", "Title")
	addCmd.Flags().StringVar(&addCategory, "category", "", "Category")
	addCmd.Flags().StringVar(&addStatus, "status", "", "Status")
	favoriteCmd.Flags().BoolVar(&favoriteOff, "off", false, "Clear the favorite mark instead")

	for _, cmd := range []*cobra.Command{moveCmd, favoriteCmd, rmCmd} {
		addListFlags(cmd)
		rootCmd.AddCommand(cmd)
	}
	rootCmd.AddCommand(addCmd)
}
