package main

import (
	"context"
	"encoding/json"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"notesync-be/pkg/notesync"
)

var (
	listJSON      bool
	search        string
	sortBy        string
	categories    []string
	statuses      []string
	favoritesOnly bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Show one page of notes",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		e, _ := startEngine(context.Background(), listParams())
		snap := e.Snapshot()

		if listJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(snap.ServerData); err != nil {
				fatal("Error encoding JSON", err)
			}
			return
		}
		render(os.Stdout, snap)
	},
}

// listParams applies the list flags. Commands that address notes by index share
// them so the index refers to the same page.
func listParams() notesync.Params {
	params := notesync.DefaultParams()
	params.Search = search
	params.Categories = categories
	params.Statuses = statuses
	params.FavoritesOnly = favoritesOnly
	if sortBy != "" {
		field, dir, _ := strings.Cut(sortBy, ":")
		params.SortField = field
		params.SortDirection = dir
	}
	return params
}

func addListFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&search, "search", "s", "", "Match title or content")
	cmd.Flags().StringVar(&sortBy, "sort", "", "Sort as field:direction, e.g. title:desc")
	cmd.Flags().StringSliceVar(&categories, "category", nil, "Only these categories")
	cmd.Flags().StringSliceVar(&statuses, "status", nil, "Only these statuses")
	cmd.Flags().BoolVar(&favoritesOnly, "favorites", false, "Only favorite notes")
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	addListFlags(listCmd)
}
