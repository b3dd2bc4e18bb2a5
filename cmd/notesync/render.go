package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"notesync-be/pkg/notesync"
)

const gridColumns = 3

var (
	yellow  = color.New(color.FgYellow).SprintFunc()
	faint   = color.New(color.Faint).SprintFunc()
	bold    = color.New(color.Bold).SprintFunc()
	heading = color.New(color.FgCyan, color.Bold).SprintFunc()
)

func render(w io.Writer, snap notesync.Snapshot) {
	size := int64(snap.Params.PageSize)
	if size < 1 {
		size = 1
	}
	pages := int((snap.Total + size - 1) / size)
	if pages < 1 {
		pages = 1
	}
	fmt.Fprintln(w, heading(fmt.Sprintf("Notes  page %d/%d  (%d total, sorted by %s %s)",
		snap.Params.Page, pages, snap.Total, snap.Params.SortField, snap.Params.SortDirection)))

	if len(snap.LocalData) == 0 {
		fmt.Fprintln(w, faint("  no notes"))
		return
	}

	if snap.ViewMode == notesync.ViewGrid {
		renderGrid(w, snap.LocalData)
		return
	}
	for i, n := range snap.LocalData {
		fmt.Fprintf(w, "%3d  %s %s  %s\n", i, mark(n), bold(title(n)), faint(meta(n)))
	}
}

func renderGrid(w io.Writer, notes []notesync.Note) {
	const width = 24
	for start := 0; start < len(notes); start += gridColumns {
		end := start + gridColumns
		if end > len(notes) {
			end = len(notes)
		}
		var top, bottom []string
		for i, n := range notes[start:end] {
			top = append(top, fmt.Sprintf("%3d %s %s", start+i, mark(n), bold(pad(title(n), width))))
			bottom = append(bottom, "      "+faint(pad(meta(n), width)))
		}
		fmt.Fprintln(w, strings.Join(top, "  "))
		fmt.Fprintln(w, strings.Join(bottom, "  "))
	}
}

func mark(n notesync.Note) string {
	if n.IsFavorite {
		return yellow("★")
	}
	return " "
}

func title(n notesync.Note) string {
	if n.Title != "" {
		return n.Title
	}
	return "(untitled)"
}

func meta(n notesync.Note) string {
	parts := []string{n.Id}
	if n.Category != "" {
		parts = append(parts, n.Category)
	}
	if n.Status != "" {
		parts = append(parts, n.Status)
	}
	return strings.Join(parts, " · ")
}

func pad(s string, width int) string {
	r := []rune(s)
	if len(r) > width {
		return string(r[:width-1]) + "…"
	}
	return s + strings.Repeat(" ", width-len(r))
}
