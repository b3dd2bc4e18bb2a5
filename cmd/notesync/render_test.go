package main

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"notesync-be/pkg/notesync"
)

func init() {
	color.NoColor = true
}

func snapshot(mode notesync.ViewMode, notes ...notesync.Note) notesync.Snapshot {
	params := notesync.DefaultParams()
	return notesync.Snapshot{
		State:      notesync.StateReady,
		Params:     params,
		LocalData:  notes,
		ServerData: notes,
		Total:      int64(len(notes)) + 10,
		ViewMode:   mode,
	}
}

func TestRenderList(t *testing.T) {
	var buf bytes.Buffer
	render(&buf, snapshot(notesync.ViewList,
		notesync.Note{Id: "n1", Title: "Groceries", Category: "home", IsFavorite: true},
		notesync.Note{Id: "n2", Content: "no title"},
	))

	out := buf.String()
	assert.Contains(t, out, "page 1/2")
	assert.Contains(t, out, "  0  ★ Groceries  n1 · home\n")
	assert.Contains(t, out, "  1    (untitled)  n2\n")
}

func TestRenderGrid(t *testing.T) {
	var buf bytes.Buffer
	render(&buf, snapshot(notesync.ViewGrid,
		notesync.Note{Id: "a", Title: "A"},
		notesync.Note{Id: "b", Title: "B"},
		notesync.Note{Id: "c", Title: "C"},
		notesync.Note{Id: "d", Title: "a title far longer than one grid cell"},
	))

	lines := bytes.Split(bytes.TrimRight(buf.Bytes(), "\n"), []byte("\n"))
	// heading plus two rows of two lines each
	assert.Len(t, lines, 5)
	assert.Contains(t, string(lines[3]), "a title far longer than…")
}

func TestRenderEmpty(t *testing.T) {
	var buf bytes.Buffer
	render(&buf, snapshot(notesync.ViewList))
	assert.Contains(t, buf.String(), "no notes")
}

func TestPad(t *testing.T) {
	assert.Equal(t, "ab  ", pad("ab", 4))
	assert.Equal(t, "abc…", pad("abcdef", 4))
}
