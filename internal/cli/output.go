package cli

import (
	"encoding/json"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/llehouerou/drift/internal/playlist"
)

// Table is a tab-aligned text table.
type Table struct {
	w *tabwriter.Writer
}

// NewTable starts a table on out with the given headers.
func NewTable(out io.Writer, headers ...string) *Table {
	t := &Table{w: tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)}
	if len(headers) > 0 {
		t.Row(headers...)
	}
	return t
}

// Row adds a row.
func (t *Table) Row(values ...string) {
	_, _ = t.w.Write([]byte(strings.Join(values, "\t") + "\n"))
}

// Flush writes the table.
func (t *Table) Flush() {
	_ = t.w.Flush()
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printTracks lists tracks as a numbered table, or as JSON with --json.
func printTracks(out io.Writer, tracks []playlist.Track, asJSON bool) error {
	if asJSON {
		if tracks == nil {
			tracks = []playlist.Track{}
		}
		return writeJSON(out, tracks)
	}
	t := NewTable(out, "#", "TITLE", "ARTIST", "LENGTH", "SOURCE")
	for i, tr := range tracks {
		length := "-"
		if tr.Duration > 0 {
			length = playlist.FormatDuration(tr.Duration)
		}
		t.Row(strconv.Itoa(i+1), tr.Title, tr.Artist, length, tr.Source)
	}
	t.Flush()
	return nil
}
