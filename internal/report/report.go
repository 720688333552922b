// Package report renders captured events and bench results for terminals
// and browsers.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/Sumatoshi-tech/listdelta/pkg/eventcodec"
	"github.com/Sumatoshi-tech/listdelta/pkg/listevent"
)

const (
	kindReorder = "reorder"

	// previewLimit caps the reorder map shown in a table cell.
	previewLimit = 8
)

var kindColors = map[string]*color.Color{
	listevent.Insert.String(): color.New(color.FgGreen),
	listevent.Delete.String(): color.New(color.FgRed),
	listevent.Update.String(): color.New(color.FgYellow),
	kindReorder:               color.New(color.FgCyan),
}

func colorKind(kind string) string {
	if c, ok := kindColors[kind]; ok {
		return c.Sprint(kind)
	}

	return kind
}

func newTable(w io.Writer) table.Writer {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.DrawBorder = false

	return tbl
}

// Events writes one row per change block, and one per reordering event.
func Events(w io.Writer, records []eventcodec.Record) {
	tbl := newTable(w)
	tbl.AppendHeader(table.Row{"Event", "Kind", "Start", "Length", "End"})

	for _, rec := range records {
		if rec.IsReordering() {
			tbl.AppendRow(table.Row{rec.Seq, colorKind(kindReorder), "-", len(rec.Reorder), previewMap(rec.Reorder)})

			continue
		}

		if len(rec.Blocks) == 0 {
			tbl.AppendRow(table.Row{rec.Seq, "empty", "-", 0, "-"})

			continue
		}

		for _, b := range rec.Blocks {
			tbl.AppendRow(table.Row{rec.Seq, colorKind(b.Kind.String()), b.Start, b.Length, b.End()})
		}
	}

	tbl.Render()
}

func previewMap(m []int) string {
	parts := make([]string, 0, min(len(m), previewLimit)+1)
	for i, v := range m {
		if i == previewLimit {
			parts = append(parts, "…")

			break
		}

		parts = append(parts, strconv.Itoa(v))
	}

	return "[" + strings.Join(parts, " ") + "]"
}

// Totals aggregates records.
type Totals struct {
	Events   int
	Empty    int
	Reorders int
	Blocks   int
	Inserted int
	Deleted  int
	Updated  int
}

// Summarize computes the totals of records.
func Summarize(records []eventcodec.Record) Totals {
	var t Totals

	for _, rec := range records {
		t.Events++

		switch {
		case rec.IsReordering():
			t.Reorders++
		case len(rec.Blocks) == 0:
			t.Empty++
		}

		t.Blocks += len(rec.Blocks)

		for _, b := range rec.Blocks {
			switch b.Kind {
			case listevent.Insert:
				t.Inserted += b.Length
			case listevent.Delete:
				t.Deleted += b.Length
			case listevent.Update:
				t.Updated += b.Length
			}
		}
	}

	return t
}

// Summary writes the totals of records on one line.
func Summary(w io.Writer, records []eventcodec.Record) {
	t := Summarize(records)

	fmt.Fprintf(w, "%s events (%s empty, %s reorders), %s blocks: %s inserted, %s deleted, %s updated\n",
		humanize.Comma(int64(t.Events)),
		humanize.Comma(int64(t.Empty)),
		humanize.Comma(int64(t.Reorders)),
		humanize.Comma(int64(t.Blocks)),
		kindColors[listevent.Insert.String()].Sprint(humanize.Comma(int64(t.Inserted))),
		kindColors[listevent.Delete.String()].Sprint(humanize.Comma(int64(t.Deleted))),
		kindColors[listevent.Update.String()].Sprint(humanize.Comma(int64(t.Updated))),
	)
}

// DumpInfo writes the size of an event dump.
func DumpInfo(w io.Writer, path string, size int64, records int) {
	fmt.Fprintf(w, "%s: %s, %s records\n", path, humanize.IBytes(uint64(max(size, 0))), humanize.Comma(int64(records)))
}
