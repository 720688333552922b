// Package listdiff turns the difference between two versions of a line list
// into a single list change event, and replays events onto line lists.
package listdiff

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/Sumatoshi-tech/listdelta/pkg/listevent"
)

// ErrMismatch is returned by Apply when an event does not fit the lists.
var ErrMismatch = errors.New("event does not fit the lists")

// Lines splits text into lines. A trailing newline does not start an extra
// empty line.
func Lines(text string) []string {
	if text == "" {
		return nil
	}

	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}

// Diff computes line-level edits from prev to next.
func Diff(prev, next []string) []diffmatchpatch.Diff {
	dmp := diffmatchpatch.New()
	src, dst, _ := dmp.DiffLinesToRunes(joinLines(prev), joinLines(next))
	diffs := dmp.DiffMainRunes(src, dst, false)

	return dmp.DiffCleanupMerge(dmp.DiffCleanupSemanticLossless(diffs))
}

// Report records the edits turning prev into next as one transaction of a,
// and returns the number of changed lines reported.
func Report(a *listevent.Assembler, prev, next []string) (int, error) {
	a.Begin(false)

	changed, err := record(a, Diff(prev, next))

	return changed, errors.Join(err, a.Commit())
}

func record(a *listevent.Assembler, diffs []diffmatchpatch.Diff) (int, error) {
	pos, changed := 0, 0

	for _, edit := range diffs {
		// Every rune of a line-mode diff stands for one line.
		n := utf8.RuneCountInString(edit.Text)
		if n == 0 {
			continue
		}

		switch edit.Type {
		case diffmatchpatch.DiffEqual:
			pos += n

			continue
		case diffmatchpatch.DiffDelete:
			if err := a.RecordChange(listevent.Delete, pos, n); err != nil {
				return changed, err
			}
		case diffmatchpatch.DiffInsert:
			if err := a.RecordChange(listevent.Insert, pos, n); err != nil {
				return changed, err
			}

			pos += n
		}

		changed += n
	}

	return changed, nil
}

// Apply replays e onto prev, taking inserted and updated lines from next.
// The result equals next when e describes the change from prev to next.
func Apply(prev []string, e *listevent.Event, next []string) ([]string, error) {
	c := e.Copy()
	c.Reset()

	if c.IsReordering() {
		m, _ := c.ReorderMap() //nolint:errcheck // IsReordering guarantees a map.
		if len(m) != len(prev) {
			return nil, fmt.Errorf("%w: reorder of %d over %d lines", ErrMismatch, len(m), len(prev))
		}

		out := make([]string, len(m))
		for i, p := range m {
			out[i] = prev[p]
		}

		return out, nil
	}

	out := slices.Clone(prev)

	for c.Next() {
		b := c.Block()
		if b.Kind != listevent.Delete && b.End() > len(next) {
			return nil, fmt.Errorf("%w: %s past %d new lines", ErrMismatch, b, len(next))
		}

		switch b.Kind {
		case listevent.Insert:
			if b.Start > len(out) {
				return nil, fmt.Errorf("%w: %s past %d lines", ErrMismatch, b, len(out))
			}

			out = slices.Insert(out, b.Start, next[b.Start:b.End()]...)
		case listevent.Delete:
			if b.Start+b.Length > len(out) {
				return nil, fmt.Errorf("%w: %s past %d lines", ErrMismatch, b, len(out))
			}

			out = slices.Delete(out, b.Start, b.Start+b.Length)
		case listevent.Update:
			if b.End() > len(out) {
				return nil, fmt.Errorf("%w: %s past %d lines", ErrMismatch, b, len(out))
			}

			copy(out[b.Start:b.End()], next[b.Start:b.End()])
		}
	}

	return out, nil
}

func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}

	return strings.Join(lines, "\n") + "\n"
}
