package listevent

// runKind classifies a stretch of the sequence within an open transaction.
type runKind uint8

const (
	// runKeep covers elements untouched by the transaction.
	runKeep runKind = iota
	runUpdate
	runInsert
	// runDelete is zero-width in current space; count is the number of
	// removed pre-transaction elements.
	runDelete
)

func runKindOf(kind ChangeKind) runKind {
	switch kind {
	case Delete:
		return runDelete
	case Update:
		return runUpdate
	default:
		return runInsert
	}
}

func (k runKind) changeKind() ChangeKind {
	switch k {
	case runDelete:
		return Delete
	case runUpdate:
		return Update
	default:
		return Insert
	}
}

type run struct {
	kind  runKind
	count int
}

// width is the current-space size of the run.
func (r run) width() int {
	if r.kind == runDelete {
		return 0
	}

	return r.count
}

// prevWidth is the pre-transaction size of the run.
func (r run) prevWidth() int {
	if r.kind == runInsert {
		return 0
	}

	return r.count
}

func runsWidth(runs []run) int {
	total := 0
	for _, r := range runs {
		total += r.width()
	}

	return total
}

// splitRuns cuts runs at current offset pos. Deletions sitting exactly at pos
// go to the left part when delsLeft is set and to the right part otherwise.
func splitRuns(runs []run, pos int, delsLeft bool) (left, right []run) {
	offset := 0

	for i, r := range runs {
		w := r.width()

		switch {
		case w == 0 && offset == pos:
			if !delsLeft {
				return clip(runs[:i]), clip(runs[i:])
			}
		case offset == pos:
			return clip(runs[:i]), clip(runs[i:])
		case offset < pos && pos < offset+w:
			left = append(clip(runs[:i]), run{kind: r.kind, count: pos - offset})
			right = append([]run{{kind: r.kind, count: offset + w - pos}}, runs[i+1:]...)

			return left, right
		}

		offset += w
	}

	return clip(runs), nil
}

func clip(runs []run) []run {
	return runs[:len(runs):len(runs)]
}

// applyChange applies one elementary change at current offset q to a window
// of runs that covers [q, q+length], and returns the normalized result.
func applyChange(runs []run, kind ChangeKind, q, length int) []run {
	var out []run

	switch kind {
	case Insert:
		left, right := splitRuns(runs, q, true)
		out = make([]run, 0, len(runs)+2)
		out = append(out, left...)
		out = append(out, run{kind: runInsert, count: length})
		out = append(out, right...)
	case Delete:
		left, rest := splitRuns(runs, q, false)
		mid, right := splitRuns(rest, length, true)

		removed := 0
		for _, r := range mid {
			removed += r.prevWidth()
		}

		out = make([]run, 0, len(left)+len(right)+1)
		out = append(out, left...)
		out = append(out, run{kind: runDelete, count: removed})
		out = append(out, right...)
	case Update:
		left, rest := splitRuns(runs, q, true)
		mid, right := splitRuns(rest, length, true)
		out = make([]run, 0, len(runs)+2)
		out = append(out, left...)

		for _, r := range mid {
			if r.kind == runKeep {
				r.kind = runUpdate
			}

			out = append(out, r)
		}

		out = append(out, right...)
	}

	return normalizeRuns(out)
}

// normalizeRuns merges neighbours of the same kind, drops empty runs and nets
// a deletion followed by an insertion at the same gap into an update of the
// overlapping length plus whichever residual remains.
func normalizeRuns(runs []run) []run {
	runs = mergeRuns(runs)

	out := make([]run, 0, len(runs)+1)

	for i := 0; i < len(runs); i++ {
		r := runs[i]
		if r.kind != runDelete || i+1 >= len(runs) || runs[i+1].kind != runInsert {
			out = append(out, r)

			continue
		}

		ins := runs[i+1]
		k := min(r.count, ins.count)
		out = append(out,
			run{kind: runDelete, count: r.count - k},
			run{kind: runUpdate, count: k},
			run{kind: runInsert, count: ins.count - k},
		)
		i++
	}

	return mergeRuns(out)
}

func mergeRuns(runs []run) []run {
	out := runs[:0:0]

	for _, r := range runs {
		if r.count == 0 {
			continue
		}

		if n := len(out); n > 0 && out[n-1].kind == r.kind {
			out[n-1].count += r.count

			continue
		}

		out = append(out, r)
	}

	return out
}
