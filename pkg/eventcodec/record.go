// Package eventcodec captures published events as plain records and stores
// them in a compact binary dump for later inspection and replay.
package eventcodec

import (
	"github.com/Sumatoshi-tech/listdelta/pkg/listevent"
)

// Record is the data of one event, detached from its store.
type Record struct {
	Seq     int                     `json:"seq"`
	Blocks  []listevent.ChangeBlock `json:"blocks,omitempty"`
	Reorder []int                   `json:"reorder,omitempty"`
}

// Capture copies the content of e without moving its cursor.
func Capture(seq int, e *listevent.Event) Record {
	rec := Record{Seq: seq}

	if e.IsReordering() {
		m, _ := e.ReorderMap() //nolint:errcheck // IsReordering guarantees a map.
		rec.Reorder = m

		return rec
	}

	rec.Blocks = e.Blocks()

	return rec
}

// IsReordering reports whether the record holds a permutation.
func (r Record) IsReordering() bool {
	return len(r.Reorder) > 0
}

// Event rebuilds a replayable event reporting source.
func (r Record) Event(source any) (*listevent.Event, error) {
	if r.IsReordering() {
		return listevent.NewReorderEvent(source, r.Reorder)
	}

	return listevent.NewEvent(source, r.Blocks)
}

// Sink is a listener that captures every event it receives.
type Sink struct {
	Records []Record
}

// ListChanged implements listevent.Listener.
func (s *Sink) ListChanged(e *listevent.Event) {
	s.Records = append(s.Records, Capture(len(s.Records), e))
}
