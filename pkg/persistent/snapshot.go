package persistent

import (
	"context"
	"fmt"
	"time"

	"github.com/Sumatoshi-tech/listdelta/pkg/persist"
)

// Snapshot is the stored form of a list.
type Snapshot[T any] struct {
	Items   []T       `json:"items"`
	SavedAt time.Time `json:"saved_at"`
}

// Store reads and writes list snapshots in a directory.
type Store[T any] struct {
	dir       string
	persister *persist.Persister[Snapshot[T]]
}

// NewStore returns a store for snapshots named basename in dir.
func NewStore[T any](dir, basename string, codec persist.Codec) *Store[T] {
	return &Store[T]{dir: dir, persister: persist.NewPersister[Snapshot[T]](basename, codec)}
}

// Load implements Loader by emitting the stored elements. A missing
// snapshot loads as an empty list.
func (s *Store[T]) Load(ctx context.Context, emit func(item T) error) error {
	if !s.persister.Exists(s.dir) {
		return nil
	}

	return s.persister.Load(s.dir, func(snap *Snapshot[T]) error {
		return SliceLoader(snap.Items).Load(ctx, emit)
	})
}

// Save writes the current contents of l.
func Save[T comparable](s *Store[T], l *LazyList[T]) error {
	items, err := l.Slice()
	if err != nil {
		return err
	}

	err = s.persister.Save(s.dir, func() *Snapshot[T] {
		return &Snapshot[T]{Items: items, SavedAt: time.Now().UTC()}
	})
	if err != nil {
		return fmt.Errorf("save list: %w", err)
	}

	return nil
}
