// Package eventlist provides an observable slice-backed list that reports
// every mutation through a listevent.Assembler.
//
// A mutation the assembler refuses leaves the list unchanged.
//
// List methods do not lock. Callers that share a list between goroutines
// hold ReadWriteLock, exclusively for mutations and shared for reads, or use
// Update and Read which do it for them. Listeners run while the mutating
// caller still holds the lock and may read the list directly.
package eventlist

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/Sumatoshi-tech/listdelta/pkg/listevent"
	"github.com/Sumatoshi-tech/listdelta/pkg/matcher"
)

// ErrIndexOutOfRange is returned for positions outside the list.
var ErrIndexOutOfRange = errors.New("index out of range")

// List is an ordered, observable collection.
type List[T comparable] struct {
	lock    sync.RWMutex
	items   []T
	updates *listevent.Assembler
}

// New returns an empty list. Options configure its assembler.
func New[T comparable](opts ...listevent.Option) *List[T] {
	l := &List[T]{}
	l.updates = listevent.NewAssembler(l, opts...)

	return l
}

// Of returns a list holding items.
func Of[T comparable](items []T, opts ...listevent.Option) *List[T] {
	l := New[T](opts...)
	l.items = slices.Clone(items)

	return l
}

// ReadWriteLock returns the lock guarding the list.
func (l *List[T]) ReadWriteLock() *sync.RWMutex {
	return &l.lock
}

// Assembler returns the assembler publishing the list's events.
func (l *List[T]) Assembler() *listevent.Assembler {
	return l.updates
}

// AddListener registers a listener for every following change.
func (l *List[T]) AddListener(listener listevent.Listener) {
	l.updates.AddListener(listener)
}

// RemoveListener drops the earliest registration of listener.
func (l *List[T]) RemoveListener(listener listevent.Listener) bool {
	return l.updates.RemoveListener(listener)
}

// Update runs fn under the write lock as one transaction.
func (l *List[T]) Update(fn func(l *List[T]) error) error {
	l.lock.Lock()
	defer l.lock.Unlock()

	return l.Batch(func() error { return fn(l) })
}

// Read runs fn under the read lock.
func (l *List[T]) Read(fn func(l *List[T])) {
	l.lock.RLock()
	defer l.lock.RUnlock()

	fn(l)
}

// Batch groups every mutation made by fn into a single event.
func (l *List[T]) Batch(fn func() error) error {
	l.updates.Begin(true)

	err := fn()

	return errors.Join(err, l.updates.Commit())
}

// Len returns the number of elements.
func (l *List[T]) Len() int {
	return len(l.items)
}

// Get returns the element at index.
func (l *List[T]) Get(index int) (T, error) {
	if index < 0 || index >= len(l.items) {
		var zero T

		return zero, l.outOfRange(index)
	}

	return l.items[index], nil
}

// Slice returns a copy of the elements.
func (l *List[T]) Slice() []T {
	return slices.Clone(l.items)
}

// Contains reports whether value is in the list.
func (l *List[T]) Contains(value T) bool {
	return slices.Contains(l.items, value)
}

// IndexOf returns the first index of value, or -1.
func (l *List[T]) IndexOf(value T) int {
	return slices.Index(l.items, value)
}

// LastIndexOf returns the last index of value, or -1.
func (l *List[T]) LastIndexOf(value T) int {
	for i := len(l.items) - 1; i >= 0; i-- {
		if l.items[i] == value {
			return i
		}
	}

	return -1
}

// Add appends value.
func (l *List[T]) Add(value T) error {
	return l.InsertAll(len(l.items), value)
}

// AddAll appends values in order.
func (l *List[T]) AddAll(values ...T) error {
	return l.InsertAll(len(l.items), values...)
}

// Insert places value at index, shifting later elements.
func (l *List[T]) Insert(index int, value T) error {
	return l.InsertAll(index, value)
}

// InsertAll places values at index, shifting later elements.
func (l *List[T]) InsertAll(index int, values ...T) error {
	if index < 0 || index > len(l.items) {
		return l.outOfRange(index)
	}

	if len(values) == 0 {
		return nil
	}

	return l.mutate(func() error {
		err := l.updates.RecordChange(listevent.Insert, index, len(values))
		if err != nil {
			return err
		}

		l.items = slices.Insert(l.items, index, values...)

		return nil
	})
}

// Set replaces the element at index and returns the previous one.
func (l *List[T]) Set(index int, value T) (T, error) {
	var prev T

	if index < 0 || index >= len(l.items) {
		return prev, l.outOfRange(index)
	}

	err := l.mutate(func() error {
		err := l.updates.RecordUpdate(index)
		if err != nil {
			return err
		}

		prev, l.items[index] = l.items[index], value

		return nil
	})

	return prev, err
}

// Remove deletes the element at index and returns it.
func (l *List[T]) Remove(index int) (T, error) {
	var removed T

	if index < 0 || index >= len(l.items) {
		return removed, l.outOfRange(index)
	}

	removed = l.items[index]

	return removed, l.RemoveRange(index, index+1)
}

// RemoveRange deletes the elements in [from, to).
func (l *List[T]) RemoveRange(from, to int) error {
	if from < 0 || to > len(l.items) || from > to {
		return fmt.Errorf("%w: range [%d,%d) of %d", ErrIndexOutOfRange, from, to, len(l.items))
	}

	if from == to {
		return nil
	}

	return l.mutate(func() error {
		err := l.updates.RecordChange(listevent.Delete, from, to-from)
		if err != nil {
			return err
		}

		l.items = slices.Delete(l.items, from, to)

		return nil
	})
}

// RemoveValue deletes the first occurrence of value and reports whether it
// was present.
func (l *List[T]) RemoveValue(value T) (bool, error) {
	i := l.IndexOf(value)
	if i < 0 {
		return false, nil
	}

	return true, l.RemoveRange(i, i+1)
}

// RemoveAll deletes every element equal to one of values and reports
// whether the list changed.
func (l *List[T]) RemoveAll(values ...T) (bool, error) {
	return l.RemoveMatching(matcher.In(values...))
}

// RetainAll deletes every element not equal to one of values and reports
// whether the list changed.
func (l *List[T]) RetainAll(values ...T) (bool, error) {
	return l.RemoveMatching(matcher.Not(matcher.In(values...)))
}

// RetainMatching deletes every element m does not match.
func (l *List[T]) RetainMatching(m matcher.Matcher[T]) (bool, error) {
	return l.RemoveMatching(matcher.Not(m))
}

// RemoveMatching deletes every element m matches, in one event.
func (l *List[T]) RemoveMatching(m matcher.Matcher[T]) (bool, error) {
	kept := make([]T, 0, len(l.items))

	// Deletions are reported at the position the survivor list has reached,
	// which is the current-space index.
	var deletes []int

	for _, item := range l.items {
		if m.Matches(item) {
			deletes = append(deletes, len(kept))

			continue
		}

		kept = append(kept, item)
	}

	err := l.mutate(func() error {
		// A refused first delete leaves nothing recorded, and a refusal
		// cannot start part way through.
		for _, index := range deletes {
			err := l.updates.RecordDelete(index)
			if err != nil {
				return err
			}
		}

		l.items = kept

		return nil
	})

	return err == nil && len(deletes) > 0, err
}

// Clear removes every element.
func (l *List[T]) Clear() error {
	return l.RemoveRange(0, len(l.items))
}

// SortFunc stably sorts the list with compare and publishes the permutation
// as a reordering event.
func (l *List[T]) SortFunc(compare func(a, b T) int) error {
	if len(l.items) == 0 {
		return nil
	}

	order := make(listevent.ReorderMap, len(l.items))
	for i := range order {
		order[i] = i
	}

	slices.SortStableFunc(order, func(a, b int) int {
		return compare(l.items[a], l.items[b])
	})

	return l.mutate(func() error {
		err := l.updates.RecordReorder(order)
		if err != nil {
			return err
		}

		sorted := make([]T, len(l.items))
		for i, prior := range order {
			sorted[i] = l.items[prior]
		}

		l.items = sorted

		return nil
	})
}

func (l *List[T]) mutate(fn func() error) error {
	l.updates.Begin(false)

	err := fn()

	return errors.Join(err, l.updates.Commit())
}

func (l *List[T]) outOfRange(index int) error {
	return fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, len(l.items))
}
