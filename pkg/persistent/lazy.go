// Package persistent provides a list whose contents are loaded on demand
// from an external source and saved back as snapshots.
//
// A LazyList wraps a private delegate eventlist.List and relays every
// delegate event through its own assembler. Loading happens inside one
// grouped transaction, so however many elements arrive, listeners of the
// LazyList see a single event.
package persistent

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Sumatoshi-tech/listdelta/pkg/eventlist"
	"github.com/Sumatoshi-tech/listdelta/pkg/listevent"
)

// Lifecycle errors.
var (
	ErrNotInitialized     = errors.New("list is not initialized")
	ErrAlreadyInitialized = errors.New("list is already initialized")
)

// Loader produces the initial contents of a LazyList, one element at a time.
type Loader[T any] interface {
	Load(ctx context.Context, emit func(item T) error) error
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc[T any] func(ctx context.Context, emit func(item T) error) error

// Load implements Loader.
func (f LoaderFunc[T]) Load(ctx context.Context, emit func(item T) error) error {
	return f(ctx, emit)
}

// SliceLoader emits the elements of a slice.
func SliceLoader[T any](items []T) Loader[T] {
	return LoaderFunc[T](func(ctx context.Context, emit func(T) error) error {
		for _, item := range items {
			if err := ctx.Err(); err != nil {
				return err
			}

			if err := emit(item); err != nil {
				return err
			}
		}

		return nil
	})
}

// LazyList is a list that must be initialized before use.
type LazyList[T comparable] struct {
	mu          sync.Mutex
	delegate    *eventlist.List[T]
	updates     *listevent.Assembler
	initialized bool
	// relayErr holds the first delegate event this list could not forward
	// during the running transaction.
	relayErr error
}

// New returns an uninitialized list. Options configure its own assembler.
func New[T comparable](opts ...listevent.Option) *LazyList[T] {
	l := &LazyList[T]{delegate: eventlist.New[T]()}
	l.updates = listevent.NewAssembler(l, opts...)
	l.delegate.AddListener(l)

	return l
}

// ListChanged relays a delegate event. It runs with mu held by the LazyList
// method that caused it, which reports a relay failure as its own error.
func (l *LazyList[T]) ListChanged(e *listevent.Event) {
	if err := l.updates.ForwardEvent(e); err != nil && l.relayErr == nil {
		l.relayErr = fmt.Errorf("relay delegate event: %w", err)
	}
}

// commit closes the transaction opened by Initialize or Update and returns
// err joined with any relay failure.
func (l *LazyList[T]) commit(err error) error {
	relayErr := l.relayErr
	l.relayErr = nil

	return errors.Join(err, relayErr, l.updates.Commit())
}

// Assembler returns the assembler publishing the list's events.
func (l *LazyList[T]) Assembler() *listevent.Assembler {
	return l.updates
}

// AddListener registers a listener for every following change.
func (l *LazyList[T]) AddListener(listener listevent.Listener) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.updates.AddListener(listener)
}

// RemoveListener drops the earliest registration of listener.
func (l *LazyList[T]) RemoveListener(listener listevent.Listener) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.updates.RemoveListener(listener)
}

// IsInitialized reports whether Initialize has completed.
func (l *LazyList[T]) IsInitialized() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.initialized
}

// Initialize fills the list from loader and publishes one event for the
// whole load. If loading fails the partial contents are discarded within
// the same transaction and the list stays uninitialized.
func (l *LazyList[T]) Initialize(ctx context.Context, loader Loader[T]) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.initialized {
		return ErrAlreadyInitialized
	}

	l.updates.Begin(true)

	err := loader.Load(ctx, l.delegate.Add)
	if err != nil {
		err = errors.Join(fmt.Errorf("load: %w", err), l.delegate.Clear())
	} else {
		l.initialized = true
	}

	return l.commit(err)
}

// Len returns the number of elements.
func (l *LazyList[T]) Len() (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.initialized {
		return 0, ErrNotInitialized
	}

	return l.delegate.Len(), nil
}

// Get returns the element at index.
func (l *LazyList[T]) Get(index int) (T, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.initialized {
		var zero T

		return zero, ErrNotInitialized
	}

	return l.delegate.Get(index)
}

// Slice returns a copy of the elements.
func (l *LazyList[T]) Slice() ([]T, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.initialized {
		return nil, ErrNotInitialized
	}

	return l.delegate.Slice(), nil
}

// Update runs fn against the delegate as one transaction of this list.
func (l *LazyList[T]) Update(fn func(items *eventlist.List[T]) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.initialized {
		return ErrNotInitialized
	}

	l.updates.Begin(false)

	err := fn(l.delegate)

	return l.commit(err)
}

// Add appends value.
func (l *LazyList[T]) Add(value T) error {
	return l.Update(func(items *eventlist.List[T]) error { return items.Add(value) })
}

// Set replaces the element at index.
func (l *LazyList[T]) Set(index int, value T) error {
	return l.Update(func(items *eventlist.List[T]) error {
		_, err := items.Set(index, value)

		return err
	})
}

// Remove deletes the element at index.
func (l *LazyList[T]) Remove(index int) error {
	return l.Update(func(items *eventlist.List[T]) error {
		_, err := items.Remove(index)

		return err
	})
}
