package listevent

// Listener receives every event committed by an assembler it is registered
// with. The event is only valid for the duration of the call; use Copy to
// keep it.
//
// Registrations are matched with ==, so a listener must be a pointer or a
// value of a comparable type. Removing a listener whose dynamic type holds a
// slice, map or func panics.
type Listener interface {
	ListChanged(e *Event)
}

// FuncListener adapts a function to Listener. Build it with NewFuncListener
// and keep the pointer: listeners are removed by identity.
type FuncListener struct {
	fn func(e *Event)
}

// NewFuncListener wraps fn as a Listener.
func NewFuncListener(fn func(e *Event)) *FuncListener {
	return &FuncListener{fn: fn}
}

// ListChanged implements Listener.
func (l *FuncListener) ListChanged(e *Event) {
	l.fn(e)
}

// ListenerRegistry keeps listeners in registration order. The same listener
// may be registered more than once, and is then notified once per
// registration.
type ListenerRegistry struct {
	listeners []Listener
}

// Add appends l to the registry.
func (r *ListenerRegistry) Add(l Listener) {
	r.listeners = append(r.listeners, l)
}

// Remove drops the earliest registration of l and reports whether one
// was found.
func (r *ListenerRegistry) Remove(l Listener) bool {
	for i, existing := range r.listeners {
		if existing == l {
			r.listeners = append(r.listeners[:i:i], r.listeners[i+1:]...)

			return true
		}
	}

	return false
}

// Len returns the number of registrations.
func (r *ListenerRegistry) Len() int {
	return len(r.listeners)
}

// Snapshot returns the listeners in registration order. Registrations made
// while a snapshot is being notified take effect from the next event.
func (r *ListenerRegistry) Snapshot() []Listener {
	return r.listeners[:len(r.listeners):len(r.listeners)]
}
