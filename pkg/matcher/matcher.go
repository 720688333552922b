// Package matcher provides predicates over list elements.
package matcher

// Matcher decides whether an element qualifies.
type Matcher[T any] interface {
	Matches(item T) bool
}

// Func adapts a function to Matcher.
type Func[T any] func(item T) bool

// Matches implements Matcher.
func (f Func[T]) Matches(item T) bool {
	return f(item)
}

type constant[T any] bool

func (c constant[T]) Matches(T) bool {
	return bool(c)
}

// False returns a matcher that never matches.
func False[T any]() Matcher[T] {
	return constant[T](false)
}

// True returns a matcher that matches everything.
func True[T any]() Matcher[T] {
	return constant[T](true)
}

// Not inverts m.
func Not[T any](m Matcher[T]) Matcher[T] {
	return Func[T](func(item T) bool { return !m.Matches(item) })
}

// Equal matches elements equal to value.
func Equal[T comparable](value T) Matcher[T] {
	return Func[T](func(item T) bool { return item == value })
}

// In matches elements equal to any of values.
func In[T comparable](values ...T) Matcher[T] {
	set := make(map[T]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}

	return Func[T](func(item T) bool {
		_, ok := set[item]

		return ok
	})
}
