// Package arena implements the single bump allocator a compilation session
// uses to own every AST node, program, function, parameter, program
// instance, and stub object it creates.
//
// All compiler-owned pointers become invalid in bulk once the owning
// session calls Reset; back-references between arena-allocated objects
// are non-owning.
package arena

// Arena hands out pointer-stable values of T from a single growing slice.
// It is not safe for concurrent use; a compilation session is
// single-threaded.
type Arena[T any] struct {
	items []*T
}

// New returns an empty arena with room for capacity items.
func New[T any](capacity int) *Arena[T] {
	return &Arena[T]{items: make([]*T, 0, capacity)}
}

// Alloc appends a zero-valued T and returns a pointer to it. The pointer
// stays valid for the arena's lifetime; it must not be retained past
// Reset.
func (a *Arena[T]) Alloc() *T {
	a.items = append(a.items, new(T))
	return a.items[len(a.items)-1]
}

// AllocValue appends a copy of v and returns a pointer to the copy.
func (a *Arena[T]) AllocValue(v T) *T {
	p := a.Alloc()
	*p = v
	return p
}

// Len returns the number of objects allocated since the last Reset.
func (a *Arena[T]) Len() int {
	return len(a.items)
}

// At returns the i-th allocated object, in allocation order.
func (a *Arena[T]) At(i int) *T {
	return a.items[i]
}

// Reset releases every object the arena owns in bulk. Any pointer obtained
// from Alloc/AllocValue before this call is no longer valid to dereference.
func (a *Arena[T]) Reset() {
	a.items = a.items[:0]
}

// Session owns one bump arena per node family allocated during a single
// compilation and releases all of them together when the compilation
// ends.
type Session struct {
	closers []func()
}

// Track registers an arena (or anything with a Reset method) to be cleared
// when the session ends.
func Track(s *Session, reset func()) {
	s.closers = append(s.closers, reset)
}

// NewSession returns an empty compilation session.
func NewSession() *Session {
	return &Session{}
}

// End releases every tracked arena. Callers typically defer it
// immediately after NewSession so it runs on every exit path.
func (s *Session) End() {
	for _, closer := range s.closers {
		closer()
	}
	s.closers = nil
}
