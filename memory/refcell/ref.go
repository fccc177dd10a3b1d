package refcell

import (
	"fmt"

	"github.com/virtushda/vlib/internal/logger"
	"github.com/virtushda/vlib/memory/pinned"
	"github.com/virtushda/vlib/memory/safety"
)

// Ref is a handle-guarded reference to a T. Copy it freely; all copies
// share the value and its lifetime. The zero Ref is disposed.
type Ref[T any] struct {
	handle safety.Handle
	ptr    *T

	// home and elem are set when the value lives in an Arena.
	home *pinned.Memory[T]
	elem pinned.Element[T]
}

// New allocates a copy of v on the Go heap and guards it with a handle
// from m. Leak reports attribute the Ref to New's caller.
func New[T any](m *safety.Manager, v T) (Ref[T], error) {
	h, err := m.CreateCaller(1)
	if err != nil {
		return Ref[T]{}, fmt.Errorf("refcell: %w", err)
	}
	p := new(T)
	*p = v
	return Ref[T]{handle: h, ptr: p}, nil
}

// MustNew is like New but panics on error.
func MustNew[T any](m *safety.Manager, v T) Ref[T] {
	h, err := m.CreateCaller(1)
	if err != nil {
		panic(fmt.Errorf("refcell: %w", err))
	}
	p := new(T)
	*p = v
	return Ref[T]{handle: h, ptr: p}
}

// IsValid reports whether the value has not been disposed.
func (r Ref[T]) IsValid() bool { return r.handle.IsValid() }

// Handle returns the guarding handle.
func (r Ref[T]) Handle() safety.Handle { return r.handle }

// Value returns a pointer to the shared value. Checked builds panic if the
// Ref was disposed; unchecked builds return the stale pointer.
func (r Ref[T]) Value() *T {
	r.handle.ConditionalCheckValid()
	return r.ptr
}

// Load returns a copy of the value, with the same checks as Value.
func (r Ref[T]) Load() T {
	r.handle.ConditionalCheckValid()
	return *r.ptr
}

// Store overwrites the value, with the same checks as Value.
func (r Ref[T]) Store(v T) {
	r.handle.ConditionalCheckValid()
	*r.ptr = v
}

// TryValue returns the pointer and true, or nil and false once disposed.
// It checks in every build.
func (r Ref[T]) TryValue() (*T, bool) {
	if !r.handle.IsValid() {
		return nil, false
	}
	return r.ptr, true
}

// TryLoad returns a copy of the value and true, or the zero T and false
// once disposed. It checks in every build.
func (r Ref[T]) TryLoad() (T, bool) {
	if !r.handle.IsValid() {
		var zero T
		return zero, false
	}
	return *r.ptr, true
}

// Dispose frees the value. Only the call that invalidates the handle frees
// it, so racing or repeated Dispose calls on copies are safe; the others
// return false.
func (r Ref[T]) Dispose() bool {
	if !r.handle.TryInvalidate() {
		return false
	}
	if r.home != nil {
		// Return zeroes the slot before recycling it.
		if err := r.home.Return(r.elem); err != nil {
			logger.L().Error("refcell: return arena slot", "slot", r.elem.Index(), "error", err)
		}
		return true
	}
	var zero T
	*r.ptr = zero
	return true
}

// Equal reports whether both Refs are guarded by the same handle.
func (r Ref[T]) Equal(o Ref[T]) bool { return r.handle.Equal(o.handle) }

// Compare orders Refs by their handles' creation order.
func (r Ref[T]) Compare(o Ref[T]) int { return r.handle.Compare(o.handle) }

func (r Ref[T]) String() string {
	return fmt.Sprintf("Ref[%T](%s)", *new(T), r.handle)
}
