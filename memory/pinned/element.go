package pinned

import (
	"fmt"
	"unsafe"
)

// guardSalt is mixed into the stored pointer copy so a zeroed or overwritten
// Element does not pass Verify by accident.
const guardSalt uintptr = 0xA5C3_5A3C

// Element is a typed (index, pointer) pair into a Memory slot. Both halves are
// captured at fetch time and stay valid until the slot is returned.
//
// Elements are small values and are meant to be copied. The zero Element is nil.
type Element[T any] struct {
	index int
	ptr   *T
	guard uintptr
}

func newElement[T any](index int, ptr *T) Element[T] {
	return Element[T]{
		index: index,
		ptr:   ptr,
		guard: uintptr(unsafe.Pointer(ptr)) ^ guardSalt,
	}
}

// Index returns the global slot index.
func (e Element[T]) Index() int { return e.index }

// Ptr returns the slot address. It is nil for the zero Element.
func (e Element[T]) Ptr() *T { return e.ptr }

// IsNil reports whether e is the zero Element.
func (e Element[T]) IsNil() bool { return e.ptr == nil }

// Verify checks the pointer against its guard copy.
func (e Element[T]) Verify() error {
	if e.ptr == nil {
		return ErrNilElement
	}
	if uintptr(unsafe.Pointer(e.ptr))^guardSalt != e.guard {
		return fmt.Errorf("%w: slot %d", ErrCorruptElement, e.index)
	}
	return nil
}

func (e Element[T]) String() string {
	if e.ptr == nil {
		return "Element(nil)"
	}
	return fmt.Sprintf("Element(#%d @%p)", e.index, e.ptr)
}
