package pinned

import "errors"

var (
	// ErrInvalidSize indicates a non-positive chunk count or chunk capacity.
	ErrInvalidSize = errors.New("pinned: chunk count and capacity must be positive")

	// ErrCapacityOverflow indicates maxChunks * chunkCapacity does not fit the slot index range.
	ErrCapacityOverflow = errors.New("pinned: total capacity overflows slot index range")

	// ErrCapacityExceeded indicates every slot up to the configured ceiling is taken.
	ErrCapacityExceeded = errors.New("pinned: capacity exceeded")

	// ErrPointerType indicates an element type holding Go pointers was paired with OS memory.
	ErrPointerType = errors.New("pinned: element type contains pointers; OS source requires pointer-free types")

	// ErrNilElement indicates use of the zero Element.
	ErrNilElement = errors.New("pinned: nil element")

	// ErrCorruptElement indicates an element whose pointer no longer matches its guard copy.
	ErrCorruptElement = errors.New("pinned: element pointer failed guard check")

	// ErrForeignElement indicates an element that does not point into this memory.
	ErrForeignElement = errors.New("pinned: element does not belong to this memory")

	// ErrOutstanding indicates Dispose was called while slots are still taken.
	ErrOutstanding = errors.New("pinned: slots still in use")

	// ErrDisposed indicates use of memory after Dispose.
	ErrDisposed = errors.New("pinned: memory disposed")
)
