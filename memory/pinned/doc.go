// Package pinned provides a chunked slab allocator whose slots never move.
//
// # Overview
//
// Memory[T] owns up to maxChunks fixed-size chunks of chunkCapacity elements.
// A slot is addressed by a global index, decomposed as
//
//	chunk  = index / chunkCapacity
//	offset = index % chunkCapacity
//
// Chunks are created lazily on first use and are never resized, so a pointer
// handed out by Fetch remains valid until Dispose, no matter how many chunks
// are added later. Free slot indices are recycled through an indexpool.Pool.
//
// # Usage
//
//	mem, err := pinned.New[uint64](64, 1024, pinned.WithSource(pinned.OSSource))
//	if err != nil {
//	    return err
//	}
//	e, err := mem.Fetch()
//	if err != nil {
//	    return err // pinned.ErrCapacityExceeded once 64*1024 slots are taken
//	}
//	atomic.StoreUint64(e.Ptr(), 42)
//	_ = mem.Return(e)
//
// # Sources
//
// HeapSource chunks are ordinary Go slices. OSSource chunks are anonymous
// mappings (mmap / VirtualAlloc) outside the Go heap and are restricted to
// element types without Go pointers.
//
// # Thread Safety
//
// Fetch, Return, At, Owns and Stats are safe for concurrent use. The common
// Fetch path is lock-free; a mutex is held only while chunks are created or
// a chunk's covered length grows. Dispose must not race with other calls.
package pinned
