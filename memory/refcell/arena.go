package refcell

import (
	"fmt"

	"github.com/virtushda/vlib/internal/logger"
	"github.com/virtushda/vlib/memory/pinned"
	"github.com/virtushda/vlib/memory/safety"
)

// Arena allocates Ref values from pinned chunks instead of the Go heap.
// Disposed values give their slot back for reuse.
type Arena[T any] struct {
	mgr *safety.Manager
	mem *pinned.Memory[T]
}

// NewArena creates an arena holding up to maxChunks * chunkCapacity live
// values. opts are passed to pinned.New; pinned.OSSource requires a
// pointer-free T.
func NewArena[T any](m *safety.Manager, maxChunks, chunkCapacity int, opts ...pinned.Option) (*Arena[T], error) {
	mem, err := pinned.New[T](maxChunks, chunkCapacity, opts...)
	if err != nil {
		return nil, fmt.Errorf("refcell: arena: %w", err)
	}
	return &Arena[T]{mgr: m, mem: mem}, nil
}

// New stores a copy of v in the arena and guards it with a fresh handle.
func (a *Arena[T]) New(v T) (Ref[T], error) {
	e, err := a.mem.Fetch()
	if err != nil {
		return Ref[T]{}, fmt.Errorf("refcell: arena: %w", err)
	}
	h, err := a.mgr.CreateCaller(1)
	if err != nil {
		if rerr := a.mem.Return(e); rerr != nil {
			logger.L().Error("refcell: return arena slot", "slot", e.Index(), "error", rerr)
		}
		return Ref[T]{}, fmt.Errorf("refcell: %w", err)
	}
	*e.Ptr() = v
	return Ref[T]{handle: h, ptr: e.Ptr(), home: a.mem, elem: e}, nil
}

// Live reports how many arena values have not been disposed.
func (a *Arena[T]) Live() int { return a.mem.Taken() }

// Stats returns the arena's slot figures.
func (a *Arena[T]) Stats() pinned.Stats { return a.mem.Stats() }

// Close releases the arena's chunks. It fails with pinned.ErrOutstanding
// while any value is still live.
func (a *Arena[T]) Close() error {
	return a.mem.Dispose()
}
