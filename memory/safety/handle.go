package safety

import (
	"cmp"
	"fmt"
	"sync/atomic"

	"github.com/virtushda/vlib/memory/pinned"
)

// invalidID is stored in a slot once its handle is invalidated. The ID
// generator never issues it.
const invalidID uint64 = 0

// Handle is a capability proving that some resource is still alive.
//
// A handle pairs a pinned slot with the generation ID written there when the
// handle was created. It is valid exactly while the slot still holds that ID.
// Handles are small values; copies share liveness, and disposing any copy
// invalidates all of them. The zero Handle is never valid.
type Handle struct {
	elem pinned.Element[uint64]
	id   uint64
	mgr  *Manager
}

// IsValid reports whether the handle has not been disposed.
func (h Handle) IsValid() bool {
	p := h.elem.Ptr()
	if p == nil {
		return false
	}
	m := h.mgr
	m.memMu.RLock()
	defer m.memMu.RUnlock()
	return !m.released && atomic.LoadUint64(p) == h.id
}

// CheckValid returns an error wrapping ErrInvalidHandle if the handle is not
// valid. It is available in every build.
func (h Handle) CheckValid() error {
	if !h.IsValid() {
		return fmt.Errorf("%w: %s", ErrInvalidHandle, h)
	}
	return nil
}

// ConditionalCheckValid panics if the handle is not valid. Built with the
// vlib_unchecked tag it does nothing.
func (h Handle) ConditionalCheckValid() {
	if CheckedBuild {
		if err := h.CheckValid(); err != nil {
			panic(err)
		}
	}
}

// TryInvalidate atomically swaps the slot's ID for the invalid sentinel.
// Among any number of concurrent callers on copies of the same handle,
// exactly one gets true; that caller returns the slot to the manager.
// Everyone else, including later callers, gets false and nothing happens.
func (h Handle) TryInvalidate() bool {
	p := h.elem.Ptr()
	if p == nil {
		return false
	}
	m := h.mgr
	m.memMu.RLock()
	defer m.memMu.RUnlock()
	if m.released {
		return false
	}
	if !atomic.CompareAndSwapUint64(p, h.id, invalidID) {
		m.staleDisposes.Add(1)
		return false
	}
	m.release(h)
	return true
}

// Dispose invalidates the handle. It reports whether this call did it.
func (h Handle) Dispose() bool { return h.TryInvalidate() }

// ID returns the generation ID captured at creation.
func (h Handle) ID() uint64 { return h.id }

// Slot returns the pinned slot index, or -1 for the zero Handle.
func (h Handle) Slot() int {
	if h.elem.IsNil() {
		return -1
	}
	return h.elem.Index()
}

// IsZero reports whether h is the zero Handle.
func (h Handle) IsZero() bool { return h.elem.IsNil() }

// Equal reports whether both handles name the same slot and generation.
func (h Handle) Equal(o Handle) bool {
	return h.mgr == o.mgr && h.elem.Ptr() == o.elem.Ptr() && h.id == o.id
}

// Compare orders handles by generation ID, which follows creation order.
// Zero handles sort first.
func (h Handle) Compare(o Handle) int {
	if hz, oz := h.IsZero(), o.IsZero(); hz || oz {
		switch {
		case hz && oz:
			return 0
		case hz:
			return -1
		default:
			return 1
		}
	}
	if c := cmp.Compare(int64(h.id), int64(o.id)); c != 0 {
		return c
	}
	return cmp.Compare(h.Slot(), o.Slot())
}

func (h Handle) String() string {
	if h.elem.IsNil() {
		return "Handle(nil)"
	}
	return fmt.Sprintf("Handle(slot=%d id=%#x)", h.elem.Index(), h.id)
}
