package safety

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"

	"github.com/virtushda/vlib/internal/logger"
	"github.com/virtushda/vlib/memory/pinned"
)

// generation issues IDs for every manager in the process. It starts at the
// negative extreme so IDs, read as int64, increase with creation order.
var generation atomic.Int64

func init() {
	generation.Store(math.MinInt64)
}

func nextID() uint64 {
	for {
		if id := uint64(generation.Add(1)); id != invalidID {
			return id
		}
	}
}

// Manager issues and retires Handles. Each handle occupies one uint64 slot
// in the manager's pinned memory; the slot holds the handle's generation ID
// while it is live and zero afterwards.
//
// All methods are safe for concurrent use, except that Shutdown must not
// race with Create.
type Manager struct {
	cfg   Config
	mem   *pinned.Memory[uint64]
	leaks *leakTracker // nil unless Config.TrackLeaks

	closed atomic.Bool

	// memMu is held for reading around every slot access by a Handle and
	// for writing while Shutdown releases the slot memory.
	memMu    sync.RWMutex
	released bool // guarded by memMu

	created       atomic.Uint64
	disposed      atomic.Uint64
	staleDisposes atomic.Uint64

	shutdownOnce sync.Once
	report       LeakReport
}

// NewManager creates a manager from cfg.
func NewManager(cfg Config) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	mem, err := pinned.New[uint64](cfg.MaxChunks, cfg.ChunkSize, pinned.WithSource(cfg.Source))
	if err != nil {
		return nil, fmt.Errorf("safety: allocate id memory: %w", err)
	}
	m := &Manager{cfg: cfg, mem: mem}
	if cfg.TrackLeaks {
		m.leaks = newLeakTracker()
	}
	return m, nil
}

func (m *Manager) log() *slog.Logger {
	if m.cfg.Logger != nil {
		return m.cfg.Logger
	}
	return logger.L()
}

// Create issues a new live handle.
func (m *Manager) Create() (Handle, error) {
	return m.create(2)
}

// CreateCaller is Create for wrappers: skip is the number of wrapper frames
// between the caller to attribute in leak reports and CreateCaller.
func (m *Manager) CreateCaller(skip int) (Handle, error) {
	return m.create(2 + skip)
}

// MustCreate is like Create but panics on error.
func (m *Manager) MustCreate() Handle {
	h, err := m.create(2)
	if err != nil {
		panic(err)
	}
	return h
}

// create fetches a slot and stamps it with a fresh ID. skip counts frames
// from create to the caller recorded as the creation site.
func (m *Manager) create(skip int) (Handle, error) {
	if m.closed.Load() {
		return Handle{}, ErrShutdown
	}
	e, err := m.mem.Fetch()
	if err != nil {
		return Handle{}, fmt.Errorf("safety: create handle: %w", err)
	}
	id := nextID()
	atomic.StoreUint64(e.Ptr(), id)
	if m.leaks != nil {
		m.leaks.record(id, e.Index(), skip)
	}
	m.created.Add(1)
	return Handle{elem: e, id: id, mgr: m}, nil
}

// release returns the slot of a handle whose ID was just swapped out.
func (m *Manager) release(h Handle) {
	if m.leaks != nil {
		m.leaks.forget(h.id)
	}
	if err := m.mem.ReturnZeroed(h.elem); err != nil {
		m.log().Error("safety: return handle slot", "slot", h.elem.Index(), "error", err)
		return
	}
	m.disposed.Add(1)
}

// Outstanding reports how many handles are live (diagnostic snapshot).
func (m *Manager) Outstanding() int { return m.mem.Taken() }

// Capacity returns the maximum number of simultaneously live handles.
func (m *Manager) Capacity() int { return m.mem.Capacity() }

// TrackingLeaks reports whether creation sites are recorded.
func (m *Manager) TrackingLeaks() bool { return m.leaks != nil }

// IsShutdown reports whether Shutdown has been called.
func (m *Manager) IsShutdown() bool { return m.closed.Load() }

// Shutdown stops the manager. When handles are still live it logs an error
// with their count and, if tracked, their creation sites, and deliberately
// leaks the slot memory so outstanding copies stay readable. Otherwise the
// slot memory is released; handle checks running concurrently finish before
// it is unmapped. Later calls return the first report.
func (m *Manager) Shutdown() LeakReport {
	m.shutdownOnce.Do(func() {
		m.closed.Store(true)
		m.report = m.releaseMemory()

		log := m.log()
		r := m.report
		switch {
		case r.Leaked():
			log.Error("safety: handles leaked at shutdown",
				"count", r.Count,
				"tracked", m.leaks != nil)
			for _, s := range r.Sites {
				log.Error("safety: leaked handle",
					"id", s.ID, "slot", s.Slot, "func", s.Func, "file", s.File, "line", s.Line)
			}
		case r.Err != nil:
			log.Error("safety: release id memory", "error", r.Err)
		}
	})
	return m.report
}

// releaseMemory disposes the slot memory unless handles are outstanding, in
// which case it returns their count and sites and keeps the memory mapped.
func (m *Manager) releaseMemory() LeakReport {
	m.memMu.Lock()
	defer m.memMu.Unlock()

	err := m.mem.Dispose()
	if errors.Is(err, pinned.ErrOutstanding) {
		r := LeakReport{Count: max(m.mem.Taken(), 1)}
		if m.leaks != nil {
			r.Sites = m.leaks.snapshot()
		}
		return r
	}
	// Any other failure still leaves the chunks detached from the memory.
	m.released = true
	if err != nil {
		return LeakReport{Err: err}
	}
	return LeakReport{}
}

// MemoryReleased reports whether Shutdown unmapped the slot memory.
func (m *Manager) MemoryReleased() bool {
	m.memMu.RLock()
	defer m.memMu.RUnlock()
	return m.released
}
