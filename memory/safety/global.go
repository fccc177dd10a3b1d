package safety

import (
	"fmt"
	"sync"
	"sync/atomic"
)

var (
	defaultMu  sync.Mutex
	defaultMgr atomic.Pointer[Manager]
)

// Initialize creates the process-wide manager. Call it once at startup and
// pair it with Shutdown.
func Initialize(cfg Config) error {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultMgr.Load() != nil {
		return ErrAlreadyInitialized
	}
	m, err := NewManager(cfg)
	if err != nil {
		return fmt.Errorf("safety: initialize: %w", err)
	}
	defaultMgr.Store(m)
	return nil
}

// Default returns the process-wide manager, or nil before Initialize.
func Default() *Manager { return defaultMgr.Load() }

// Shutdown shuts the process-wide manager down and clears it so Initialize
// may be called again. Without an initialized manager it returns an empty
// report.
func Shutdown() LeakReport {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	m := defaultMgr.Swap(nil)
	if m == nil {
		return LeakReport{}
	}
	return m.Shutdown()
}

// Create issues a handle from the process-wide manager.
func Create() (Handle, error) {
	m := defaultMgr.Load()
	if m == nil {
		return Handle{}, ErrNotInitialized
	}
	return m.create(2)
}
