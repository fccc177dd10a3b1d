// Package indexpool hands out compact integer indices and recycles returned ones.
//
// A Pool keeps the issued index space as small as possible: returned indices
// are reissued (most recently returned first) before any never-used index is
// handed out. All methods are safe for concurrent use.
package indexpool

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Pool tracks which indices in [0, max) are taken.
//
// Every index is in exactly one state: never issued (>= Issued()), issued and
// live, or returned and waiting on the free stack.
type Pool struct {
	max int

	// next is the lowest index that has never been issued.
	next atomic.Int64

	mu   sync.Mutex
	free []int

	// freeLen mirrors len(free) for lock-free observation.
	freeLen atomic.Int64
	reuses  atomic.Uint64
}

// New creates a pool issuing indices in [0, max).
func New(max int) *Pool {
	if max < 0 {
		max = 0
	}
	return &Pool{max: max}
}

// Fetch returns a free index, preferring previously returned ones.
func (p *Pool) Fetch() (int, error) {
	if p.freeLen.Load() > 0 {
		p.mu.Lock()
		if n := len(p.free); n > 0 {
			i := p.free[n-1]
			p.free = p.free[:n-1]
			p.freeLen.Store(int64(n - 1))
			p.mu.Unlock()
			p.reuses.Add(1)
			return i, nil
		}
		p.mu.Unlock()
	}

	for {
		n := p.next.Load()
		if n >= int64(p.max) {
			return 0, fmt.Errorf("%w (max %d)", ErrExhausted, p.max)
		}
		if p.next.CompareAndSwap(n, n+1) {
			return int(n), nil
		}
	}
}

// Return puts i back on the free stack.
//
// Returning the same index twice is not detected; callers must gate returns
// themselves.
func (p *Pool) Return(i int) error {
	if i < 0 || int64(i) >= p.next.Load() {
		return fmt.Errorf("%w: %d", ErrBadIndex, i)
	}
	p.mu.Lock()
	p.free = append(p.free, i)
	p.freeLen.Store(int64(len(p.free)))
	p.mu.Unlock()
	return nil
}

// Taken reports issued minus returned indices. The value is a snapshot and
// may be stale under concurrent mutation; use it for diagnostics only.
func (p *Pool) Taken() int {
	taken := p.next.Load() - p.freeLen.Load()
	if taken < 0 {
		return 0
	}
	return int(taken)
}

// Issued reports how many distinct indices have ever been handed out.
func (p *Pool) Issued() int { return int(p.next.Load()) }

// FreeCount reports how many returned indices are waiting for reuse.
func (p *Pool) FreeCount() int { return int(p.freeLen.Load()) }

// Max returns the exclusive upper bound of issued indices.
func (p *Pool) Max() int { return p.max }

// Reuses reports how many Fetch calls were served from the free stack.
func (p *Pool) Reuses() uint64 { return p.reuses.Load() }
