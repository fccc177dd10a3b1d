package pinned

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/virtushda/vlib/internal/buf"
	"github.com/virtushda/vlib/memory/indexpool"
)

// Memory is a slab allocator handing out stable-address slots of type T.
//
// Slots live in fixed chunks of chunkCapacity elements. Chunks are created on
// demand, up to maxChunks, and are never resized or moved, so a slot address
// stays valid until Dispose. The outer chunk index is allocated once at New.
type Memory[T any] struct {
	perChunk  int
	maxChunks int
	capacity  int
	source    Source

	pool   *indexpool.Pool
	chunks []atomic.Pointer[chunk[T]]

	// mu guards chunk creation, length extension and Dispose.
	mu       sync.Mutex
	created  atomic.Int64
	disposed atomic.Bool
}

type options struct {
	source Source
}

// Option configures a Memory.
type Option func(*options)

// WithSource selects the chunk memory source. The default is HeapSource.
func WithSource(s Source) Option {
	return func(o *options) { o.source = s }
}

// New creates a Memory with room for maxChunks * chunkCapacity slots.
// No chunk memory is allocated until the first Fetch.
func New[T any](maxChunks, chunkCapacity int, opts ...Option) (*Memory[T], error) {
	if maxChunks <= 0 || chunkCapacity <= 0 {
		return nil, fmt.Errorf("%w: maxChunks=%d chunkCapacity=%d", ErrInvalidSize, maxChunks, chunkCapacity)
	}
	capacity, err := buf.CapacityFor(maxChunks, chunkCapacity)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCapacityOverflow, err)
	}

	o := options{source: HeapSource}
	for _, opt := range opts {
		opt(&o)
	}
	if o.source == OSSource && hasPointers(reflect.TypeFor[T]()) {
		return nil, fmt.Errorf("%w: %s", ErrPointerType, reflect.TypeFor[T]())
	}

	return &Memory[T]{
		perChunk:  chunkCapacity,
		maxChunks: maxChunks,
		capacity:  capacity,
		source:    o.source,
		pool:      indexpool.New(capacity),
		chunks:    make([]atomic.Pointer[chunk[T]], maxChunks),
	}, nil
}

// MustNew is like New but panics on error. Use for statically known sizes.
func MustNew[T any](maxChunks, chunkCapacity int, opts ...Option) *Memory[T] {
	m, err := New[T](maxChunks, chunkCapacity, opts...)
	if err != nil {
		panic(err)
	}
	return m
}

// Fetch takes a free slot and returns its element. The slot holds the zero
// value the first time it is handed out; reused slots were zeroed on Return.
//
// Fetch is safe for concurrent use. It only locks when the slot lies beyond
// the chunks and lengths created so far.
func (m *Memory[T]) Fetch() (Element[T], error) {
	if m.disposed.Load() {
		return Element[T]{}, ErrDisposed
	}
	i, err := m.pool.Fetch()
	if err != nil {
		if errors.Is(err, indexpool.ErrExhausted) {
			return Element[T]{}, fmt.Errorf("%w: %d slots (%d chunks x %d)",
				ErrCapacityExceeded, m.capacity, m.maxChunks, m.perChunk)
		}
		return Element[T]{}, err
	}

	p, err := m.slot(i)
	if err != nil {
		_ = m.pool.Return(i)
		return Element[T]{}, err
	}
	return newElement(i, p), nil
}

// MustFetch is like Fetch but panics when the capacity ceiling is hit.
func (m *Memory[T]) MustFetch() Element[T] {
	e, err := m.Fetch()
	if err != nil {
		panic(err)
	}
	return e
}

// Return zeroes the slot and makes it available to later Fetch calls.
func (m *Memory[T]) Return(e Element[T]) error {
	if err := m.check(e); err != nil {
		return err
	}
	var zero T
	*e.ptr = zero
	return m.pool.Return(e.index)
}

// ReturnZeroed makes the slot available without writing to it. The caller
// guarantees the slot already holds the zero value, typically because it was
// cleared with an atomic operation that concurrent readers also observe.
func (m *Memory[T]) ReturnZeroed(e Element[T]) error {
	if err := m.check(e); err != nil {
		return err
	}
	return m.pool.Return(e.index)
}

func (m *Memory[T]) check(e Element[T]) error {
	if err := e.Verify(); err != nil {
		return err
	}
	if !m.Owns(e) {
		return fmt.Errorf("%w: slot %d", ErrForeignElement, e.index)
	}
	return nil
}

// Owns reports whether e points at the slot its index names in this memory.
func (m *Memory[T]) Owns(e Element[T]) bool {
	if e.ptr == nil || !buf.InRange(e.index, m.capacity) {
		return false
	}
	p, ok := m.At(e.index)
	return ok && p == e.ptr
}

// At returns the address of slot i if it has been handed out at least once.
func (m *Memory[T]) At(i int) (*T, bool) {
	if !buf.InRange(i, m.capacity) {
		return nil, false
	}
	ci, off := buf.Split(i, m.perChunk)
	c := m.chunks[ci].Load()
	if c == nil || int64(off) >= c.length.Load() {
		return nil, false
	}
	return &c.items[off], true
}

func (m *Memory[T]) slot(i int) (*T, error) {
	ci, off := buf.Split(i, m.perChunk)
	if c := m.chunks[ci].Load(); c != nil && int64(off) < c.length.Load() {
		return &c.items[off], nil
	}
	return m.grow(ci, off)
}

// grow creates every missing chunk up to ci and extends chunk ci to cover off.
func (m *Memory[T]) grow(ci, off int) (*T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.disposed.Load() {
		return nil, ErrDisposed
	}
	for n := int(m.created.Load()); n <= ci; n++ {
		c, err := newChunk[T](m.source, m.perChunk)
		if err != nil {
			return nil, fmt.Errorf("pinned: create chunk %d: %w", n, err)
		}
		m.chunks[n].Store(c)
		m.created.Store(int64(n + 1))
	}

	c := m.chunks[ci].Load()
	if cur := int(c.length.Load()); off >= cur {
		var zero T
		for j := cur; j <= off; j++ {
			c.items[j] = zero
		}
		c.length.Store(int64(off + 1))
	}
	return &c.items[off], nil
}

// Taken reports how many slots are currently handed out (diagnostic snapshot).
func (m *Memory[T]) Taken() int { return m.pool.Taken() }

// Capacity returns the configured slot ceiling.
func (m *Memory[T]) Capacity() int { return m.capacity }

// ChunkCapacity returns the number of slots per chunk.
func (m *Memory[T]) ChunkCapacity() int { return m.perChunk }

// Chunks returns how many chunks have been created.
func (m *Memory[T]) Chunks() int { return int(m.created.Load()) }

// Disposed reports whether Dispose has released the chunks.
func (m *Memory[T]) Disposed() bool { return m.disposed.Load() }

// Dispose releases every chunk. It refuses, freeing nothing, while any slot
// is still taken. Calling Dispose again is a no-op.
func (m *Memory[T]) Dispose() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.disposed.Load() {
		return nil
	}
	if taken := m.pool.Taken(); taken > 0 {
		return fmt.Errorf("%w: %d of %d", ErrOutstanding, taken, m.capacity)
	}

	var errs []error
	for i := range int(m.created.Load()) {
		c := m.chunks[i].Swap(nil)
		if c != nil && c.release != nil {
			if err := c.release(); err != nil {
				errs = append(errs, fmt.Errorf("pinned: release chunk %d: %w", i, err))
			}
		}
	}
	m.disposed.Store(true)
	return errors.Join(errs...)
}
