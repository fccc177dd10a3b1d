package pinned

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type vec3 struct {
	X, Y, Z float32
}

// TestMemory_StableAddressesAcrossGrowth fetches one more slot than a chunk
// holds and checks the first chunk's pointers did not move.
func TestMemory_StableAddressesAcrossGrowth(t *testing.T) {
	for _, src := range []Source{HeapSource, OSSource} {
		t.Run(src.String(), func(t *testing.T) {
			const per = 8
			mem, err := New[uint64](4, per, WithSource(src))
			require.NoError(t, err)

			first := make([]Element[uint64], per)
			addrs := make([]*uint64, per)
			for i := range per {
				first[i], err = mem.Fetch()
				require.NoError(t, err)
				addrs[i] = first[i].Ptr()
				*addrs[i] = uint64(i + 100)
			}
			require.Equal(t, 1, mem.Chunks())

			grown, err := mem.Fetch()
			require.NoError(t, err)
			require.Equal(t, per, grown.Index())
			require.Equal(t, 2, mem.Chunks(), "slot C+1 must create a second chunk")

			for i := range per {
				p, ok := mem.At(i)
				require.True(t, ok)
				assert.Same(t, addrs[i], p, "slot %d moved after growth", i)
				assert.Equal(t, uint64(i+100), *p)
			}

			for _, e := range append(first, grown) {
				require.NoError(t, mem.Return(e))
			}
			require.NoError(t, mem.Dispose())
		})
	}
}

func TestMemory_CapacityCeiling(t *testing.T) {
	mem, err := New[int32](3, 4)
	require.NoError(t, err)

	for i := range 12 {
		e, err := mem.Fetch()
		require.NoError(t, err, "fetch %d inside the ceiling", i)
		require.Equal(t, i, e.Index())
	}

	_, err = mem.Fetch()
	require.ErrorIs(t, err, ErrCapacityExceeded)
	_, err = mem.Fetch()
	require.ErrorIs(t, err, ErrCapacityExceeded, "failure is deterministic")
	require.Panics(t, func() { mem.MustFetch() })
	assert.Equal(t, 3, mem.Chunks())
}

func TestMemory_NewValidation(t *testing.T) {
	_, err := New[int](0, 4)
	require.ErrorIs(t, err, ErrInvalidSize)
	_, err = New[int](4, -1)
	require.ErrorIs(t, err, ErrInvalidSize)
	_, err = New[int](1<<20, 1<<20)
	require.ErrorIs(t, err, ErrCapacityOverflow)
	require.Panics(t, func() { MustNew[int](0, 0) })
}

func TestMemory_OSSourceRejectsPointers(t *testing.T) {
	_, err := New[*int](1, 4, WithSource(OSSource))
	require.ErrorIs(t, err, ErrPointerType)
	_, err = New[struct {
		A int
		B []byte
	}](1, 4, WithSource(OSSource))
	require.ErrorIs(t, err, ErrPointerType)
	_, err = New[string](1, 4, WithSource(OSSource))
	require.ErrorIs(t, err, ErrPointerType)

	_, err = New[vec3](1, 4, WithSource(OSSource))
	require.NoError(t, err)
	_, err = New[[4]uint64](1, 4, WithSource(OSSource))
	require.NoError(t, err)

	// Heap chunks accept anything.
	_, err = New[*int](1, 4)
	require.NoError(t, err)
}

func TestMemory_LazyChunks(t *testing.T) {
	mem, err := New[vec3](16, 32)
	require.NoError(t, err)
	assert.Equal(t, 0, mem.Chunks(), "no chunk memory before first fetch")

	_, ok := mem.At(0)
	assert.False(t, ok, "uncovered slot has no address")

	e, err := mem.Fetch()
	require.NoError(t, err)
	assert.Equal(t, 1, mem.Chunks())
	st := mem.Stats()
	assert.Equal(t, 1, st.Covered)
	assert.Equal(t, 1, st.Taken)
	assert.Equal(t, 16*32, st.Capacity)
	assert.Equal(t, uintptr(12), st.ElementSize)
	require.NoError(t, mem.Return(e))
}

func TestMemory_ReturnZeroesAndReuses(t *testing.T) {
	mem, err := New[vec3](2, 4)
	require.NoError(t, err)

	e, err := mem.Fetch()
	require.NoError(t, err)
	*e.Ptr() = vec3{1, 2, 3}
	require.NoError(t, mem.Return(e))

	again, err := mem.Fetch()
	require.NoError(t, err)
	assert.Equal(t, e.Index(), again.Index(), "returned slot is reused first")
	assert.Same(t, e.Ptr(), again.Ptr())
	assert.Equal(t, vec3{}, *again.Ptr(), "reused slot starts zeroed")
	assert.Equal(t, uint64(1), mem.Stats().Reuses)
}

func TestMemory_ReturnRejectsForeignAndNil(t *testing.T) {
	a, err := New[uint64](1, 4)
	require.NoError(t, err)
	b, err := New[uint64](1, 4)
	require.NoError(t, err)

	ea, err := a.Fetch()
	require.NoError(t, err)
	_, err = b.Fetch()
	require.NoError(t, err)

	require.ErrorIs(t, b.Return(ea), ErrForeignElement)
	require.ErrorIs(t, a.Return(Element[uint64]{}), ErrNilElement)
	assert.True(t, a.Owns(ea))
	assert.False(t, b.Owns(ea))
}

func TestElement_VerifyDetectsTamper(t *testing.T) {
	mem, err := New[uint64](1, 4)
	require.NoError(t, err)
	e, err := mem.Fetch()
	require.NoError(t, err)
	require.NoError(t, e.Verify())

	bad := e
	bad.guard ^= 0x10
	require.ErrorIs(t, bad.Verify(), ErrCorruptElement)
	require.ErrorIs(t, mem.Return(bad), ErrCorruptElement)

	var zero Element[uint64]
	assert.True(t, zero.IsNil())
	assert.Equal(t, "Element(nil)", zero.String())
}

func TestMemory_DisposeRefusesOutstanding(t *testing.T) {
	mem, err := New[uint64](2, 2, WithSource(OSSource))
	require.NoError(t, err)

	e, err := mem.Fetch()
	require.NoError(t, err)
	require.ErrorIs(t, mem.Dispose(), ErrOutstanding)
	assert.False(t, mem.Disposed())

	require.NoError(t, mem.Return(e))
	require.NoError(t, mem.Dispose())
	require.NoError(t, mem.Dispose(), "second Dispose is a no-op")
	assert.True(t, mem.Disposed())

	_, err = mem.Fetch()
	require.ErrorIs(t, err, ErrDisposed)
}

func TestMemory_ConcurrentFetchDistinctSlots(t *testing.T) {
	const (
		workers   = 8
		perWorker = 300
	)
	mem, err := New[uint64](64, 64, WithSource(OSSource))
	require.NoError(t, err)

	var mu sync.Mutex
	seen := make(map[*uint64]int)
	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perWorker {
				e, err := mem.Fetch()
				if err != nil {
					t.Errorf("Fetch: %v", err)
					return
				}
				*e.Ptr() = uint64(w)
				mu.Lock()
				seen[e.Ptr()]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Len(t, seen, workers*perWorker)
	for p, n := range seen {
		require.Equal(t, 1, n, "slot %p handed out twice", p)
	}
	st := mem.Stats()
	assert.Equal(t, workers*perWorker, st.Taken)
	assert.Equal(t, workers*perWorker, st.Covered)
}

func TestSource_String(t *testing.T) {
	assert.Equal(t, "heap", HeapSource.String())
	assert.Equal(t, "os", OSSource.String())
	assert.Equal(t, "Source(9)", Source(9).String())
}
