package safety

import (
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandle_UniqueIDs(t *testing.T) {
	m, _ := newTestManager(t, 4, 64, false)

	seen := make(map[uint64]bool)
	var handles []Handle
	for range 200 {
		h, err := m.Create()
		require.NoError(t, err)
		require.False(t, seen[h.ID()], "duplicate id %#x", h.ID())
		seen[h.ID()] = true
		handles = append(handles, h)
	}
	require.True(t, slices.IsSortedFunc(handles, Handle.Compare), "ids follow creation order")
}

func TestHandle_ValidAfterCreateInvalidAfterDispose(t *testing.T) {
	m, _ := newTestManager(t, 1, 8, false)

	h, err := m.Create()
	require.NoError(t, err)
	assert.True(t, h.IsValid())
	assert.NoError(t, h.CheckValid())
	assert.NotPanics(t, h.ConditionalCheckValid)

	assert.True(t, h.Dispose())
	assert.False(t, h.IsValid())
	assert.ErrorIs(t, h.CheckValid(), ErrInvalidHandle)
	assert.False(t, h.Dispose(), "second dispose is a no-op")
	assert.Equal(t, 0, m.Outstanding())
}

func TestHandle_CopiesShareLiveness(t *testing.T) {
	m, _ := newTestManager(t, 1, 8, false)

	h, err := m.Create()
	require.NoError(t, err)
	cp := h
	require.True(t, cp.Equal(h))

	require.True(t, cp.TryInvalidate())
	assert.False(t, h.IsValid())
	assert.False(t, h.TryInvalidate())
}

func TestHandle_ZeroValue(t *testing.T) {
	var h Handle
	assert.True(t, h.IsZero())
	assert.False(t, h.IsValid())
	assert.False(t, h.Dispose())
	assert.Equal(t, -1, h.Slot())
	assert.Equal(t, "Handle(nil)", h.String())
	assert.ErrorIs(t, h.CheckValid(), ErrInvalidHandle)
}

func TestHandle_ConditionalCheckValidPanics(t *testing.T) {
	if !CheckedBuild {
		t.Skip("assertions compiled out")
	}
	m, _ := newTestManager(t, 1, 8, false)
	h, err := m.Create()
	require.NoError(t, err)
	h.Dispose()

	perr := recoverError(h.ConditionalCheckValid)
	require.ErrorIs(t, perr, ErrInvalidHandle)

	var zero Handle
	require.ErrorIs(t, recoverError(zero.ConditionalCheckValid), ErrInvalidHandle)
}

// TestHandle_ExactlyOnceDisposeRace disposes one handle from many goroutines.
func TestHandle_ExactlyOnceDisposeRace(t *testing.T) {
	const racers = 16
	m, _ := newTestManager(t, 1, 16, false)

	for round := range 50 {
		h, err := m.Create()
		require.NoError(t, err)

		var wg sync.WaitGroup
		results := make([]bool, racers)
		start := make(chan struct{})
		for i := range racers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				results[i] = h.TryInvalidate()
			}()
		}
		close(start)
		wg.Wait()

		wins := 0
		for _, ok := range results {
			if ok {
				wins++
			}
		}
		require.Equal(t, 1, wins, "round %d: exactly one winner", round)
		require.Equal(t, 0, m.Outstanding())
		require.Equal(t, 1, m.Stats().Memory.Free, "slot returned exactly once")
	}

	st := m.Stats()
	assert.Equal(t, uint64(50), st.Created)
	assert.Equal(t, uint64(50), st.Disposed)
	assert.Equal(t, uint64(50*(racers-1)), st.StaleDisposes)
	assert.Equal(t, uint64(49), st.Memory.Reuses, "every round after the first reuses the single returned slot")
}

func TestHandle_SlotReuseGetsFreshID(t *testing.T) {
	m, _ := newTestManager(t, 1, 8, false)

	old, err := m.Create()
	require.NoError(t, err)
	stale := old
	require.True(t, old.Dispose())

	fresh, err := m.Create()
	require.NoError(t, err)
	require.Equal(t, old.Slot(), fresh.Slot(), "freed slot is reused")
	assert.NotEqual(t, old.ID(), fresh.ID())
	assert.True(t, fresh.IsValid())
	assert.False(t, stale.IsValid(), "stale copy must not revive on slot reuse")
	assert.False(t, stale.Dispose(), "stale copy cannot dispose the new occupant")
	assert.True(t, fresh.IsValid())
	assert.False(t, stale.Equal(fresh))
}

// TestHandle_Scenario_ABCD walks the create A,B,C / dispose B / create D case.
func TestHandle_Scenario_ABCD(t *testing.T) {
	m, _ := newTestManager(t, 2, 4, false)

	a := m.MustCreate()
	b := m.MustCreate()
	c := m.MustCreate()
	bSlot := b.Slot()

	require.True(t, b.Dispose())
	d := m.MustCreate()

	assert.Equal(t, bSlot, d.Slot(), "D reuses B's slot")
	assert.True(t, a.IsValid())
	assert.True(t, c.IsValid())
	assert.False(t, b.IsValid())
	assert.True(t, d.IsValid())
	assert.False(t, d.Equal(b))
	assert.NotEqual(t, b.ID(), d.ID())
	assert.Equal(t, 1, d.Compare(b), "D was created after B")
	assert.Equal(t, -1, a.Compare(c))
	assert.Equal(t, 0, a.Compare(a))
	assert.Equal(t, -1, Handle{}.Compare(a), "zero handle sorts first")
	assert.Equal(t, 1, a.Compare(Handle{}))
}

func TestHandle_ConcurrentCreateDisposeIsValid(t *testing.T) {
	const workers = 8
	m, _ := newTestManager(t, 8, 64, true)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 500 {
				h, err := m.Create()
				if err != nil {
					t.Errorf("Create: %v", err)
					return
				}
				if !h.IsValid() {
					t.Errorf("fresh handle invalid: %s", h)
					return
				}
				if !h.Dispose() {
					t.Errorf("sole owner lost dispose: %s", h)
					return
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, m.Outstanding())
	assert.LessOrEqual(t, m.Stats().Memory.Issued, workers, "slots recycled, index space stays compact")
	assert.False(t, m.Shutdown().Leaked())
}
