package stress

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/virtushda/vlib/memory/safety"
)

func newManager(t *testing.T) *safety.Manager {
	t.Helper()
	cfg := safety.DefaultConfig()
	cfg.MaxChunks, cfg.ChunkSize = 8, 512
	m, err := safety.NewManager(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { m.Shutdown() })
	return m
}

func TestDisposeRace(t *testing.T) {
	m := newManager(t)
	res, err := DisposeRace(context.Background(), m, RaceConfig{Handles: 200, Racers: 8})
	require.NoError(t, err)

	assert.Equal(t, uint64(200), res.Wins)
	assert.Equal(t, uint64(200*7), res.Losses)
	assert.Equal(t, 0, m.Outstanding())
	assert.Equal(t, uint64(200), m.Stats().Disposed)
}

func TestDisposeRace_Cancelled(t *testing.T) {
	m := newManager(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := DisposeRace(ctx, m, RaceConfig{Handles: 10, Racers: 2})
	require.ErrorIs(t, err, context.Canceled)
}

func TestDisposeRace_DeadlineKeepsElapsed(t *testing.T) {
	m := newManager(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	res, err := DisposeRace(ctx, m, RaceConfig{Handles: 1 << 30, Racers: 2})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Positive(t, res.Wins)
	assert.GreaterOrEqual(t, res.Elapsed, 5*time.Millisecond, "partial results carry their duration")
}

func TestChurn(t *testing.T) {
	m := newManager(t)
	cfg := ChurnConfig{Workers: 6, OpsPerWorker: 400, Hold: 16}

	res, err := Churn(context.Background(), m, cfg)
	require.NoError(t, err)

	total := uint64(cfg.Workers * cfg.OpsPerWorker)
	assert.Equal(t, total, res.Created)
	assert.Equal(t, total, res.Disposed, "every ref disposed, including held ones")
	assert.Equal(t, uint64(cfg.Workers*(cfg.OpsPerWorker-cfg.Hold)), res.StaleCaught)
	assert.Equal(t, 0, m.Outstanding())
	assert.LessOrEqual(t, m.Stats().Memory.Issued, cfg.Workers*(cfg.Hold+1))
}

func TestWorkloadValidation(t *testing.T) {
	m := newManager(t)
	_, err := DisposeRace(context.Background(), m, RaceConfig{Handles: 0, Racers: 1})
	require.ErrorIs(t, err, ErrBadWorkload)
	_, err = Churn(context.Background(), m, ChurnConfig{Workers: 1, OpsPerWorker: 1})
	require.ErrorIs(t, err, ErrBadWorkload)
}
