package safety

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/virtushda/vlib/memory/pinned"
)

// newTestManager builds a small manager whose logs go to the returned buffer.
func newTestManager(t testing.TB, maxChunks, chunkSize int, track bool) (*Manager, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	m, err := NewManager(Config{
		MaxChunks:  maxChunks,
		ChunkSize:  chunkSize,
		TrackLeaks: track,
		Source:     pinned.OSSource,
		Logger:     slog.New(slog.NewJSONHandler(&logs, nil)),
	})
	require.NoError(t, err)
	return m, &logs
}

// recoverError runs fn and returns the error it panicked with, if any.
func recoverError(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err, _ = r.(error)
		}
	}()
	fn()
	return nil
}
