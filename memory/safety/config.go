package safety

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/virtushda/vlib/internal/buf"
	"github.com/virtushda/vlib/memory/pinned"
)

const (
	// DefaultMaxChunks bounds how many ID chunks the manager may create.
	DefaultMaxChunks = 1024

	// DefaultChunkSize is the number of handle slots per chunk (32KB of IDs).
	DefaultChunkSize = 4096
)

// Environment variables read by ConfigFromEnv.
const (
	EnvMaxChunks  = "VLIB_SAFETY_MAX_CHUNKS"
	EnvChunkSize  = "VLIB_SAFETY_CHUNK_SIZE"
	EnvTrackLeaks = "VLIB_TRACK_LEAKS"
)

// Config configures a Manager. MaxChunks * ChunkSize bounds the number of
// live handles.
type Config struct {
	MaxChunks int
	ChunkSize int

	// TrackLeaks records the creation call site of every live handle so
	// Shutdown can name them. It costs a runtime.Caller per Create.
	TrackLeaks bool

	// Source selects where ID chunks live. DefaultConfig uses pinned.OSSource.
	Source pinned.Source

	// Logger receives leak reports. Nil means the package logger.
	Logger *slog.Logger
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return Config{
		MaxChunks: DefaultMaxChunks,
		ChunkSize: DefaultChunkSize,
		Source:    pinned.OSSource,
	}
}

// ConfigFromEnv returns DefaultConfig overridden by VLIB_SAFETY_MAX_CHUNKS,
// VLIB_SAFETY_CHUNK_SIZE and VLIB_TRACK_LEAKS. Unparseable values are ignored.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	cfg.MaxChunks = envInt(EnvMaxChunks, cfg.MaxChunks)
	cfg.ChunkSize = envInt(EnvChunkSize, cfg.ChunkSize)
	cfg.TrackLeaks = envBool(EnvTrackLeaks, cfg.TrackLeaks)
	return cfg
}

// Validate reports whether the configuration can build a Manager.
func (c Config) Validate() error {
	if _, err := buf.CapacityFor(c.MaxChunks, c.ChunkSize); err != nil {
		return fmt.Errorf("%w: %w", ErrBadConfig, err)
	}
	if c.Source != pinned.HeapSource && c.Source != pinned.OSSource {
		return fmt.Errorf("%w: unknown source %s", ErrBadConfig, c.Source)
	}
	return nil
}

// Capacity returns MaxChunks * ChunkSize, or 0 for an invalid config.
func (c Config) Capacity() int {
	n, err := buf.CapacityFor(c.MaxChunks, c.ChunkSize)
	if err != nil {
		return 0
	}
	return n
}

func envInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
