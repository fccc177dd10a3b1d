package safety

import "github.com/virtushda/vlib/memory/pinned"

// Stats summarises a manager's activity.
type Stats struct {
	Created       uint64       `json:"created"`
	Disposed      uint64       `json:"disposed"`
	StaleDisposes uint64       `json:"stale_disposes"` // TryInvalidate calls that lost or came late
	Outstanding   int          `json:"outstanding"`
	Capacity      int          `json:"capacity"`
	TrackLeaks    bool         `json:"track_leaks"`
	Shutdown      bool         `json:"shutdown"`
	Released      bool         `json:"released"`
	Memory        pinned.Stats `json:"memory"`
}

// Stats returns a snapshot of counters; fields are read independently.
func (m *Manager) Stats() Stats {
	return Stats{
		Created:       m.created.Load(),
		Disposed:      m.disposed.Load(),
		StaleDisposes: m.staleDisposes.Load(),
		Outstanding:   m.mem.Taken(),
		Capacity:      m.mem.Capacity(),
		TrackLeaks:    m.leaks != nil,
		Shutdown:      m.closed.Load(),
		Released:      m.MemoryReleased(),
		Memory:        m.mem.Stats(),
	}
}
