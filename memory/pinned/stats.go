package pinned

import "unsafe"

// Stats is a point-in-time view of a Memory's occupancy.
type Stats struct {
	Source        Source  `json:"source"`
	ElementSize   uintptr `json:"element_size"`
	ChunkCapacity int     `json:"chunk_capacity"`
	MaxChunks     int     `json:"max_chunks"`
	Chunks        int     `json:"chunks"`
	Capacity      int     `json:"capacity"`
	Covered       int     `json:"covered"` // slots zero-initialised so far
	Taken         int     `json:"taken"`
	Issued        int     `json:"issued"`
	Free          int     `json:"free"`
	Reuses        uint64  `json:"reuses"`
}

// Stats returns current occupancy figures. Values are read without a global
// lock and may be mutually inconsistent under concurrent use.
func (m *Memory[T]) Stats() Stats {
	var zero T
	s := Stats{
		Source:        m.source,
		ElementSize:   unsafe.Sizeof(zero),
		ChunkCapacity: m.perChunk,
		MaxChunks:     m.maxChunks,
		Chunks:        m.Chunks(),
		Capacity:      m.capacity,
		Taken:         m.pool.Taken(),
		Issued:        m.pool.Issued(),
		Free:          m.pool.FreeCount(),
		Reuses:        m.pool.Reuses(),
	}
	for i := range s.Chunks {
		if c := m.chunks[i].Load(); c != nil {
			s.Covered += int(c.length.Load())
		}
	}
	return s
}
