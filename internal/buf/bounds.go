// Package buf contains overflow-safe index arithmetic shared by the allocators.
package buf

import (
	"fmt"
	"math"
)

// AddOverflowSafe adds a and b, returning ok = false when the result would overflow int.
func AddOverflowSafe(a, b int) (int, bool) {
	switch {
	case b > 0 && a > math.MaxInt-b:
		return 0, false
	case b < 0 && a < math.MinInt-b:
		return 0, false
	default:
		return a + b, true
	}
}

// MulOverflowSafe multiplies two non-negative ints, returning ok = false when the
// result would overflow int or either operand is negative.
// This is the check behind maxChunks * chunkCapacity ceilings.
func MulOverflowSafe(a, b int) (int, bool) {
	if a < 0 || b < 0 {
		return 0, false
	}
	if a == 0 || b == 0 {
		return 0, true
	}
	if a > math.MaxInt/b {
		return 0, false
	}
	return a * b, true
}

// CapacityFor returns chunks * perChunk when the product fits the int32 index
// range used for slot indices.
func CapacityFor(chunks, perChunk int) (int, error) {
	if chunks <= 0 || perChunk <= 0 {
		return 0, fmt.Errorf("non-positive dimensions: chunks=%d perChunk=%d", chunks, perChunk)
	}
	total, ok := MulOverflowSafe(chunks, perChunk)
	if !ok || total > math.MaxInt32 {
		return 0, fmt.Errorf("overflow: chunks=%d * perChunk=%d", chunks, perChunk)
	}
	return total, nil
}

// Split decomposes a global slot index into (chunk, offset) for chunks of
// perChunk elements. perChunk must be positive.
func Split(index, perChunk int) (chunk, offset int) {
	return index / perChunk, index % perChunk
}

// InRange reports whether 0 <= i < n.
func InRange(i, n int) bool {
	return i >= 0 && i < n
}
