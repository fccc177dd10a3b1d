//go:build !unix && !windows

package pinmem

import "fmt"

// Map allocates from the Go heap when the platform has no anonymous mappings.
// The Go collector does not move heap objects, so addresses stay stable.
func Map(size int) ([]byte, func() error, error) {
	if size <= 0 {
		return nil, nil, fmt.Errorf("pinmem: invalid mapping size %d", size)
	}
	return make([]byte, size), func() error { return nil }, nil
}
