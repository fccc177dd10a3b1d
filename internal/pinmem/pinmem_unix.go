//go:build unix

// Package pinmem provides platform-specific anonymous memory mappings that live
// outside the Go heap and never move for their lifetime.
package pinmem

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// Map returns size bytes of zeroed, read-write anonymous memory and a release
// function. The release function is safe to call more than once.
func Map(size int) ([]byte, func() error, error) {
	if size <= 0 {
		return nil, nil, fmt.Errorf("pinmem: invalid mapping size %d", size)
	}
	data, err := unix.Mmap(-1, 0, roundToPage(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, nil, fmt.Errorf("pinmem: mmap %d bytes: %w", size, err)
	}
	released := false
	release := func() error {
		if released {
			return nil
		}
		released = true
		err := unix.Munmap(data)
		if errors.Is(err, unix.EINVAL) {
			// Treat double-unmap as no-op for callers.
			return nil
		}
		return err
	}
	return data[:size:size], release, nil
}

func roundToPage(size int) int {
	page := unix.Getpagesize()
	return (size + page - 1) / page * page
}
