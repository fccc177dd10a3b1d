package indexpool

import "errors"

var (
	// ErrExhausted indicates every index below the configured maximum is taken.
	ErrExhausted = errors.New("indexpool: no free index below maximum")

	// ErrBadIndex indicates a returned index that was never issued by the pool.
	ErrBadIndex = errors.New("indexpool: index was never issued")
)
