package safety

import "errors"

var (
	// ErrInvalidHandle indicates use of a handle that was disposed or never created.
	ErrInvalidHandle = errors.New("safety: handle is not valid")

	// ErrShutdown indicates Create was called after the manager shut down.
	ErrShutdown = errors.New("safety: manager is shut down")

	// ErrNotInitialized indicates use of the process-wide manager before Initialize.
	ErrNotInitialized = errors.New("safety: default manager not initialized")

	// ErrAlreadyInitialized indicates a second Initialize without Shutdown in between.
	ErrAlreadyInitialized = errors.New("safety: default manager already initialized")

	// ErrBadConfig indicates a Config that failed validation.
	ErrBadConfig = errors.New("safety: invalid config")
)
