// Package safety provides generation-checked handles for detecting
// use-after-free and double-free on manually managed memory.
//
// # Overview
//
// A Manager owns a pinned.Memory[uint64]. Creating a Handle takes a slot,
// writes a fresh generation ID into it and returns a value capturing
// (slot, ID). Any copy of the handle can check liveness by comparing its
// captured ID with the ID currently in the slot:
//
//	h, err := mgr.Create()
//	if err != nil {
//	    return err
//	}
//	h.IsValid()    // true
//	h2 := h        // copies share liveness
//	h2.Dispose()   // true: this call invalidated the handle
//	h.Dispose()    // false: already invalidated, no-op
//	h.IsValid()    // false
//
// Disposal is a compare-and-swap of the slot from the captured ID to zero.
// However many goroutines race to dispose copies of one handle, exactly one
// wins and returns the slot for reuse. A reused slot gets a new ID, so stale
// copies of the old handle stay invalid.
//
// # State Machine
//
//	Unissued -> Live -> Invalidated
//
// Invalidated is terminal; a handle never becomes live again.
//
// # Checked Builds
//
// ConditionalCheckValid panics on an invalid handle unless the package is
// built with the vlib_unchecked tag, in which case it compiles to nothing and
// callers that skip their own checks read whatever the freed memory holds.
// CheckValid and IsValid are available in every build. CheckedBuild reports
// the mode.
//
// # Process-Wide Manager
//
// Initialize, Default, Create and Shutdown manage one shared Manager for
// programs that want a single instance. Libraries should accept a *Manager
// instead.
//
// # Leak Reporting
//
// Shutdown with live handles logs an error and leaks the slot memory rather
// than freeing memory that copies may still read. With Config.TrackLeaks the
// report names each leaked handle's creation site. A clean Shutdown waits for
// in-flight handle checks before unmapping, and checks that start later
// report the handle invalid.
package safety
