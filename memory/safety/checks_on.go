//go:build !vlib_unchecked

package safety

// CheckedBuild reports whether ConditionalCheckValid asserts. Build with the
// vlib_unchecked tag to compile the assertions out.
const CheckedBuild = true
