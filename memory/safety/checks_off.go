//go:build vlib_unchecked

package safety

// CheckedBuild reports whether ConditionalCheckValid asserts. This build was
// produced with the vlib_unchecked tag: accessors skip validity checks and
// reading through a disposed handle is undefined.
const CheckedBuild = false
