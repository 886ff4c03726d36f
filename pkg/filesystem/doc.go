// Package filesystem provides filesystem implementations for revlink.
//
// This package contains implementations of the types.FS interface,
// including the standard OS filesystem and an afero-backed filesystem
// used for in-memory tests.
package filesystem
