//go:build !windows

package link

import "github.com/arthur-debert/revlink/pkg/types"

// DefaultLinker returns the directory linker for this platform.
func DefaultLinker(fs types.FS) DirLinker {
	return NewSymlinkLinker(fs)
}
