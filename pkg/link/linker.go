package link

import "github.com/arthur-debert/revlink/pkg/types"

// DirLinker creates a filesystem entry at linkPath that resolves to the
// directory target.
type DirLinker interface {
	CreateDirectoryLink(target, linkPath string) error

	// ReplacesOnRename reports whether renaming a new link onto an existing
	// one replaces it in a single step.
	ReplacesOnRename() bool
}

// SymlinkLinker makes symbolic links through a types.FS.
type SymlinkLinker struct {
	fs types.FS
}

// NewSymlinkLinker returns a linker creating symlinks on fs.
func NewSymlinkLinker(fs types.FS) *SymlinkLinker {
	return &SymlinkLinker{fs: fs}
}

func (l *SymlinkLinker) CreateDirectoryLink(target, linkPath string) error {
	return l.fs.Symlink(target, linkPath)
}

func (l *SymlinkLinker) ReplacesOnRename() bool { return true }
