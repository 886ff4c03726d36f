package types

import (
	"io/fs"
)

// FS is the filesystem interface required for revlink operations
type FS interface {
	// File operations
	Stat(name string) (fs.FileInfo, error)
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm fs.FileMode) error
	Chmod(name string, mode fs.FileMode) error

	// Directory operations
	MkdirAll(path string, perm fs.FileMode) error
	ReadDir(name string) ([]fs.DirEntry, error)

	// Symlink operations
	Symlink(oldname, newname string) error
	Readlink(name string) (string, error)

	// EvalSymlinks returns the canonical absolute path of name with all
	// links resolved.
	EvalSymlinks(name string) (string, error)

	// Other operations
	Remove(name string) error
	RemoveAll(path string) error
	Rename(oldpath, newpath string) error

	// Optional operations - implementations should check for support
	// For testing, Lstat can fall back to Stat
	Lstat(name string) (fs.FileInfo, error)
}

// Pather provides paths for revlink operations
type Pather interface {
	// ContentRoot returns the directory revisions are materialized under
	ContentRoot() string

	// LivePath returns the path of the promoted live pointer
	LivePath() string

	// ConfigDir returns the XDG config directory for revlink
	ConfigDir() string

	// StateDir returns the XDG state directory for revlink
	StateDir() string
}
