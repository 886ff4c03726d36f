package filesystem

import (
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/arthur-debert/revlink/pkg/types"
	"github.com/spf13/afero"
)

// maxLinkHops bounds link resolution the way the kernel's ELOOP does.
const maxLinkHops = 40

// aferoFS implements types.FS using afero
type aferoFS struct {
	fs afero.Fs

	mu    sync.RWMutex
	links map[string]string
}

// NewAferoFS creates a new afero filesystem implementation
func NewAferoFS(fs afero.Fs) types.FS {
	return &aferoFS{fs: fs, links: make(map[string]string)}
}

// NewMemoryFS returns an afero MemMapFs wrapped as a types.FS.
func NewMemoryFS() types.FS {
	return NewAferoFS(afero.NewMemMapFs())
}

func (a *aferoFS) Stat(name string) (fs.FileInfo, error) {
	resolved, err := a.resolve(name)
	if err != nil {
		return nil, err
	}
	return a.fs.Stat(resolved)
}

func (a *aferoFS) ReadFile(name string) ([]byte, error) {
	info, err := a.Stat(name)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrInvalid}
	}
	resolved, err := a.resolve(name)
	if err != nil {
		return nil, err
	}
	return afero.ReadFile(a.fs, resolved)
}

func (a *aferoFS) WriteFile(name string, data []byte, perm fs.FileMode) error {
	return afero.WriteFile(a.fs, name, data, perm)
}

func (a *aferoFS) Chmod(name string, mode fs.FileMode) error {
	return a.fs.Chmod(name, mode)
}

func (a *aferoFS) MkdirAll(path string, perm fs.FileMode) error {
	return a.fs.MkdirAll(path, perm)
}

func (a *aferoFS) ReadDir(name string) ([]fs.DirEntry, error) {
	entries, err := afero.ReadDir(a.fs, name)
	if err != nil {
		return nil, err
	}
	dirEntries := make([]fs.DirEntry, 0, len(entries))
	for _, entry := range entries {
		dirEntries = append(dirEntries, a.dirEntry(filepath.Join(name, entry.Name()), entry))
	}
	return dirEntries, nil
}

// Symlink records the link in memory and writes a placeholder file so the
// name shows up in directory listings. MemMapFs has no native links.
func (a *aferoFS) Symlink(oldname, newname string) error {
	newname = filepath.Clean(newname)
	if _, err := a.fs.Stat(newname); err == nil {
		return &os.LinkError{Op: "symlink", Old: oldname, New: newname, Err: fs.ErrExist}
	}
	if err := afero.WriteFile(a.fs, newname, []byte(oldname), 0777); err != nil {
		return err
	}
	a.mu.Lock()
	a.links[newname] = oldname
	a.mu.Unlock()
	return nil
}

func (a *aferoFS) Readlink(name string) (string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	target, ok := a.links[filepath.Clean(name)]
	if !ok {
		return "", &fs.PathError{Op: "readlink", Path: name, Err: fs.ErrInvalid}
	}
	return target, nil
}

func (a *aferoFS) EvalSymlinks(name string) (string, error) {
	resolved, err := a.resolve(name)
	if err != nil {
		return "", err
	}
	if _, err := a.fs.Stat(resolved); err != nil {
		return "", err
	}
	return resolved, nil
}

func (a *aferoFS) Remove(name string) error {
	name = filepath.Clean(name)
	if err := a.fs.Remove(name); err != nil {
		return err
	}
	a.mu.Lock()
	delete(a.links, name)
	a.mu.Unlock()
	return nil
}

func (a *aferoFS) RemoveAll(path string) error {
	path = filepath.Clean(path)
	if err := a.fs.RemoveAll(path); err != nil {
		return err
	}
	a.mu.Lock()
	for link := range a.links {
		if link == path || isWithin(path, link) {
			delete(a.links, link)
		}
	}
	a.mu.Unlock()
	return nil
}

func (a *aferoFS) Rename(oldpath, newpath string) error {
	oldpath, newpath = filepath.Clean(oldpath), filepath.Clean(newpath)
	a.mu.Lock()
	defer a.mu.Unlock()
	if target, ok := a.links[oldpath]; ok {
		// Replacing a link with a link mirrors rename(2) semantics.
		if _, exists := a.links[newpath]; exists {
			if err := a.fs.Remove(newpath); err != nil {
				return err
			}
		}
		if err := a.fs.Rename(oldpath, newpath); err != nil {
			return err
		}
		delete(a.links, oldpath)
		a.links[newpath] = target
		return nil
	}
	return a.fs.Rename(oldpath, newpath)
}

func (a *aferoFS) Lstat(name string) (fs.FileInfo, error) {
	info, err := a.fs.Stat(name)
	if err != nil {
		return nil, err
	}
	a.mu.RLock()
	_, isLink := a.links[filepath.Clean(name)]
	a.mu.RUnlock()
	if isLink {
		return linkInfo{info}, nil
	}
	return info, nil
}

// resolve follows recorded links on every path component.
func (a *aferoFS) resolve(name string) (string, error) {
	path := filepath.Clean(name)
	a.mu.RLock()
	defer a.mu.RUnlock()

	for hops := 0; hops < maxLinkHops; hops++ {
		replaced := false
		for link, target := range a.links {
			if path != link && !isWithin(link, path) {
				continue
			}
			if !filepath.IsAbs(target) {
				target = filepath.Join(filepath.Dir(link), target)
			}
			rest, _ := filepath.Rel(link, path)
			path = filepath.Clean(filepath.Join(target, rest))
			replaced = true
			break
		}
		if !replaced {
			return path, nil
		}
	}
	return "", &fs.PathError{Op: "resolve", Path: name, Err: errTooManyLinks}
}

func (a *aferoFS) dirEntry(path string, info fs.FileInfo) fs.DirEntry {
	a.mu.RLock()
	_, isLink := a.links[filepath.Clean(path)]
	a.mu.RUnlock()
	if isLink {
		return fs.FileInfoToDirEntry(linkInfo{info})
	}
	return fs.FileInfoToDirEntry(info)
}

// linkInfo reports a placeholder file as a symlink.
type linkInfo struct {
	fs.FileInfo
}

func (l linkInfo) Mode() fs.FileMode { return fs.ModeSymlink | 0777 }
func (l linkInfo) IsDir() bool       { return false }

func isWithin(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !filepath.IsAbs(rel) && !startsWithParent(rel)
}

func startsWithParent(rel string) bool {
	return len(rel) >= 3 && rel[:2] == ".." && os.IsPathSeparator(rel[2])
}
