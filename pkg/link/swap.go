package link

import (
	"os"
	"path/filepath"

	"github.com/arthur-debert/revlink/pkg/errors"
	"github.com/arthur-debert/revlink/pkg/logging"
	"github.com/arthur-debert/revlink/pkg/types"
	"github.com/rs/zerolog"
)

// TempSuffix is appended to the live path to name the link under
// construction.
const TempSuffix = ".swap"

// Swapper repoints a live path at revision directories.
type Swapper struct {
	fs     types.FS
	linker DirLinker
	logger zerolog.Logger
}

// NewSwapper returns a Swapper creating links with linker.
func NewSwapper(fs types.FS, linker DirLinker) *Swapper {
	return &Swapper{
		fs:     fs,
		linker: linker,
		logger: logging.GetLogger("link"),
	}
}

// Resolve returns the canonical directory livePath points at, or "" when
// the live path does not exist or dangles.
func Resolve(fs types.FS, livePath string) (string, error) {
	if _, err := fs.Lstat(livePath); err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	resolved, err := fs.EvalSymlinks(livePath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return resolved, nil
}

// Swap points livePath at targetDir. It reports false without touching the
// filesystem when livePath already resolves to targetDir. On failure the
// previous live path is left as it was.
func (s *Swapper) Swap(livePath, targetDir string) (bool, error) {
	target, err := s.fs.EvalSymlinks(targetDir)
	if err != nil {
		return false, errors.Wrapf(err, errors.ErrLink, "resolving promotion target %s", targetDir).
			WithDetail("path", targetDir)
	}

	current, err := Resolve(s.fs, livePath)
	if err != nil {
		return false, errors.Wrapf(err, errors.ErrLink, "resolving live path %s", livePath).
			WithDetail("path", livePath)
	}
	if current == target {
		s.logger.Debug().Str("live", livePath).Str("target", target).Msg("Live path already linked")
		return false, nil
	}

	if err := s.fs.MkdirAll(filepath.Dir(livePath), 0755); err != nil {
		return false, errors.Wrapf(err, errors.ErrLink, "creating parent of %s", livePath).
			WithDetail("path", livePath)
	}

	tmp := livePath + TempSuffix
	if err := s.removeStale(tmp); err != nil {
		return false, err
	}

	if err := s.linker.CreateDirectoryLink(target, tmp); err != nil {
		_ = s.removeStale(tmp)
		return false, errors.Wrapf(err, errors.ErrLink, "could not create link from %s to %s", tmp, target).
			WithDetail("path", tmp)
	}

	if !s.linker.ReplacesOnRename() {
		if err := s.removeLive(livePath); err != nil {
			_ = s.removeStale(tmp)
			return false, errors.Wrapf(err, errors.ErrLink, "removing previous live link %s", livePath).
				WithDetail("path", livePath)
		}
	}

	if err := s.fs.Rename(tmp, livePath); err != nil {
		_ = s.removeStale(tmp)
		return false, errors.Wrapf(err, errors.ErrLink, "renaming %s onto %s", tmp, livePath).
			WithDetail("path", livePath)
	}

	s.logger.Info().
		Str("live", livePath).
		Str("previous", current).
		Str("target", target).
		Msg("Linked live directory")
	return true, nil
}

// removeLive clears the way for linkers whose rename cannot replace the
// previous link. Remove refuses non-empty directories, so a real content
// directory at the live path fails the swap instead of being deleted.
func (s *Swapper) removeLive(livePath string) error {
	if err := s.fs.Remove(livePath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// removeStale deletes a leftover temporary link from a crashed swap.
func (s *Swapper) removeStale(tmp string) error {
	if _, err := s.fs.Lstat(tmp); err != nil {
		return nil
	}
	if err := s.fs.Remove(tmp); err != nil {
		return errors.Wrapf(err, errors.ErrLink, "removing stale link %s", tmp).
			WithDetail("path", tmp)
	}
	return nil
}
