package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/arthur-debert/revlink/pkg/errors"
	"github.com/arthur-debert/revlink/pkg/logging"
	"github.com/arthur-debert/revlink/pkg/types"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// ArchiveExtensions lists the archive suffixes a Dir source probes, in
// order of preference.
var ArchiveExtensions = []string{".zip", ".tar.gz", ".tgz", ".tar.zst", ".tar.lz4", ".tar"}

// DigestSuffix names the BLAKE3 sidecar published next to an archive.
const DigestSuffix = ".b3"

// Dir serves content from a directory tree.
type Dir struct {
	fs       afero.Fs
	dir      string
	manifest string
	logger   zerolog.Logger
}

// NewDir returns a source reading <dir>/<manifest> and
// <dir>/<branch>/<revision>.<ext> from fs.
func NewDir(fs afero.Fs, dir, manifest string) *Dir {
	return &Dir{
		fs:       fs,
		dir:      dir,
		manifest: manifest,
		logger:   logging.GetLogger("source.dir"),
	}
}

func (d *Dir) ManifestStream(ctx context.Context) (io.ReadCloser, error) {
	return d.open(ctx, filepath.Join(d.dir, d.manifest))
}

func (d *Dir) ArchiveStream(ctx context.Context, branch string, revision int) (io.ReadCloser, error) {
	path, err := d.archivePath(branch, revision)
	if err != nil {
		return nil, err
	}
	return d.open(ctx, path)
}

// ArchiveDigest returns the contents of the archive's BLAKE3 sidecar.
func (d *Dir) ArchiveDigest(ctx context.Context, branch string, revision int) (string, error) {
	path, err := d.archivePath(branch, revision)
	if err != nil {
		return "", err
	}
	rc, err := d.open(ctx, path+DigestSuffix)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxDigestSize))
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrSource, "reading %s", path+DigestSuffix)
	}
	return string(data), nil
}

func (d *Dir) archivePath(branch string, revision int) (string, error) {
	base := filepath.Join(d.dir, branch, strconv.Itoa(revision))
	for _, ext := range ArchiveExtensions {
		info, err := d.fs.Stat(base + ext)
		if err == nil && !info.IsDir() {
			return base + ext, nil
		}
		if err != nil && !os.IsNotExist(err) {
			return "", errors.Wrapf(err, errors.ErrSource, "probing %s", base+ext)
		}
	}
	d.logger.Debug().
		Str("branch", branch).
		Int("revision", revision).
		Str("path", base).
		Msg("No archive found")
	return "", fmt.Errorf("%w: %s/%d", types.ErrNotFound, branch, revision)
}

func (d *Dir) open(ctx context.Context, path string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := d.fs.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", types.ErrNotFound, path)
		}
		return nil, errors.Wrapf(err, errors.ErrSource, "opening %s", path).
			WithDetail("path", path)
	}
	d.logger.Trace().Str("path", path).Msg("Opened content")
	return f, nil
}
