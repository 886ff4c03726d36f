package archive

import (
	"archive/tar"
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/revlink/pkg/errors"
	"github.com/arthur-debert/revlink/pkg/logging"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// Fixed permissions for extracted content.
const (
	DirMode  os.FileMode = 0755
	FileMode os.FileMode = 0644
)

// spoolPattern names the temporary copy of a zip stream. The dot prefix
// keeps it out of garbage collection's way.
const spoolPattern = ".revlink-spool-*"

// spoolSlack is added to the size limit when spooling a zip, to make room
// for headers, the central directory and incompressible entries.
const spoolSlack = 1 << 20

// Stats summarises one extraction.
type Stats struct {
	Format Format
	Files  int
	Dirs   int
	Bytes  int64
}

// Extractor writes archive entries below a target directory.
type Extractor struct {
	fs       afero.Fs
	maxFiles int
	maxBytes int64
	logger   zerolog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithFs sets the filesystem entries are written to.
func WithFs(fs afero.Fs) Option {
	return func(e *Extractor) { e.fs = fs }
}

// WithMaxFiles fails extraction once more than n files were written.
// Zero means unlimited.
func WithMaxFiles(n int) Option {
	return func(e *Extractor) { e.maxFiles = n }
}

// WithMaxBytes fails extraction once more than n bytes were written.
// Zero means unlimited.
func WithMaxBytes(n int64) Option {
	return func(e *Extractor) { e.maxBytes = n }
}

// NewExtractor returns an Extractor writing to the OS filesystem unless
// WithFs says otherwise.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		fs:     afero.NewOsFs(),
		logger: logging.GetLogger("archive"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract unpacks r into targetDir, creating it if needed. The caller
// keeps ownership of r. Failures are reported as EXTRACTION errors and may
// leave targetDir partially written.
func (e *Extractor) Extract(r io.Reader, targetDir string) (*Stats, error) {
	br := bufio.NewReaderSize(r, 4096)
	head, err := br.Peek(sniffLen)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, errors.Wrap(err, errors.ErrExtraction, "reading archive header")
	}

	// An empty stream is an empty bundle.
	if len(head) == 0 {
		if err := e.mkdir(targetDir); err != nil {
			return nil, err
		}
		e.logger.Debug().Str("path", targetDir).Msg("Empty archive stream")
		return &Stats{Format: FormatUnknown}, nil
	}

	format := Detect(head)
	if format == FormatUnknown {
		return nil, errors.New(errors.ErrExtraction, "unrecognized archive format").
			WithDetail("path", targetDir)
	}

	if err := e.mkdir(targetDir); err != nil {
		return nil, err
	}

	stats := &Stats{Format: format}
	switch format {
	case FormatZip:
		err = e.extractZip(br, targetDir, stats)
	default:
		err = e.extractTarStream(br, format, targetDir, stats)
	}
	if err != nil {
		return stats, err
	}

	e.logger.Debug().
		Str("path", targetDir).
		Str("format", format.String()).
		Int("files", stats.Files).
		Int("dirs", stats.Dirs).
		Int64("bytes", stats.Bytes).
		Msg("Archive extracted")
	return stats, nil
}

func (e *Extractor) extractTarStream(r io.Reader, format Format, targetDir string, stats *Stats) error {
	switch format {
	case FormatTarGzip:
		gz, err := gzip.NewReader(r)
		if err != nil {
			return errors.Wrap(err, errors.ErrExtraction, "opening gzip stream")
		}
		defer gz.Close()
		return e.extractTar(gz, targetDir, stats)

	case FormatTarZstd:
		dec, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return errors.Wrap(err, errors.ErrExtraction, "opening zstd stream")
		}
		defer dec.Close()
		return e.extractTar(dec, targetDir, stats)

	case FormatTarLZ4:
		return e.extractTar(lz4.NewReader(r), targetDir, stats)

	default:
		return e.extractTar(r, targetDir, stats)
	}
}

func (e *Extractor) extractTar(r io.Reader, targetDir string, stats *Stats) error {
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, errors.ErrExtraction, "reading tar entry")
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := e.writeDir(targetDir, hdr.Name, stats); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := e.writeFile(targetDir, hdr.Name, tr, stats); err != nil {
				return err
			}
		default:
			e.logger.Debug().
				Str("entry", hdr.Name).
				Int("type", int(hdr.Typeflag)).
				Msg("Skipping special archive entry")
		}
	}
}

// extractZip spools the stream next to targetDir because the zip central
// directory sits at the end of the file.
func (e *Extractor) extractZip(r io.Reader, targetDir string, stats *Stats) error {
	spool, err := afero.TempFile(e.fs, filepath.Dir(targetDir), spoolPattern)
	if err != nil {
		return errors.Wrap(err, errors.ErrExtraction, "creating zip spool file")
	}
	defer func() {
		_ = spool.Close()
		_ = e.fs.Remove(spool.Name())
	}()

	src := r
	var limit int64
	if e.maxBytes > 0 {
		limit = e.maxBytes + e.maxBytes/8 + spoolSlack
		src = io.LimitReader(r, limit+1)
	}
	size, err := io.Copy(spool, src)
	if err != nil {
		return errors.Wrap(err, errors.ErrExtraction, "downloading zip archive")
	}
	if limit > 0 && size > limit {
		return errors.Newf(errors.ErrExtraction, "archive exceeds max size (%d bytes)", e.maxBytes).
			WithDetail("path", targetDir)
	}

	zr, err := zip.NewReader(spool, size)
	if err != nil {
		return errors.Wrap(err, errors.ErrExtraction, "reading zip directory")
	}

	for _, f := range zr.File {
		if isDirName(f.Name) || f.FileInfo().IsDir() {
			if err := e.writeDir(targetDir, f.Name, stats); err != nil {
				return err
			}
			continue
		}
		if !f.Mode().IsRegular() {
			e.logger.Debug().Str("entry", f.Name).Msg("Skipping special archive entry")
			continue
		}
		if err := e.writeZipFile(targetDir, f, stats); err != nil {
			return err
		}
	}
	return nil
}

func (e *Extractor) writeZipFile(targetDir string, f *zip.File, stats *Stats) error {
	rc, err := f.Open()
	if err != nil {
		return errors.Wrapf(err, errors.ErrExtraction, "opening zip entry %s", f.Name)
	}
	defer rc.Close()
	return e.writeFile(targetDir, f.Name, rc, stats)
}

func (e *Extractor) writeDir(targetDir, name string, stats *Stats) error {
	name = strings.TrimRight(name, `/\`)
	if name == "" || name == "." {
		return nil
	}
	path, err := safeJoin(targetDir, name)
	if err != nil {
		return err
	}
	if err := e.mkdir(path); err != nil {
		return err
	}
	stats.Dirs++
	return nil
}

func (e *Extractor) writeFile(targetDir, name string, r io.Reader, stats *Stats) error {
	path, err := safeJoin(targetDir, name)
	if err != nil {
		return err
	}

	stats.Files++
	if e.maxFiles > 0 && stats.Files > e.maxFiles {
		return errors.Newf(errors.ErrExtraction, "archive exceeds max files (%d)", e.maxFiles)
	}

	if err := e.mkdir(filepath.Dir(path)); err != nil {
		return err
	}

	out, err := e.fs.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, FileMode)
	if err != nil {
		return errors.Wrapf(err, errors.ErrExtraction, "creating %s", name)
	}

	src := r
	if e.maxBytes > 0 {
		// One extra byte tells an exact fit apart from an overflow.
		src = io.LimitReader(r, e.maxBytes-stats.Bytes+1)
	}
	n, err := io.Copy(out, src)
	stats.Bytes += n
	if err != nil {
		_ = out.Close()
		return errors.Wrapf(err, errors.ErrExtraction, "writing %s", name)
	}
	if err := out.Close(); err != nil {
		return errors.Wrapf(err, errors.ErrExtraction, "closing %s", name)
	}
	if e.maxBytes > 0 && stats.Bytes > e.maxBytes {
		return errors.Newf(errors.ErrExtraction, "archive exceeds max size (%d bytes)", e.maxBytes)
	}

	if err := e.fs.Chmod(path, FileMode); err != nil {
		return errors.Wrapf(err, errors.ErrExtraction, "setting permissions on %s", name)
	}
	return nil
}

// mkdir creates dir and its parents and pins the mode, since MkdirAll is
// subject to the umask.
func (e *Extractor) mkdir(dir string) error {
	if err := e.fs.MkdirAll(dir, DirMode); err != nil {
		return errors.Wrapf(err, errors.ErrExtraction, "creating directory %s", dir).
			WithDetail("path", dir)
	}
	if err := e.fs.Chmod(dir, DirMode); err != nil {
		return errors.Wrapf(err, errors.ErrExtraction, "setting permissions on %s", dir).
			WithDetail("path", dir)
	}
	return nil
}

func isDirName(name string) bool {
	return strings.HasSuffix(name, "/") || strings.HasSuffix(name, `\`)
}

// safeJoin joins an entry name onto base and rejects names that would land
// outside of it.
func safeJoin(base, name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(strings.ReplaceAll(name, `\`, "/")))
	if clean == "." || clean == "" {
		return "", errors.Newf(errors.ErrExtraction, "invalid archive path: %q", name)
	}
	if filepath.IsAbs(clean) || strings.HasPrefix(clean, string(filepath.Separator)) {
		return "", errors.Newf(errors.ErrExtraction, "absolute archive path: %q", name)
	}
	target := filepath.Join(base, clean)
	rel, err := filepath.Rel(base, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.Newf(errors.ErrExtraction, "archive path escapes target: %q", name)
	}
	return target, nil
}

// String implements fmt.Stringer for log output.
func (s *Stats) String() string {
	return fmt.Sprintf("%s: %d files, %d dirs, %d bytes", s.Format, s.Files, s.Dirs, s.Bytes)
}
