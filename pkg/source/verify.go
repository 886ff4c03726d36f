package source

import (
	"bytes"
	"context"
	"encoding/hex"
	stderrors "errors"
	"hash"
	"io"
	"strings"

	"github.com/arthur-debert/revlink/pkg/errors"
	"github.com/arthur-debert/revlink/pkg/logging"
	"github.com/arthur-debert/revlink/pkg/types"
	"github.com/rs/zerolog"
	"github.com/zeebo/blake3"
)

// DigestSource is a content source that can publish archive digests.
type DigestSource interface {
	types.ContentSource

	// ArchiveDigest returns the sidecar text for an archive, or an error
	// wrapping types.ErrNotFound when none was published.
	ArchiveDigest(ctx context.Context, branch string, revision int) (string, error)
}

// Verified checks archives against their BLAKE3 sidecar when one exists.
type Verified struct {
	inner  DigestSource
	logger zerolog.Logger
}

// NewVerified wraps inner.
func NewVerified(inner DigestSource) *Verified {
	return &Verified{inner: inner, logger: logging.GetLogger("source.verify")}
}

func (v *Verified) ManifestStream(ctx context.Context) (io.ReadCloser, error) {
	return v.inner.ManifestStream(ctx)
}

// ArchiveStream returns the archive wrapped in a reader that fails once the
// bytes read do not hash to the published digest. The check runs when the
// stream hits EOF or, for readers that stop early, on Close.
func (v *Verified) ArchiveStream(ctx context.Context, branch string, revision int) (io.ReadCloser, error) {
	sidecar, err := v.inner.ArchiveDigest(ctx, branch, revision)
	if err != nil && !stderrors.Is(err, types.ErrNotFound) {
		return nil, err
	}

	rc, err := v.inner.ArchiveStream(ctx, branch, revision)
	if err != nil {
		return nil, err
	}
	if sidecar == "" {
		v.logger.Debug().Str("branch", branch).Int("revision", revision).Msg("No digest published")
		return rc, nil
	}

	want, err := ParseDigest(sidecar)
	if err != nil {
		_ = rc.Close()
		return nil, errors.Wrapf(err, errors.ErrSource, "reading digest for %s/%d", branch, revision).
			WithDetail("branch", branch).
			WithDetail("revision", revision)
	}
	return &verifyingReader{
		rc:     rc,
		hash:   blake3.New(),
		want:   want,
		branch: branch,
		rev:    revision,
	}, nil
}

// ParseDigest reads the first field of a sidecar as a hex BLAKE3-256 digest,
// accepting the "<digest>  <filename>" form of checksum tools.
func ParseDigest(sidecar string) ([]byte, error) {
	fields := strings.Fields(sidecar)
	if len(fields) == 0 {
		return nil, errors.New(errors.ErrInvalidInput, "empty digest")
	}
	digest, err := hex.DecodeString(fields[0])
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInvalidInput, "digest is not hex")
	}
	if len(digest) != 32 {
		return nil, errors.Newf(errors.ErrInvalidInput, "digest has %d bytes, want 32", len(digest))
	}
	return digest, nil
}

// Digest returns the hex BLAKE3-256 digest of r, the format sidecars hold.
func Digest(r io.Reader) (string, error) {
	h := blake3.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

type verifyingReader struct {
	rc     io.ReadCloser
	hash   hash.Hash
	want   []byte
	branch string
	rev    int
	err    error
	done   bool
}

func (v *verifyingReader) Read(p []byte) (int, error) {
	if v.err != nil {
		return 0, v.err
	}
	n, err := v.rc.Read(p)
	v.hash.Write(p[:n])
	if err == io.EOF {
		if verr := v.verify(); verr != nil {
			return n, verr
		}
	}
	return n, err
}

// Close drains what the consumer left unread so the whole archive is
// hashed, then closes the underlying stream.
func (v *verifyingReader) Close() error {
	var verr error
	if !v.done && v.err == nil {
		if _, err := io.Copy(v.hash, v.rc); err != nil {
			verr = errors.Wrapf(err, errors.ErrSource, "reading %s/%d for verification", v.branch, v.rev)
		} else {
			verr = v.verify()
		}
	} else {
		verr = v.err
	}
	if err := v.rc.Close(); err != nil && verr == nil {
		verr = err
	}
	return verr
}

func (v *verifyingReader) verify() error {
	v.done = true
	got := v.hash.Sum(nil)
	if bytes.Equal(got, v.want) {
		return nil
	}
	v.err = errors.Newf(errors.ErrExtraction, "archive digest mismatch for %s/%d", v.branch, v.rev).
		WithDetail("branch", v.branch).
		WithDetail("revision", v.rev).
		WithDetail("want", hex.EncodeToString(v.want)).
		WithDetail("got", hex.EncodeToString(got))
	return v.err
}
