package types

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by a ContentSource when the requested manifest or
// archive does not exist. Any other error is a transport failure.
var ErrNotFound = errors.New("content not found")

// ContentSource supplies the manifest and revision archives. Returned
// streams are owned by the caller, which must close them.
type ContentSource interface {
	// ManifestStream returns the manifest text.
	ManifestStream(ctx context.Context) (io.ReadCloser, error)

	// ArchiveStream returns the content archive for a branch revision.
	ArchiveStream(ctx context.Context, branch string, revision int) (io.ReadCloser, error)
}
