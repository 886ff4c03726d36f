package source

import (
	"time"

	"github.com/arthur-debert/revlink/pkg/errors"
	"github.com/arthur-debert/revlink/pkg/types"
	"github.com/spf13/afero"
)

// Source kinds accepted by New.
const (
	KindDir  = "dir"
	KindHTTP = "http"
)

// Options selects and configures a content source.
type Options struct {
	Kind     string
	Dir      string
	URL      string
	Manifest string
	Timeout  time.Duration

	// Verify wraps the source so archives with a published digest are
	// checked while they stream.
	Verify bool

	// Fs backs a dir source. Defaults to the OS filesystem.
	Fs afero.Fs
}

// New builds the content source described by opts.
func New(opts Options) (types.ContentSource, error) {
	var src DigestSource
	switch opts.Kind {
	case KindDir:
		if opts.Dir == "" {
			return nil, errors.New(errors.ErrConfigValid, "dir source needs a directory")
		}
		fs := opts.Fs
		if fs == nil {
			fs = afero.NewOsFs()
		}
		src = NewDir(fs, opts.Dir, opts.Manifest)
	case KindHTTP:
		if opts.URL == "" {
			return nil, errors.New(errors.ErrConfigValid, "http source needs a url")
		}
		h, err := NewHTTP(opts.URL, opts.Manifest, opts.Timeout)
		if err != nil {
			return nil, err
		}
		src = h
	default:
		return nil, errors.Newf(errors.ErrConfigValid, "unknown source kind %q", opts.Kind).
			WithDetail("kind", opts.Kind)
	}

	if opts.Verify {
		return NewVerified(src), nil
	}
	return src, nil
}
