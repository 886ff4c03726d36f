package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/arthur-debert/revlink/pkg/errors"
	"github.com/arthur-debert/revlink/pkg/logging"
	"github.com/arthur-debert/revlink/pkg/types"
	"github.com/rs/zerolog"
)

// maxDigestSize bounds how much of a sidecar file is read.
const maxDigestSize = 4096

// HTTP serves content over plain GET requests. Archives are always
// published as zip bundles.
type HTTP struct {
	base     *url.URL
	manifest string
	client   *http.Client
	logger   zerolog.Logger
}

// NewHTTP returns a source fetching from baseURL. A non-zero timeout bounds
// each request including the body transfer.
func NewHTTP(baseURL, manifest string, timeout time.Duration) (*HTTP, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidInput, "invalid source url %q", baseURL)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, errors.Newf(errors.ErrInvalidInput, "unsupported source url scheme %q", base.Scheme)
	}
	return &HTTP{
		base:     base,
		manifest: manifest,
		client:   &http.Client{Timeout: timeout},
		logger:   logging.GetLogger("source.http"),
	}, nil
}

func (h *HTTP) ManifestStream(ctx context.Context) (io.ReadCloser, error) {
	return h.get(ctx, h.base.JoinPath(h.manifest).String())
}

func (h *HTTP) ArchiveStream(ctx context.Context, branch string, revision int) (io.ReadCloser, error) {
	return h.get(ctx, h.archiveURL(branch, revision))
}

// ArchiveDigest fetches <branch>/<revision>.zip.b3.
func (h *HTTP) ArchiveDigest(ctx context.Context, branch string, revision int) (string, error) {
	body, err := h.get(ctx, h.archiveURL(branch, revision)+DigestSuffix)
	if err != nil {
		return "", err
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, maxDigestSize))
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrSource, "reading digest for %s/%d", branch, revision)
	}
	return string(data), nil
}

func (h *HTTP) archiveURL(branch string, revision int) string {
	return h.base.JoinPath(branch, strconv.Itoa(revision)+".zip").String()
}

func (h *HTTP) get(ctx context.Context, target string) (io.ReadCloser, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrSource, "creating request for %s", target)
	}

	start := time.Now()
	response, err := h.client.Do(request)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrSource, "GET %s failed", target).
			WithDetail("url", target)
	}

	h.logger.Debug().
		Str("url", target).
		Int("status", response.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("Fetched content")

	switch {
	case response.StatusCode >= 200 && response.StatusCode < 300:
		return response.Body, nil
	case response.StatusCode == http.StatusNotFound:
		_ = response.Body.Close()
		return nil, fmt.Errorf("%w: %s", types.ErrNotFound, target)
	default:
		_ = response.Body.Close()
		return nil, errors.Newf(errors.ErrSource, "unexpected %d response from GET %s", response.StatusCode, target).
			WithDetail("url", target)
	}
}
