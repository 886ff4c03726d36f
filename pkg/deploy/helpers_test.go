package deploy_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/arthur-debert/revlink/pkg/archive"
	"github.com/arthur-debert/revlink/pkg/archive/archivetest"
	"github.com/arthur-debert/revlink/pkg/deploy"
	"github.com/arthur-debert/revlink/pkg/filesystem"
	"github.com/arthur-debert/revlink/pkg/link"
	"github.com/arthur-debert/revlink/pkg/types"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockSource is a ContentSource whose responses are set up per test.
// String and byte slice return values become fresh streams on every call.
type mockSource struct {
	mock.Mock
}

func (s *mockSource) ManifestStream(ctx context.Context) (io.ReadCloser, error) {
	args := s.Called(ctx)
	return toStream(args.Get(0)), args.Error(1)
}

func (s *mockSource) ArchiveStream(ctx context.Context, branch string, revision int) (io.ReadCloser, error) {
	args := s.Called(ctx, branch, revision)
	return toStream(args.Get(0)), args.Error(1)
}

func toStream(v interface{}) io.ReadCloser {
	switch x := v.(type) {
	case string:
		return io.NopCloser(strings.NewReader(x))
	case []byte:
		return io.NopCloser(bytes.NewReader(x))
	case io.ReadCloser:
		return x
	default:
		return nil
	}
}

func notFound(what string) error {
	return fmt.Errorf("%w: %s", types.ErrNotFound, what)
}

// countingLinker counts link creations and can be made to fail.
type countingLinker struct {
	inner link.DirLinker
	calls int
	err   error
}

func (c *countingLinker) CreateDirectoryLink(target, linkPath string) error {
	c.calls++
	if c.err != nil {
		return c.err
	}
	return c.inner.CreateDirectoryLink(target, linkPath)
}

func (c *countingLinker) ReplacesOnRename() bool { return c.inner.ReplacesOnRename() }

// removeFailingFS refuses to RemoveAll one path.
type removeFailingFS struct {
	types.FS
	path string
}

func (f *removeFailingFS) RemoveAll(path string) error {
	if path == f.path {
		return &os.PathError{Op: "remove", Path: path, Err: os.ErrPermission}
	}
	return f.FS.RemoveAll(path)
}

type env struct {
	t       *testing.T
	fs      types.FS
	root    string
	live    string
	source  *mockSource
	linker  *countingLinker
	manager *deploy.Manager
}

func newEnv(t *testing.T) *env {
	t.Helper()
	fs := filesystem.NewOS()
	root := filepath.Join(t.TempDir(), "content")
	require.NoError(t, fs.MkdirAll(root, 0755))

	e := &env{
		t:      t,
		fs:     fs,
		root:   root,
		live:   filepath.Join(root, "live"),
		source: &mockSource{},
		linker: &countingLinker{inner: link.NewSymlinkLinker(fs)},
	}
	e.manager = e.newManager(fs)
	return e
}

func (e *env) newManager(fs types.FS) *deploy.Manager {
	e.t.Helper()
	m, err := deploy.New(deploy.Options{
		Source:    e.source,
		FS:        fs,
		Root:      e.root,
		Extractor: archive.NewExtractor(),
		Swapper:   link.NewSwapper(fs, e.linker),
	})
	require.NoError(e.t, err)
	return m
}

func (e *env) manifest(text string) {
	e.source.On("ManifestStream", mock.Anything).Return(text, nil)
}

// bundle serves a zip whose index.html names the revision.
func (e *env) bundle(branch string, revision int) {
	data := archivetest.Zip(e.t, archivetest.Files(map[string]string{
		"index.html":   fmt.Sprintf("%s/%d", branch, revision),
		"css/site.css": "body{}",
	}))
	e.source.On("ArchiveStream", mock.Anything, branch, revision).Return(data, nil)
}

func (e *env) missing(branch string, revision int) {
	e.source.On("ArchiveStream", mock.Anything, branch, revision).
		Return(nil, notFound(fmt.Sprintf("%s/%d", branch, revision)))
}

// materialized creates a revision directory as a previous cycle would.
func (e *env) materialized(branch string, revision int) string {
	e.t.Helper()
	dir := filepath.Join(e.root, branch, fmt.Sprint(revision))
	require.NoError(e.t, e.fs.MkdirAll(dir, 0755))
	require.NoError(e.t, e.fs.WriteFile(filepath.Join(dir, "index.html"),
		[]byte(fmt.Sprintf("%s/%d", branch, revision)), 0644))
	return dir
}

// pointLive links the live path at branch/revision directly.
func (e *env) pointLive(branch string, revision int) {
	e.t.Helper()
	require.NoError(e.t, e.fs.Symlink(filepath.Join(e.root, branch, fmt.Sprint(revision)), e.live))
}

// liveContent reads index.html through the live pointer.
func (e *env) liveContent() string {
	e.t.Helper()
	data, err := e.fs.ReadFile(filepath.Join(e.live, "index.html"))
	require.NoError(e.t, err)
	return string(data)
}

func (e *env) exists(rel string) bool {
	_, err := e.fs.Lstat(filepath.Join(e.root, rel))
	return err == nil
}
