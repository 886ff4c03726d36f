// pkg/deploy/manager_test.go
// TEST TYPE: Integration Tests
// DEPENDENCIES: Real filesystem (t.TempDir), mocked content source
// PURPOSE: Verify update cycles materialize, promote and collect revisions

package deploy_test

import (
	"context"
	stderrors "errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/arthur-debert/revlink/pkg/archive"
	"github.com/arthur-debert/revlink/pkg/archive/archivetest"
	"github.com/arthur-debert/revlink/pkg/deploy"
	"github.com/arthur-debert/revlink/pkg/errors"
	"github.com/arthur-debert/revlink/pkg/link"
	"github.com/arthur-debert/revlink/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestUpdateMaterializesAndPromotes(t *testing.T) {
	e := newEnv(t)
	e.manifest("# live\tbranch\trevision\ntrue\ttrunk\t5\nfalse\tbeta\t3\n")
	e.bundle("trunk", 5)
	e.bundle("beta", 3)

	require.NoError(t, e.manager.Update(context.Background()))

	assert.Equal(t, "trunk/5", e.liveContent())
	assert.True(t, e.exists("trunk/5/css/site.css"))
	assert.True(t, e.exists("beta/3/index.html"))
	assert.False(t, e.exists("trunk/5.staging"))
	assert.False(t, e.exists("beta/3.staging"))

	resolved, err := e.fs.EvalSymlinks(e.live)
	require.NoError(t, err)
	want, err := e.fs.EvalSymlinks(filepath.Join(e.root, "trunk", "5"))
	require.NoError(t, err)
	assert.Equal(t, want, resolved)

	assert.Equal(t, []types.RevisionRecord{
		{Live: true, Branch: "trunk", Revision: 5},
		{Live: false, Branch: "beta", Revision: 3},
	}, e.manager.LastObservedRevisions())
	assert.Equal(t, []string{
		"branch trunk, rev 5, live true",
		"branch beta, rev 3, live false",
	}, e.manager.LastObservedStrings())

	report := e.manager.Report()
	assert.True(t, report.Succeeded())
	assert.Equal(t, 1, report.CyclesRun)
	assert.Equal(t, 0, report.CyclesFailed)
	assert.Equal(t, want, report.LiveDir)
	assert.Equal(t, 2, report.LastCycle.Downloaded)
	assert.Equal(t, 4, report.LastCycle.Files)
	assert.True(t, report.LastCycle.Promoted)
	assert.Equal(t, types.RevisionKey{Branch: "trunk", Revision: 5}, report.LastCycle.Live)
}

func TestUpdateIsIdempotent(t *testing.T) {
	e := newEnv(t)
	e.manifest("true\ttrunk\t5\nfalse\tbeta\t3\n")
	e.bundle("trunk", 5)
	e.bundle("beta", 3)

	require.NoError(t, e.manager.Update(context.Background()))
	require.NoError(t, e.manager.Update(context.Background()))

	// Only the first run fetched archives or touched the link.
	e.source.AssertNumberOfCalls(t, "ArchiveStream", 2)
	e.source.AssertNumberOfCalls(t, "ManifestStream", 2)
	assert.Equal(t, 1, e.linker.calls)

	report := e.manager.Report()
	assert.Equal(t, 2, report.CyclesRun)
	assert.False(t, report.LastCycle.Promoted)
	assert.Equal(t, 2, report.LastCycle.Present)
	assert.Zero(t, report.LastCycle.Downloaded)
	assert.Empty(t, report.LastCycle.Removed)
}

func TestUpdateLiveUniqueness(t *testing.T) {
	tests := []struct {
		name         string
		manifest     string
		wantCode     errors.ErrorCode
		wantObserved bool
	}{
		{"no_live", "false\ttrunk\t5\nfalse\tbeta\t3\n", errors.ErrNoLiveRevision, true},
		{"duplicate_live", "true\ttrunk\t5\ntrue\tbeta\t3\n", errors.ErrDuplicateLiveRevision, true},
		{"empty", "# only comments\n\n", errors.ErrEmptyManifest, false},
		{"only_malformed_lines", "true trunk 5\ntrue\t\t5\n", errors.ErrEmptyManifest, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			e.materialized("trunk", 4)
			e.pointLive("trunk", 4)
			e.manifest(tt.manifest)

			err := e.manager.Update(context.Background())
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, errors.GetErrorCode(err))

			e.source.AssertNotCalled(t, "ArchiveStream", mock.Anything, mock.Anything, mock.Anything)
			assert.Equal(t, "trunk/4", e.liveContent())
			assert.True(t, e.exists("trunk/4"))
			assert.False(t, e.exists("trunk/5"))
			assert.False(t, e.exists("beta"))
			assert.Zero(t, e.linker.calls)

			if tt.wantObserved {
				assert.Len(t, e.manager.LastObservedRevisions(), 2)
			} else {
				assert.Equal(t, []string{deploy.NeverObserved}, e.manager.LastObservedStrings())
			}

			report := e.manager.Report()
			assert.False(t, report.Succeeded())
			assert.Equal(t, 1, report.CyclesFailed)
			assert.Equal(t, tt.wantCode, report.LastCode)
		})
	}
}

func TestUpdateGarbageCollection(t *testing.T) {
	e := newEnv(t)
	e.materialized("trunk", 4)
	e.materialized("trunk", 5)
	e.materialized("beta", 2)
	e.materialized("beta", 3)
	e.materialized("retired", 1)
	e.materialized(".cache", 1)
	require.NoError(t, e.fs.MkdirAll(filepath.Join(e.root, "trunk", "notes"), 0755))
	require.NoError(t, e.fs.WriteFile(filepath.Join(e.root, "README"), []byte("hi"), 0644))
	require.NoError(t, e.fs.WriteFile(filepath.Join(e.root, "trunk", ".keep"), nil, 0644))
	e.pointLive("trunk", 4)
	e.manifest("true\ttrunk\t5\nfalse\tbeta\t3\n")

	require.NoError(t, e.manager.Update(context.Background()))

	assert.False(t, e.exists("trunk/4"))
	assert.False(t, e.exists("beta/2"))
	assert.False(t, e.exists("retired"))
	assert.False(t, e.exists("trunk/notes"))
	assert.True(t, e.exists("trunk/5"))
	assert.True(t, e.exists("beta/3"))
	assert.True(t, e.exists(".cache/1"))
	assert.True(t, e.exists("README"))
	assert.True(t, e.exists("trunk/.keep"))
	assert.True(t, e.exists("live"))
	assert.Equal(t, "trunk/5", e.liveContent())

	e.source.AssertNotCalled(t, "ArchiveStream", mock.Anything, mock.Anything, mock.Anything)
	report := e.manager.Report()
	assert.ElementsMatch(t, []string{
		filepath.Join(e.root, "trunk", "4"),
		filepath.Join(e.root, "trunk", "notes"),
		filepath.Join(e.root, "beta", "2"),
		filepath.Join(e.root, "retired"),
	}, report.LastCycle.Removed)
	assert.Zero(t, report.LastCycle.GCFailures)
}

func TestUpdateKeepsStagingOfReferencedRevisions(t *testing.T) {
	e := newEnv(t)
	e.materialized("trunk", 5)
	require.NoError(t, e.fs.MkdirAll(filepath.Join(e.root, "trunk", "5.staging"), 0755))
	require.NoError(t, e.fs.MkdirAll(filepath.Join(e.root, "trunk", "2.staging"), 0755))
	e.manifest("true\ttrunk\t5\n")

	require.NoError(t, e.manager.Update(context.Background()))

	assert.True(t, e.exists("trunk/5.staging"))
	assert.False(t, e.exists("trunk/2.staging"))
}

func TestUpdateSkipsMissingArchive(t *testing.T) {
	e := newEnv(t)
	e.manifest("true\ttrunk\t5\nfalse\tbeta\t9\n")
	e.bundle("trunk", 5)
	e.missing("beta", 9)

	require.NoError(t, e.manager.Update(context.Background()))

	assert.Equal(t, "trunk/5", e.liveContent())
	assert.False(t, e.exists("beta/9"))
	assert.False(t, e.exists("beta/9.staging"))

	report := e.manager.Report()
	assert.Equal(t, []types.RevisionKey{{Branch: "beta", Revision: 9}}, report.LastCycle.Skipped)
	assert.True(t, report.Succeeded())
}

func TestUpdateLiveArchiveUnavailable(t *testing.T) {
	e := newEnv(t)
	e.materialized("trunk", 4)
	e.pointLive("trunk", 4)
	e.manifest("true\ttrunk\t5\n")
	e.missing("trunk", 5)

	err := e.manager.Update(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrLiveRevisionUnavailable))
	details := errors.GetErrorDetails(err)
	assert.Equal(t, "trunk", details["branch"])
	assert.Equal(t, 5, details["revision"])

	assert.Equal(t, "trunk/4", e.liveContent())
	assert.True(t, e.exists("trunk/4"))
	assert.Zero(t, e.linker.calls)
}

func TestUpdateExtractionFailure(t *testing.T) {
	e := newEnv(t)
	e.materialized("trunk", 4)
	e.pointLive("trunk", 4)
	e.manifest("false\tbeta\t3\ntrue\ttrunk\t5\nfalse\tbeta\t4\n")
	e.bundle("beta", 3)
	data := archivetest.TarGzip(t, archivetest.Files(map[string]string{"index.html": "trunk/5"}))
	e.source.On("ArchiveStream", mock.Anything, "trunk", 5).Return(data[:len(data)/2], nil)

	err := e.manager.Update(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrExtraction))
	details := errors.GetErrorDetails(err)
	assert.Equal(t, "trunk", details["branch"])
	assert.Equal(t, 5, details["revision"])
	assert.Equal(t, "extract", details["stage"])

	assert.False(t, e.exists("trunk/5"))
	assert.False(t, e.exists("trunk/5.staging"))
	assert.Equal(t, "trunk/4", e.liveContent())

	// Work finished earlier in the cycle stays for the next attempt.
	assert.True(t, e.exists("beta/3/index.html"))
	e.source.AssertNotCalled(t, "ArchiveStream", mock.Anything, "beta", 4)
}

func TestUpdateReplacesStaleStaging(t *testing.T) {
	e := newEnv(t)
	staging := filepath.Join(e.root, "trunk", "5.staging")
	require.NoError(t, e.fs.MkdirAll(staging, 0755))
	require.NoError(t, e.fs.WriteFile(filepath.Join(staging, "stale.txt"), []byte("crash"), 0644))
	e.manifest("true\ttrunk\t5\n")
	e.bundle("trunk", 5)

	require.NoError(t, e.manager.Update(context.Background()))

	assert.True(t, e.exists("trunk/5/index.html"))
	assert.False(t, e.exists("trunk/5/stale.txt"))
	assert.False(t, e.exists("trunk/5.staging"))
}

func TestUpdateSourceFailures(t *testing.T) {
	t.Run("manifest_not_found", func(t *testing.T) {
		e := newEnv(t)
		e.source.On("ManifestStream", mock.Anything).Return(nil, notFound("config.txt"))

		err := e.manager.Update(context.Background())
		assert.True(t, errors.IsErrorCode(err, errors.ErrManifestUnavailable))
	})

	t.Run("manifest_transport_error", func(t *testing.T) {
		e := newEnv(t)
		e.source.On("ManifestStream", mock.Anything).Return(nil, stderrors.New("connection reset"))

		err := e.manager.Update(context.Background())
		assert.True(t, errors.IsErrorCode(err, errors.ErrSource))
		assert.True(t, errors.IsFatal(errors.GetErrorCode(err)))
	})

	t.Run("archive_transport_error_is_fatal", func(t *testing.T) {
		e := newEnv(t)
		e.manifest("false\tbeta\t3\ntrue\ttrunk\t5\n")
		e.source.On("ArchiveStream", mock.Anything, "beta", 3).Return(nil, stderrors.New("connection reset"))

		err := e.manager.Update(context.Background())
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrSource))
		assert.Equal(t, "fetch", errors.GetErrorDetails(err)["stage"])
		e.source.AssertNotCalled(t, "ArchiveStream", mock.Anything, "trunk", 5)
		assert.False(t, e.exists("live"))
	})
}

func TestUpdateLinkFailure(t *testing.T) {
	e := newEnv(t)
	e.materialized("trunk", 4)
	e.pointLive("trunk", 4)
	e.manifest("true\ttrunk\t5\n")
	e.bundle("trunk", 5)
	e.linker.err = stderrors.New("operation not permitted")

	err := e.manager.Update(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrLink))

	assert.Equal(t, "trunk/4", e.liveContent())
	assert.True(t, e.exists("trunk/5/index.html"))
	// Collection only runs after a successful promotion.
	assert.True(t, e.exists("trunk/4"))
}

func TestUpdateCollectionFailureIsNotFatal(t *testing.T) {
	e := newEnv(t)
	e.materialized("trunk", 5)
	e.materialized("retired", 1)
	e.manifest("true\ttrunk\t5\n")

	failing := &removeFailingFS{FS: e.fs, path: filepath.Join(e.root, "retired")}
	m := e.newManager(failing)

	require.NoError(t, m.Update(context.Background()))

	assert.True(t, e.exists("retired"))
	report := m.Report()
	assert.Equal(t, 1, report.LastCycle.GCFailures)
	assert.True(t, report.Succeeded())
}

func TestUpdateCancelled(t *testing.T) {
	e := newEnv(t)
	e.manifest("true\ttrunk\t5\n")
	e.bundle("trunk", 5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := e.manager.Update(ctx)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrCancelled))
	assert.ErrorIs(t, err, context.Canceled)
	e.source.AssertNotCalled(t, "ArchiveStream", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateSerializesConcurrentCalls(t *testing.T) {
	e := newEnv(t)
	e.manifest("true\ttrunk\t5\nfalse\tbeta\t3\n")
	e.bundle("trunk", 5)
	e.bundle("beta", 3)

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = e.manager.Update(context.Background())
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	e.source.AssertNumberOfCalls(t, "ArchiveStream", 2)
	assert.Equal(t, 1, e.linker.calls)
	assert.Equal(t, 4, e.manager.Report().CyclesRun)
}

func TestUpdateLocalContentDir(t *testing.T) {
	e := newEnv(t)
	local := filepath.Join(t.TempDir(), "site")
	require.NoError(t, e.fs.MkdirAll(local, 0755))
	require.NoError(t, e.fs.WriteFile(filepath.Join(local, "index.html"), []byte("local"), 0644))

	m, err := deploy.New(deploy.Options{
		FS:              e.fs,
		Root:            e.root,
		LocalContentDir: local,
	})
	require.NoError(t, err)

	require.NoError(t, m.Update(context.Background()))
	assert.Equal(t, "local", e.liveContent())
	assert.True(t, m.Report().LastCycle.Promoted)

	require.NoError(t, m.Update(context.Background()))
	assert.False(t, m.Report().LastCycle.Promoted)
	assert.Equal(t, []string{deploy.NeverObserved}, m.LastObservedStrings())
}

func TestUpdateLocalContentDirMissing(t *testing.T) {
	e := newEnv(t)
	m, err := deploy.New(deploy.Options{
		FS:              e.fs,
		Root:            e.root,
		LocalContentDir: filepath.Join(t.TempDir(), "nope"),
	})
	require.NoError(t, err)

	err = m.Update(context.Background())
	assert.True(t, errors.IsErrorCode(err, errors.ErrLiveRevisionUnavailable))
}

func TestNewValidation(t *testing.T) {
	_, err := deploy.New(deploy.Options{Source: &mockSource{}})
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))

	_, err = deploy.New(deploy.Options{Root: t.TempDir()})
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))

	m, err := deploy.New(deploy.Options{Root: "/srv/content", Source: &mockSource{}})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/srv/content", "live"), m.LivePath())
	assert.Equal(t, []string{deploy.NeverObserved}, m.LastObservedStrings())
	assert.Nil(t, m.LastObservedRevisions())

	m, err = deploy.New(deploy.Options{Root: "/srv/content", LivePath: "public/live", Source: &mockSource{}})
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(m.LivePath()))
}

func TestUpdateBranchCollidingWithLivePath(t *testing.T) {
	tests := []struct {
		name     string
		manifest string
		skipped  types.RevisionKey
		wantCode errors.ErrorCode
	}{
		{
			name:     "live_record_on_live_branch",
			manifest: "true\tlive\t7\nfalse\ttrunk\t5\n",
			skipped:  types.RevisionKey{Branch: "live", Revision: 7},
			wantCode: errors.ErrLiveRevisionUnavailable,
		},
		{
			name:     "only_record_on_live_branch",
			manifest: "true\tlive\t7\n",
			skipped:  types.RevisionKey{Branch: "live", Revision: 7},
			wantCode: errors.ErrLiveRevisionUnavailable,
		},
		{
			name:     "other_record_on_live_branch",
			manifest: "true\ttrunk\t5\nfalse\tlive\t7\n",
			skipped:  types.RevisionKey{Branch: "live", Revision: 7},
		},
		{
			name:     "record_on_swap_link_branch",
			manifest: "true\ttrunk\t5\nfalse\tlive.swap\t7\n",
			skipped:  types.RevisionKey{Branch: "live.swap", Revision: 7},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			e.materialized("trunk", 5)
			e.pointLive("trunk", 5)
			e.manifest(tt.manifest)
			e.bundle(tt.skipped.Branch, tt.skipped.Revision)

			err := e.manager.Update(context.Background())
			if tt.wantCode != "" {
				require.Error(t, err)
				assert.True(t, errors.IsErrorCode(err, tt.wantCode))
			} else {
				require.NoError(t, err)
			}

			// The live revision is untouched and still served.
			assert.Equal(t, "trunk/5", e.liveContent())
			assert.True(t, e.exists("trunk/5/index.html"))
			assert.False(t, e.exists("trunk/5/7"))
			assert.False(t, e.exists("trunk/5/7.staging"))
			assert.False(t, e.exists("live.swap"))

			e.source.AssertNotCalled(t, "ArchiveStream", mock.Anything, tt.skipped.Branch, tt.skipped.Revision)
			assert.Equal(t, []types.RevisionKey{tt.skipped}, e.manager.Report().LastCycle.Skipped)
		})
	}
}

func TestUpdateBranchCollidingWithLivePathOnFirstRun(t *testing.T) {
	e := newEnv(t)
	e.manifest("true\tlive\t7\n")
	e.bundle("live", 7)

	err := e.manager.Update(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrLiveRevisionUnavailable))
	assert.False(t, e.exists("live"))
	e.source.AssertNotCalled(t, "ArchiveStream", mock.Anything, "live", 7)
}

func TestUpdateRevisionPathIsNotDirectory(t *testing.T) {
	tests := []struct {
		name     string
		manifest string
		wantCode errors.ErrorCode
	}{
		{"live_record", "true\ttrunk\t5\n", errors.ErrLiveRevisionUnavailable},
		{"other_record", "true\tbeta\t3\nfalse\ttrunk\t5\n", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			stray := filepath.Join(e.root, "trunk", "5")
			require.NoError(t, e.fs.MkdirAll(filepath.Dir(stray), 0755))
			require.NoError(t, e.fs.WriteFile(stray, []byte("not a revision"), 0644))
			e.manifest(tt.manifest)
			e.bundle("beta", 3)
			e.bundle("trunk", 5)

			err := e.manager.Update(context.Background())
			if tt.wantCode != "" {
				require.Error(t, err)
				assert.True(t, errors.IsErrorCode(err, tt.wantCode))
			} else {
				require.NoError(t, err)
				assert.Equal(t, "beta/3", e.liveContent())
			}

			content, err := e.fs.ReadFile(stray)
			require.NoError(t, err)
			assert.Equal(t, "not a revision", string(content))
			assert.False(t, e.exists("trunk/5.staging"))
			e.source.AssertNotCalled(t, "ArchiveStream", mock.Anything, "trunk", 5)
			assert.Equal(t, []types.RevisionKey{{Branch: "trunk", Revision: 5}}, e.manager.Report().LastCycle.Skipped)
		})
	}
}

func TestUpdateBranchDirectoryIsSymlink(t *testing.T) {
	e := newEnv(t)
	elsewhere := t.TempDir()
	require.NoError(t, e.fs.Symlink(elsewhere, filepath.Join(e.root, "mirror")))
	e.manifest("true\ttrunk\t5\nfalse\tmirror\t2\n")
	e.bundle("trunk", 5)
	e.bundle("mirror", 2)

	require.NoError(t, e.manager.Update(context.Background()))

	assert.Equal(t, "trunk/5", e.liveContent())
	_, err := e.fs.Lstat(filepath.Join(elsewhere, "2"))
	assert.Error(t, err)
	assert.True(t, e.exists("mirror"))
	e.source.AssertNotCalled(t, "ArchiveStream", mock.Anything, "mirror", 2)
}

func TestUpdateNestedLivePathSurvivesCollection(t *testing.T) {
	e := newEnv(t)
	live := filepath.Join(e.root, "public", "current")
	m, err := deploy.New(deploy.Options{
		Source:    e.source,
		FS:        e.fs,
		Root:      e.root,
		LivePath:  live,
		Extractor: archive.NewExtractor(),
		Swapper:   link.NewSwapper(e.fs, e.linker),
	})
	require.NoError(t, err)
	e.manifest("true\ttrunk\t5\nfalse\tpublic\t1\n")
	e.bundle("trunk", 5)
	e.bundle("public", 1)

	require.NoError(t, m.Update(context.Background()))

	content, err := e.fs.ReadFile(filepath.Join(live, "index.html"))
	require.NoError(t, err)
	assert.Equal(t, "trunk/5", string(content))
	assert.Equal(t, []types.RevisionKey{{Branch: "public", Revision: 1}}, m.Report().LastCycle.Skipped)
	assert.False(t, e.exists("public/1"))
}
