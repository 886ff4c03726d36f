package deploy

import (
	"context"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/arthur-debert/revlink/pkg/archive"
	"github.com/arthur-debert/revlink/pkg/errors"
	"github.com/arthur-debert/revlink/pkg/filesystem"
	"github.com/arthur-debert/revlink/pkg/link"
	"github.com/arthur-debert/revlink/pkg/logging"
	"github.com/arthur-debert/revlink/pkg/paths"
	"github.com/arthur-debert/revlink/pkg/types"
	"github.com/rs/zerolog"
)

// NeverObserved is reported by LastObservedStrings before any manifest was
// parsed.
const NeverObserved = "never"

// Extractor unpacks an archive stream into a directory.
type Extractor interface {
	Extract(r io.Reader, targetDir string) (*archive.Stats, error)
}

// LinkSwapper points the live path at a revision directory, reporting
// whether anything changed.
type LinkSwapper interface {
	Swap(livePath, targetDir string) (bool, error)
}

// Options configures a Manager.
type Options struct {
	// Source supplies the manifest and archives. It may be nil only when
	// LocalContentDir is set.
	Source types.ContentSource

	// FS defaults to the OS filesystem.
	FS types.FS

	// Root is the content root revisions are materialized under.
	Root string

	// LivePath defaults to <Root>/live.
	LivePath string

	// LocalContentDir, when set, is promoted directly and the source is
	// never consulted.
	LocalContentDir string

	// Extractor defaults to an archive.Extractor on the OS filesystem.
	Extractor Extractor

	// Swapper defaults to a link.Swapper using the platform linker.
	Swapper LinkSwapper

	// Now defaults to time.Now.
	Now func() time.Time
}

// Manager runs update cycles. It is safe for concurrent use; cycles are
// serialized.
type Manager struct {
	source          types.ContentSource
	fs              types.FS
	root            string
	livePath        string
	localContentDir string
	extractor       Extractor
	swapper         LinkSwapper
	now             func() time.Time
	logger          zerolog.Logger

	// mu is held for a whole cycle.
	mu sync.Mutex

	// stateMu guards what readers see while a cycle runs.
	stateMu  sync.RWMutex
	observed []types.RevisionRecord
	report   Report
}

// New validates opts and fills in defaults.
func New(opts Options) (*Manager, error) {
	if opts.Root == "" {
		return nil, errors.New(errors.ErrInvalidInput, "content root is required")
	}
	if opts.Source == nil && opts.LocalContentDir == "" {
		return nil, errors.New(errors.ErrInvalidInput, "a content source is required")
	}

	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "resolving content root %s", opts.Root)
	}

	m := &Manager{
		source:          opts.Source,
		fs:              opts.FS,
		root:            root,
		livePath:        opts.LivePath,
		localContentDir: opts.LocalContentDir,
		extractor:       opts.Extractor,
		swapper:         opts.Swapper,
		now:             opts.Now,
		logger:          logging.GetLogger("deploy"),
	}
	if m.fs == nil {
		m.fs = filesystem.NewOS()
	}
	if m.livePath == "" {
		m.livePath = filepath.Join(root, paths.LiveLinkName)
	} else if m.livePath, err = filepath.Abs(m.livePath); err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "resolving live path %s", opts.LivePath)
	}
	if m.extractor == nil {
		m.extractor = archive.NewExtractor()
	}
	if m.swapper == nil {
		m.swapper = link.NewSwapper(m.fs, link.DefaultLinker(m.fs))
	}
	if m.now == nil {
		m.now = time.Now
	}
	m.report.Root = m.root
	m.report.LivePath = m.livePath
	return m, nil
}

// Root returns the absolute content root.
func (m *Manager) Root() string { return m.root }

// LivePath returns the path of the live pointer.
func (m *Manager) LivePath() string { return m.livePath }

// Update runs one cycle. Fatal conditions abort the cycle and leave the
// live pointer as it was; revisions materialized before the failure stay
// for the next attempt.
func (m *Manager) Update(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	done := logging.LogOperationStart(m.logger, "update")
	defer done()

	started := m.now()
	stats := &CycleStats{}

	var err error
	if m.localContentDir != "" {
		err = m.promoteLocal(stats)
	} else {
		err = m.runCycle(ctx, stats)
	}

	m.finishCycle(started, stats, err)
	return err
}

// LastObservedRevisions returns the records of the most recently parsed
// manifest, or nil before the first one.
func (m *Manager) LastObservedRevisions() []types.RevisionRecord {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	if m.observed == nil {
		return nil
	}
	return append([]types.RevisionRecord(nil), m.observed...)
}

// LastObservedStrings renders LastObservedRevisions for status output.
func (m *Manager) LastObservedStrings() []string {
	records := m.LastObservedRevisions()
	if records == nil {
		return []string{NeverObserved}
	}
	out := make([]string, len(records))
	for i, rec := range records {
		out[i] = rec.String()
	}
	return out
}

func (m *Manager) setObserved(records []types.RevisionRecord) {
	m.stateMu.Lock()
	m.observed = append([]types.RevisionRecord(nil), records...)
	m.stateMu.Unlock()
}

// promoteLocal points the live path straight at the local content
// directory.
func (m *Manager) promoteLocal(stats *CycleStats) error {
	info, err := m.fs.Stat(m.localContentDir)
	if err != nil || !info.IsDir() {
		e := errors.Newf(errors.ErrLiveRevisionUnavailable, "local content directory %s is not a directory", m.localContentDir).
			WithDetail("path", m.localContentDir).
			WithDetail("stage", "promote")
		if err != nil {
			e.Wrapped = err
		}
		return e
	}

	changed, err := m.swapper.Swap(m.livePath, m.localContentDir)
	if err != nil {
		return withCode(err, errors.ErrLink, "promoting %s", m.localContentDir).
			WithDetail("path", m.localContentDir).
			WithDetail("stage", "promote")
	}
	stats.Promoted = changed
	return nil
}
