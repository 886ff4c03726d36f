package deploy

import (
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/arthur-debert/revlink/pkg/errors"
	"github.com/arthur-debert/revlink/pkg/link"
	"github.com/arthur-debert/revlink/pkg/types"
)

// collect removes branch and revision directories the manifest no longer
// references. Failures are logged and counted, never returned.
func (m *Manager) collect(referenced map[types.RevisionKey]struct{}, stats *CycleStats) {
	branches := make(map[string]struct{}, len(referenced))
	for key := range referenced {
		branches[key.Branch] = struct{}{}
	}

	// The live target is protected even if the manifest stopped naming it.
	if live, _ := liveKey(m.fs, m.root, m.livePath); live != nil {
		referenced[*live] = struct{}{}
		branches[live.Branch] = struct{}{}
	}

	entries, err := m.fs.ReadDir(m.root)
	if err != nil {
		m.gcFailed(stats, errors.Wrapf(err, errors.ErrGC, "listing content root %s", m.root).
			WithDetail("path", m.root).
			WithDetail("stage", stageCollect))
		return
	}

	var kept []string
	for _, entry := range entries {
		if !m.collectable(entry.Name(), entry.IsDir(), filepath.Join(m.root, entry.Name())) {
			continue
		}
		if _, ok := branches[entry.Name()]; ok {
			kept = append(kept, entry.Name())
			continue
		}
		m.remove(filepath.Join(m.root, entry.Name()), stats)
	}

	sort.Strings(kept)
	for _, branch := range kept {
		branchDir := filepath.Join(m.root, branch)
		revisions, err := m.fs.ReadDir(branchDir)
		if err != nil {
			m.gcFailed(stats, errors.Wrapf(err, errors.ErrGC, "listing branch %s", branch).
				WithDetail("branch", branch).
				WithDetail("path", branchDir).
				WithDetail("stage", stageCollect))
			continue
		}

		for _, entry := range revisions {
			path := filepath.Join(branchDir, entry.Name())
			if !m.collectable(entry.Name(), entry.IsDir(), path) {
				continue
			}
			if rev, ok := parseRevisionEntry(entry.Name()); ok {
				if _, ok := referenced[types.RevisionKey{Branch: branch, Revision: rev}]; ok {
					continue
				}
			}
			m.remove(path, stats)
		}
	}
}

// collectable filters out dot entries, anything that is not a real
// directory, and the live pointer along with the directories holding it.
func (m *Manager) collectable(name string, isDir bool, path string) bool {
	if strings.HasPrefix(name, ".") || !isDir {
		return false
	}
	return !within(m.livePath, path)
}

func (m *Manager) remove(path string, stats *CycleStats) {
	if err := m.fs.RemoveAll(path); err != nil {
		m.gcFailed(stats, errors.Wrapf(err, errors.ErrGC, "could not remove %s", path).
			WithDetail("path", path).
			WithDetail("stage", stageCollect))
		return
	}
	stats.Removed = append(stats.Removed, path)
	m.logger.Info().Str("path", path).Msg("Removed unreferenced content")
}

func (m *Manager) gcFailed(stats *CycleStats, err *errors.Error) {
	stats.GCFailures++
	m.logger.Warn().
		Err(err).
		Str("code", string(err.Code)).
		Fields(err.Details).
		Msg("Garbage collection step failed")
}

// parseRevisionEntry maps "5" and "5.staging" to revision 5. Names that
// are not in canonical integer form belong to no revision.
func parseRevisionEntry(name string) (int, bool) {
	base := strings.TrimSuffix(name, types.StagingSuffix)
	rev, err := strconv.Atoi(base)
	if err != nil || strconv.Itoa(rev) != base {
		return 0, false
	}
	return rev, true
}

// liveKey resolves the live pointer to the revision it serves. It returns
// nil when the pointer is absent or points outside root/<branch>/<rev>.
func liveKey(fs types.FS, root, livePath string) (*types.RevisionKey, string) {
	target, err := link.Resolve(fs, livePath)
	if err != nil || target == "" {
		return nil, target
	}

	canonicalRoot, err := fs.EvalSymlinks(root)
	if err != nil {
		return nil, target
	}
	rel, err := filepath.Rel(canonicalRoot, target)
	if err != nil {
		return nil, target
	}

	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) != 2 || parts[0] == ".." {
		return nil, target
	}
	rev, err := strconv.Atoi(parts[1])
	if err != nil || strconv.Itoa(rev) != parts[1] {
		return nil, target
	}
	return &types.RevisionKey{Branch: parts[0], Revision: rev}, target
}
