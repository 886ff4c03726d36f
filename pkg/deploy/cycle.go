package deploy

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/revlink/pkg/errors"
	"github.com/arthur-debert/revlink/pkg/link"
	"github.com/arthur-debert/revlink/pkg/manifest"
	"github.com/arthur-debert/revlink/pkg/types"
)

// Cycle stages reported in error details.
const (
	stageManifest = "manifest"
	stageValidate = "validate"
	stagePrepare  = "prepare"
	stageFetch    = "fetch"
	stageExtract  = "extract"
	stagePromote  = "promote"
	stageCollect  = "collect"
)

func (m *Manager) runCycle(ctx context.Context, stats *CycleStats) error {
	records, err := m.readManifest(ctx)
	if err != nil {
		return err
	}
	stats.Records = len(records)

	// Nothing is downloaded for a manifest without exactly one live record.
	live, err := manifest.SelectLive(records)
	if err != nil {
		return withStage(err, stageValidate)
	}
	stats.Live = live.Key()

	referenced := make(map[types.RevisionKey]struct{}, len(records))
	unusable := make(map[types.RevisionKey]string)
	for _, rec := range records {
		referenced[rec.Key()] = struct{}{}
		if reason := m.pathConflict(rec); reason != "" {
			unusable[rec.Key()] = reason
		}
	}

	var target string
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, errors.ErrCancelled, "update cycle cancelled").
				WithDetail("branch", rec.Branch).
				WithDetail("revision", rec.Revision)
		}

		if reason, ok := unusable[rec.Key()]; ok {
			m.logger.Warn().
				Str("branch", rec.Branch).
				Int("revision", rec.Revision).
				Bool("live", rec.Live).
				Str("reason", reason).
				Msg("Revision path unusable, skipping revision")
			stats.Skipped = append(stats.Skipped, rec.Key())
			continue
		}

		dir, ok, err := m.materialize(ctx, rec, stats)
		if err != nil {
			return err
		}
		if ok && rec.Live {
			target = dir
		}
	}

	if target == "" {
		return errors.Newf(errors.ErrLiveRevisionUnavailable,
			"live revision %s could not be materialized", live.Key()).
			WithDetails(recordDetails(live, stagePromote))
	}

	changed, err := m.swapper.Swap(m.livePath, target)
	if err != nil {
		return withCode(err, errors.ErrLink, "promoting %s", live.Key()).
			WithDetails(recordDetails(live, stagePromote))
	}
	stats.Promoted = changed

	m.collect(referenced, stats)
	return nil
}

// readManifest fetches and parses the manifest. Parsed records become the
// last observed ones even when validation fails afterwards.
func (m *Manager) readManifest(ctx context.Context) ([]types.RevisionRecord, error) {
	rc, err := m.source.ManifestStream(ctx)
	if err != nil {
		if stderrors.Is(err, types.ErrNotFound) {
			return nil, errors.Wrap(err, errors.ErrManifestUnavailable, "manifest not found").
				WithDetail("stage", stageManifest)
		}
		return nil, withCode(err, errors.ErrSource, "fetching manifest").
			WithDetail("stage", stageManifest)
	}
	defer rc.Close()

	result, err := manifest.Parse(rc)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrSource, "reading manifest").
			WithDetail("stage", stageManifest)
	}

	for _, w := range result.Warnings {
		m.logger.Warn().
			Int("line", w.Line).
			Str("reason", w.Reason).
			Str("text", w.Text).
			Msg("Skipping manifest line")
	}

	if len(result.Records) == 0 {
		return nil, errors.New(errors.ErrEmptyManifest, "no revisions read from manifest").
			WithDetail("stage", stageManifest).
			WithDetail("warnings", len(result.Warnings))
	}

	m.setObserved(result.Records)
	m.logger.Debug().Int("records", len(result.Records)).Msg("Manifest parsed")
	return result.Records, nil
}

// pathConflict explains why rec cannot live under the content root, or
// returns "" when it can. The branch directory must not be the live
// pointer, its temporary link or one of their parents, and whatever
// already exists at the branch or revision path must be a real directory.
func (m *Manager) pathConflict(rec types.RevisionRecord) string {
	branchDir := filepath.Join(m.root, rec.Branch)
	for _, reserved := range []string{m.livePath, m.livePath + link.TempSuffix} {
		if within(reserved, branchDir) {
			return fmt.Sprintf("branch directory %s collides with live path %s", branchDir, m.livePath)
		}
	}

	revDir := filepath.Join(branchDir, types.RevisionDirName(rec.Revision))
	for _, path := range []string{branchDir, revDir} {
		info, err := m.fs.Lstat(path)
		if err != nil {
			// Absent paths are created later; anything else fails there.
			return ""
		}
		if !info.IsDir() {
			return fmt.Sprintf("%s exists and is not a directory", path)
		}
	}
	return ""
}

// within reports whether path is dir or lies below it.
func within(path, dir string) bool {
	return path == dir || strings.HasPrefix(path, dir+string(filepath.Separator))
}

// materialize makes sure the revision directory of rec exists. It reports
// false without an error when the source has no archive for rec.
func (m *Manager) materialize(ctx context.Context, rec types.RevisionRecord, stats *CycleStats) (string, bool, error) {
	branchDir := filepath.Join(m.root, rec.Branch)
	revDir := filepath.Join(branchDir, types.RevisionDirName(rec.Revision))
	logger := m.logger.With().Str("branch", rec.Branch).Int("revision", rec.Revision).Logger()

	if info, err := m.fs.Lstat(revDir); err == nil && info.IsDir() {
		stats.Present++
		logger.Debug().Str("path", revDir).Msg("Revision already materialized")
		return revDir, true, nil
	}

	if err := m.fs.MkdirAll(branchDir, 0755); err != nil {
		return "", false, errors.Wrapf(err, errors.ErrDirCreate, "creating branch directory %s", branchDir).
			WithDetails(recordDetails(rec, stagePrepare)).
			WithDetail("path", branchDir)
	}

	// A staging directory left here belongs to a crashed attempt.
	staging := filepath.Join(branchDir, types.StagingDirName(rec.Revision))
	if err := m.fs.RemoveAll(staging); err != nil {
		return "", false, errors.Wrapf(err, errors.ErrFileAccess, "removing stale staging directory %s", staging).
			WithDetails(recordDetails(rec, stagePrepare)).
			WithDetail("path", staging)
	}

	rc, err := m.source.ArchiveStream(ctx, rec.Branch, rec.Revision)
	if err != nil {
		if stderrors.Is(err, types.ErrNotFound) {
			unavailable := errors.Wrapf(err, errors.ErrArchiveUnavailable, "archive for %s not found", rec.Key()).
				WithDetails(recordDetails(rec, stageFetch))
			logger.Warn().
				Err(unavailable).
				Str("code", string(unavailable.Code)).
				Bool("live", rec.Live).
				Msg("Archive unavailable, skipping revision")
			stats.Skipped = append(stats.Skipped, rec.Key())
			return "", false, nil
		}
		return "", false, withCode(err, errors.ErrSource, "fetching archive for %s", rec.Key()).
			WithDetails(recordDetails(rec, stageFetch))
	}

	extracted, err := m.extractor.Extract(rc, staging)
	if closeErr := rc.Close(); err == nil && closeErr != nil {
		err = closeErr
	}
	if err != nil {
		m.discardStaging(staging)
		return "", false, withCode(err, errors.ErrExtraction, "extracting %s", rec.Key()).
			WithDetails(recordDetails(rec, stageExtract)).
			WithDetail("path", staging)
	}

	if err := m.fs.Rename(staging, revDir); err != nil {
		m.discardStaging(staging)
		return "", false, errors.Wrapf(err, errors.ErrExtraction, "moving %s into place", rec.Key()).
			WithDetails(recordDetails(rec, stageExtract)).
			WithDetail("path", revDir)
	}

	stats.Downloaded++
	if extracted != nil {
		stats.Files += extracted.Files
		stats.Bytes += extracted.Bytes
		logger.Info().
			Str("path", revDir).
			Int("files", extracted.Files).
			Int64("bytes", extracted.Bytes).
			Str("format", extracted.Format.String()).
			Msg("Revision materialized")
	}
	return revDir, true, nil
}

func (m *Manager) discardStaging(staging string) {
	if err := m.fs.RemoveAll(staging); err != nil && !os.IsNotExist(err) {
		m.logger.Warn().Err(err).Str("path", staging).Msg("Could not remove staging directory")
	}
}

func recordDetails(rec types.RevisionRecord, stage string) map[string]interface{} {
	return map[string]interface{}{
		"branch":   rec.Branch,
		"revision": rec.Revision,
		"stage":    stage,
	}
}

// withCode reuses err when it already carries code and wraps it otherwise.
func withCode(err error, code errors.ErrorCode, format string, args ...interface{}) *errors.Error {
	var coded *errors.Error
	if stderrors.As(err, &coded) && coded.Code == code {
		return coded
	}
	return errors.Wrapf(err, code, format, args...)
}

// withStage tags a structured error with the cycle stage it came from.
func withStage(err error, stage string) error {
	var coded *errors.Error
	if stderrors.As(err, &coded) {
		return coded.WithDetail("stage", stage)
	}
	return err
}
