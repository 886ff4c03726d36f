package deploy

import (
	"fmt"
	"time"

	"github.com/arthur-debert/revlink/pkg/errors"
	"github.com/arthur-debert/revlink/pkg/link"
	"github.com/arthur-debert/revlink/pkg/types"
)

// CycleStats describes what one update cycle did.
type CycleStats struct {
	Records    int                 `json:"records" yaml:"records" toml:"records"`
	Live       types.RevisionKey   `json:"live" yaml:"live" toml:"live"`
	Present    int                 `json:"present" yaml:"present" toml:"present"`
	Downloaded int                 `json:"downloaded" yaml:"downloaded" toml:"downloaded"`
	Files      int                 `json:"files" yaml:"files" toml:"files"`
	Bytes      int64               `json:"bytes" yaml:"bytes" toml:"bytes"`
	Skipped    []types.RevisionKey `json:"skipped,omitempty" yaml:"skipped,omitempty" toml:"skipped,omitempty"`
	Promoted   bool                `json:"promoted" yaml:"promoted" toml:"promoted"`
	Removed    []string            `json:"removed,omitempty" yaml:"removed,omitempty" toml:"removed,omitempty"`
	GCFailures int                 `json:"gcFailures" yaml:"gcFailures" toml:"gc_failures"`
}

func (s CycleStats) String() string {
	return fmt.Sprintf("%d records, %d present, %d downloaded, %d skipped, promoted %t, %d removed",
		s.Records, s.Present, s.Downloaded, len(s.Skipped), s.Promoted, len(s.Removed))
}

// Report is a snapshot for status tooling.
type Report struct {
	Root         string                 `json:"root" yaml:"root" toml:"root"`
	LivePath     string                 `json:"livePath" yaml:"livePath" toml:"live_path"`
	LiveDir      string                 `json:"liveDir" yaml:"liveDir" toml:"live_dir"`
	LastObserved []types.RevisionRecord `json:"lastObserved" yaml:"lastObserved" toml:"last_observed"`
	LastStart    time.Time              `json:"lastStart" yaml:"lastStart" toml:"last_start"`
	LastFinish   time.Time              `json:"lastFinish" yaml:"lastFinish" toml:"last_finish"`
	LastCode     errors.ErrorCode       `json:"lastCode,omitempty" yaml:"lastCode,omitempty" toml:"last_code,omitempty"`
	LastError    string                 `json:"lastError,omitempty" yaml:"lastError,omitempty" toml:"last_error,omitempty"`
	CyclesRun    int                    `json:"cyclesRun" yaml:"cyclesRun" toml:"cycles_run"`
	CyclesFailed int                    `json:"cyclesFailed" yaml:"cyclesFailed" toml:"cycles_failed"`
	LastCycle    CycleStats             `json:"lastCycle" yaml:"lastCycle" toml:"last_cycle"`
}

// Succeeded reports whether the last cycle finished without error.
func (r Report) Succeeded() bool {
	return r.CyclesRun > 0 && r.LastCode == ""
}

// Report returns a snapshot of the manager's reporting state.
func (m *Manager) Report() Report {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()

	r := m.report
	if m.observed != nil {
		r.LastObserved = append([]types.RevisionRecord(nil), m.observed...)
	}
	r.LastCycle.Skipped = append([]types.RevisionKey(nil), m.report.LastCycle.Skipped...)
	r.LastCycle.Removed = append([]string(nil), m.report.LastCycle.Removed...)
	return r
}

func (m *Manager) finishCycle(started time.Time, stats *CycleStats, err error) {
	liveDir, _ := link.Resolve(m.fs, m.livePath)
	finished := m.now()

	m.stateMu.Lock()
	m.report.LastStart = started
	m.report.LastFinish = finished
	m.report.LiveDir = liveDir
	m.report.CyclesRun++
	m.report.LastCycle = *stats
	m.report.LastCode = ""
	m.report.LastError = ""
	if err != nil {
		m.report.CyclesFailed++
		m.report.LastCode = errors.GetErrorCode(err)
		m.report.LastError = err.Error()
	}
	m.stateMu.Unlock()

	if err != nil {
		m.logger.Error().
			Err(err).
			Str("code", string(errors.GetErrorCode(err))).
			Fields(errors.GetErrorDetails(err)).
			Dur("elapsed", finished.Sub(started)).
			Msg("Update cycle failed")
		return
	}
	m.logger.Info().
		Str("live", liveDir).
		Str("stats", stats.String()).
		Dur("elapsed", finished.Sub(started)).
		Msg("Update cycle complete")
}
