// Package display turns command results into labelled fields and table
// rows shared by the text and terminal renderers.
package display

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/arthur-debert/revlink/pkg/deploy"
	"github.com/arthur-debert/revlink/pkg/manifest"
	"github.com/arthur-debert/revlink/pkg/types"
)

// None stands in for empty values.
const None = "-"

// Semantic kinds a renderer may style.
const (
	KindPlain   = ""
	KindPath    = "Path"
	KindLive    = "Live"
	KindSuccess = "Success"
	KindError   = "Error"
	KindWarning = "Warning"
	KindMuted   = "Muted"
)

// Field is one labelled line of a summary.
type Field struct {
	Label string
	Value string
	Kind  string
}

// Table is a header row plus data rows.
type Table struct {
	Header []string
	Rows   [][]string
}

// Empty reports whether the table has no data rows.
func (t Table) Empty() bool { return len(t.Rows) == 0 }

// Revisions joins revision numbers with spaces.
func Revisions(revs []int) string {
	if len(revs) == 0 {
		return None
	}
	parts := make([]string, len(revs))
	for i, r := range revs {
		parts[i] = strconv.Itoa(r)
	}
	return strings.Join(parts, " ")
}

// Bytes formats n with a binary unit.
func Bytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func keyOrNone(k *types.RevisionKey) string {
	if k == nil {
		return None
	}
	return k.String()
}

func orNone(s string) string {
	if s == "" {
		return None
	}
	return s
}

func joinKeys(keys []types.RevisionKey) string {
	if len(keys) == 0 {
		return None
	}
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k.String()
	}
	return strings.Join(parts, ", ")
}

// InventoryFields summarises where the live pointer points.
func InventoryFields(inv *deploy.Inventory) []Field {
	liveKind := KindLive
	if inv.Live == nil {
		liveKind = KindWarning
	}
	return []Field{
		{Label: "Content root", Value: inv.Root, Kind: KindPath},
		{Label: "Live path", Value: inv.LivePath, Kind: KindPath},
		{Label: "Target", Value: orNone(inv.LiveTarget), Kind: KindPath},
		{Label: "Live", Value: keyOrNone(inv.Live), Kind: liveKind},
	}
}

// InventoryTable lists revisions on disk per branch.
func InventoryTable(inv *deploy.Inventory) Table {
	t := Table{Header: []string{"BRANCH", "REVISIONS", "STAGING", "LIVE"}}
	for _, b := range inv.Branches {
		live := None
		if inv.Live != nil && inv.Live.Branch == b.Name {
			live = strconv.Itoa(inv.Live.Revision)
		}
		staging := None
		if len(b.Staging) > 0 {
			staging = strings.Join(b.Staging, " ")
		}
		t.Rows = append(t.Rows, []string{b.Name, Revisions(b.Revisions), staging, live})
	}
	return t
}

// ReportFields summarises the last update cycle.
func ReportFields(r *deploy.Report) []Field {
	s := r.LastCycle

	status := Field{Label: "Status", Value: "ok", Kind: KindSuccess}
	switch {
	case r.CyclesRun == 0:
		status = Field{Label: "Status", Value: "no cycle run", Kind: KindMuted}
	case !r.Succeeded():
		status = Field{Label: "Status", Value: r.LastError, Kind: KindError}
	}

	promoted := "no"
	if s.Promoted {
		promoted = "yes"
	}

	live := None
	if s.Live.Branch != "" {
		live = s.Live.String()
	}

	return []Field{
		status,
		{Label: "Live", Value: live, Kind: KindLive},
		{Label: "Target", Value: orNone(r.LiveDir), Kind: KindPath},
		{Label: "Records", Value: strconv.Itoa(s.Records)},
		{Label: "Present", Value: strconv.Itoa(s.Present)},
		{Label: "Downloaded", Value: fmt.Sprintf("%d (%d files, %s)", s.Downloaded, s.Files, Bytes(s.Bytes))},
		{Label: "Skipped", Value: joinKeys(s.Skipped), Kind: warnIf(len(s.Skipped) > 0)},
		{Label: "Promoted", Value: promoted},
		{Label: "Removed", Value: strconv.Itoa(len(s.Removed))},
		{Label: "GC failures", Value: strconv.Itoa(s.GCFailures), Kind: warnIf(s.GCFailures > 0)},
		{Label: "Elapsed", Value: r.LastFinish.Sub(r.LastStart).String(), Kind: KindMuted},
	}
}

func warnIf(cond bool) string {
	if cond {
		return KindWarning
	}
	return KindPlain
}

// CheckTable lists the parsed records.
func CheckTable(c *manifest.Check) Table {
	t := Table{Header: []string{"LIVE", "BRANCH", "REVISION"}}
	for _, rec := range c.Records {
		t.Rows = append(t.Rows, []string{strconv.FormatBool(rec.Live), rec.Branch, strconv.Itoa(rec.Revision)})
	}
	return t
}

// CheckFields reports the warnings and the selection outcome.
func CheckFields(c *manifest.Check) []Field {
	fields := make([]Field, 0, len(c.Warnings)+1)
	for _, w := range c.Warnings {
		fields = append(fields, Field{Label: "Dropped", Value: w.String(), Kind: KindWarning})
	}
	if c.Valid() {
		return append(fields, Field{Label: "Live", Value: c.Live.Key().String(), Kind: KindLive})
	}
	return append(fields, Field{Label: "Invalid", Value: fmt.Sprintf("[%s] %s", c.Code, c.Problem), Kind: KindError})
}
