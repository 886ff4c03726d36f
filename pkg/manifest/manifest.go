package manifest

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/arthur-debert/revlink/pkg/types"
)

const (
	commentPrefix  = "#"
	fieldSeparator = "\t"
	minFields      = 3
)

// Reasons a line is dropped.
const (
	ReasonTooFewFields    = "too few fields"
	ReasonInvalidBranch   = "invalid branch"
	ReasonInvalidRevision = "invalid revision"
)

// Warning describes a dropped line.
type Warning struct {
	Line   int    `json:"line" yaml:"line" toml:"line"`
	Text   string `json:"text" yaml:"text" toml:"text"`
	Reason string `json:"reason" yaml:"reason" toml:"reason"`
}

func (w Warning) String() string {
	return fmt.Sprintf("line %d: %s: %q", w.Line, w.Reason, w.Text)
}

// Result is the outcome of parsing a manifest.
type Result struct {
	Records  []types.RevisionRecord `json:"records" yaml:"records" toml:"records"`
	Warnings []Warning              `json:"warnings,omitempty" yaml:"warnings,omitempty" toml:"warnings,omitempty"`
}

// Live returns the records marked live, in manifest order.
func (r *Result) Live() []types.RevisionRecord {
	var live []types.RevisionRecord
	for _, rec := range r.Records {
		if rec.Live {
			live = append(live, rec)
		}
	}
	return live
}

// Parse reads manifest records from r. It only fails if r does.
func Parse(r io.Reader) (*Result, error) {
	result := &Result{}
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if line == "" || strings.HasPrefix(line, commentPrefix) {
			continue
		}

		rec, reason := parseLine(line)
		if reason != "" {
			result.Warnings = append(result.Warnings, Warning{Line: lineNo, Text: line, Reason: reason})
			continue
		}
		result.Records = append(result.Records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	return result, nil
}

// ParseString parses manifest text held in memory.
func ParseString(text string) *Result {
	// A strings.Reader never fails, so neither does Parse.
	result, _ := Parse(strings.NewReader(text))
	return result
}

func parseLine(line string) (types.RevisionRecord, string) {
	// Runs of tabs count as one separator so columns can be aligned.
	parts := strings.FieldsFunc(line, func(r rune) bool { return r == '\t' })
	if len(parts) < minFields {
		return types.RevisionRecord{}, ReasonTooFewFields
	}

	branch := parts[1]
	if !ValidBranch(branch) {
		return types.RevisionRecord{}, ReasonInvalidBranch
	}
	revision, err := strconv.Atoi(parts[2])
	if err != nil {
		return types.RevisionRecord{}, ReasonInvalidRevision
	}

	return types.RevisionRecord{
		Live:     strings.EqualFold(parts[0], "true"),
		Branch:   branch,
		Revision: revision,
	}, ""
}

// ValidBranch reports whether name can be used as a branch directory. The
// name must be a single non-blank path element that does not start with a
// dot, since dot entries are never collected.
func ValidBranch(name string) bool {
	if strings.TrimSpace(name) == "" {
		return false
	}
	if strings.HasPrefix(name, ".") {
		return false
	}
	return !strings.ContainsAny(name, `/\`)
}

// Format renders a record as a manifest line without the newline.
func Format(rec types.RevisionRecord) string {
	return strconv.FormatBool(rec.Live) + fieldSeparator + rec.Branch + fieldSeparator + strconv.Itoa(rec.Revision)
}

// FormatAll renders a complete manifest with a header comment.
func FormatAll(records []types.RevisionRecord) string {
	var b strings.Builder
	b.WriteString("# live\tbranch\trevision\n")
	for _, rec := range records {
		b.WriteString(Format(rec))
		b.WriteByte('\n')
	}
	return b.String()
}
