package types

import (
	"fmt"
	"strconv"
)

// RevisionRecord is one manifest line: a branch, an integer revision and
// whether that revision is the one to serve.
type RevisionRecord struct {
	Live     bool   `json:"live" yaml:"live" toml:"live"`
	Branch   string `json:"branch" yaml:"branch" toml:"branch"`
	Revision int    `json:"revision" yaml:"revision" toml:"revision"`
}

// RevisionKey identifies a materialized revision directory.
type RevisionKey struct {
	Branch   string `json:"branch" yaml:"branch" toml:"branch"`
	Revision int    `json:"revision" yaml:"revision" toml:"revision"`
}

// Key returns the comparable identity of the record.
func (r RevisionRecord) Key() RevisionKey {
	return RevisionKey{Branch: r.Branch, Revision: r.Revision}
}

func (r RevisionRecord) String() string {
	return fmt.Sprintf("branch %s, rev %d, live %t", r.Branch, r.Revision, r.Live)
}

func (k RevisionKey) String() string {
	return k.Branch + "/" + strconv.Itoa(k.Revision)
}

// RevisionDirName is the on-disk name of a materialized revision.
func RevisionDirName(revision int) string {
	return strconv.Itoa(revision)
}

// StagingSuffix marks an in-progress extraction directory.
const StagingSuffix = ".staging"

// StagingDirName is the on-disk name of a revision's extraction target.
func StagingDirName(revision int) string {
	return strconv.Itoa(revision) + StagingSuffix
}
