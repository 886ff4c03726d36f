package deploy

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/arthur-debert/revlink/pkg/errors"
	"github.com/arthur-debert/revlink/pkg/types"
)

// BranchInventory lists what is on disk for one branch.
type BranchInventory struct {
	Name      string   `json:"name" yaml:"name" toml:"name"`
	Revisions []int    `json:"revisions" yaml:"revisions" toml:"revisions"`
	Staging   []string `json:"staging,omitempty" yaml:"staging,omitempty" toml:"staging,omitempty"`
}

// Inventory is the on-disk state of a content root.
type Inventory struct {
	Root       string             `json:"root" yaml:"root" toml:"root"`
	LivePath   string             `json:"livePath" yaml:"livePath" toml:"live_path"`
	LiveTarget string             `json:"liveTarget,omitempty" yaml:"liveTarget,omitempty" toml:"live_target,omitempty"`
	Live       *types.RevisionKey `json:"live,omitempty" yaml:"live,omitempty" toml:"live,omitempty"`
	Branches   []BranchInventory  `json:"branches" yaml:"branches" toml:"branches"`
}

// Inspect reads the content tree under root without modifying it. A
// missing root yields an empty inventory.
func Inspect(fs types.FS, root, livePath string) (*Inventory, error) {
	inv := &Inventory{Root: root, LivePath: livePath, Branches: []BranchInventory{}}
	inv.Live, inv.LiveTarget = liveKey(fs, root, livePath)

	entries, err := fs.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return inv, nil
		}
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "listing content root %s", root).
			WithDetail("path", root)
	}

	for _, entry := range entries {
		path := filepath.Join(root, entry.Name())
		if strings.HasPrefix(entry.Name(), ".") || !entry.IsDir() || path == livePath {
			continue
		}

		branch := BranchInventory{Name: entry.Name(), Revisions: []int{}}
		revisions, err := fs.ReadDir(path)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrFileAccess, "listing branch %s", entry.Name()).
				WithDetail("path", path)
		}
		for _, rev := range revisions {
			if !rev.IsDir() || strings.HasPrefix(rev.Name(), ".") {
				continue
			}
			n, ok := parseRevisionEntry(rev.Name())
			switch {
			case ok && strings.HasSuffix(rev.Name(), types.StagingSuffix):
				branch.Staging = append(branch.Staging, rev.Name())
			case ok:
				branch.Revisions = append(branch.Revisions, n)
			}
		}
		sort.Ints(branch.Revisions)
		sort.Strings(branch.Staging)
		inv.Branches = append(inv.Branches, branch)
	}

	sort.Slice(inv.Branches, func(i, j int) bool { return inv.Branches[i].Name < inv.Branches[j].Name })
	return inv, nil
}
