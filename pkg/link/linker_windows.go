//go:build windows

package link

import (
	"fmt"
	"os/exec"

	"github.com/arthur-debert/revlink/pkg/types"
)

// JunctionLinker makes directory junctions with mklink, which unlike
// symlinks need no special privilege.
type JunctionLinker struct{}

func (JunctionLinker) CreateDirectoryLink(target, linkPath string) error {
	cmd := exec.Command("cmd", "/c", "mklink", "/J", linkPath, target)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("mklink failed: %w\nOutput: %s", err, output)
	}
	return nil
}

// MoveFileEx cannot replace a directory junction.
func (JunctionLinker) ReplacesOnRename() bool { return false }

// DefaultLinker returns the directory linker for this platform.
func DefaultLinker(_ types.FS) DirLinker {
	return JunctionLinker{}
}
