package version

import "fmt"

// Build information set by ldflags:
//
//	-X github.com/arthur-debert/revlink/internal/version.Version={{.Version}}
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Short returns the version with the abbreviated commit, for headers.
func Short() string {
	if len(Commit) > 7 {
		return fmt.Sprintf("%s (%s)", Version, Commit[:7])
	}
	return fmt.Sprintf("%s (%s)", Version, Commit)
}
