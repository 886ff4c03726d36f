package paths

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/arthur-debert/revlink/pkg/errors"
	"github.com/arthur-debert/revlink/pkg/types"
)

// Environment variable names
const (
	// EnvDataDir overrides the XDG data directory for revlink
	EnvDataDir = "REVLINK_DATA_DIR"

	// EnvConfigDir overrides the XDG config directory for revlink
	EnvConfigDir = "REVLINK_CONFIG_DIR"

	// EnvStateDir overrides the XDG state directory for revlink
	EnvStateDir = "REVLINK_STATE_DIR"

	// EnvHome is the standard home directory variable
	EnvHome = "HOME"
)

// Default directories and files
const (
	// AppDirName is the directory name for revlink files under each XDG base
	AppDirName = "revlink"

	// ContentDirName is the default content root below the data directory
	ContentDirName = "content"

	// LiveLinkName is the default name of the live pointer in the content root
	LiveLinkName = "live"

	// ConfigFileName is the name of the user configuration file
	ConfigFileName = "config.toml"

	// LogFileName is the name of the log file
	LogFileName = "revlink.log"
)

// Paths provides centralized path management for revlink
type Paths interface {
	ContentRoot() string
	LivePath() string
	DataDir() string
	ConfigDir() string
	StateDir() string
	ConfigFile() string
	LogFilePath() string
	NormalizePath(path string) (string, error)
	IsInContentRoot(path string) (bool, error)
}

var _ types.Pather = (*paths)(nil)

type paths struct {
	contentRoot string
	livePath    string

	xdgData   string
	xdgConfig string
	xdgState  string
}

// New creates a Paths instance. An empty contentRoot defaults to
// <data>/content, an empty livePath to <contentRoot>/live. Both are made
// absolute with ~ expanded.
func New(contentRoot, livePath string) (Paths, error) {
	p := &paths{}
	p.setupXDGDirs()

	if contentRoot == "" {
		contentRoot = filepath.Join(p.xdgData, ContentDirName)
	}
	root, err := p.NormalizePath(contentRoot)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "failed to resolve content root")
	}
	p.contentRoot = root

	if livePath == "" {
		livePath = filepath.Join(p.contentRoot, LiveLinkName)
	}
	live, err := p.NormalizePath(livePath)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "failed to resolve live path")
	}
	p.livePath = live

	return p, nil
}

// setupXDGDirs initializes XDG directories, respecting environment overrides
func (p *paths) setupXDGDirs() {
	p.xdgData = dirFromEnv(EnvDataDir, xdg.DataHome)
	p.xdgConfig = dirFromEnv(EnvConfigDir, xdg.ConfigHome)
	p.xdgState = dirFromEnv(EnvStateDir, xdg.StateHome)
}

func dirFromEnv(env, base string) string {
	if dir := os.Getenv(env); dir != "" {
		return expandHome(dir)
	}
	return filepath.Join(base, AppDirName)
}

// expandHome expands ~ to the home directory
func expandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = os.Getenv(EnvHome)
		if homeDir == "" {
			return path
		}
	}

	if len(path) == 1 {
		return homeDir
	}
	if path[1] == '/' || path[1] == filepath.Separator {
		return filepath.Join(homeDir, path[2:])
	}

	// ~user is left alone
	return path
}

// ContentRoot returns the directory revisions are materialized under
func (p *paths) ContentRoot() string {
	return p.contentRoot
}

// LivePath returns the path of the live pointer
func (p *paths) LivePath() string {
	return p.livePath
}

// DataDir returns the XDG data directory for revlink
func (p *paths) DataDir() string {
	return p.xdgData
}

// ConfigDir returns the XDG config directory for revlink
func (p *paths) ConfigDir() string {
	return p.xdgConfig
}

// StateDir returns the XDG state directory for revlink
func (p *paths) StateDir() string {
	return p.xdgState
}

// ConfigFile returns the default user configuration file
func (p *paths) ConfigFile() string {
	return filepath.Join(p.xdgConfig, ConfigFileName)
}

// LogFilePath returns the log file location
func (p *paths) LogFilePath() string {
	return filepath.Join(p.xdgState, LogFileName)
}

// NormalizePath expands home, makes the path absolute and cleans it
func (p *paths) NormalizePath(path string) (string, error) {
	if path == "" {
		return "", errors.New(errors.ErrInvalidInput, "empty path")
	}

	abs, err := filepath.Abs(expandHome(path))
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrFileAccess, "failed to get absolute path")
	}
	return filepath.Clean(abs), nil
}

// IsInContentRoot checks if a path is within the content root
func (p *paths) IsInContentRoot(path string) (bool, error) {
	normalized, err := p.NormalizePath(path)
	if err != nil {
		return false, err
	}

	rel, err := filepath.Rel(p.contentRoot, normalized)
	if err != nil {
		return false, nil
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)), nil
}

// ExpandHome expands a leading ~ in path
func ExpandHome(path string) string {
	return expandHome(path)
}
