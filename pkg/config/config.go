package config

import (
	"time"

	"github.com/arthur-debert/revlink/pkg/errors"
)

// Source kinds
const (
	SourceDir  = "dir"
	SourceHTTP = "http"
)

// Config is the resolved revlink configuration
type Config struct {
	Root            string        `koanf:"root" json:"root" yaml:"root" toml:"root"`
	LivePath        string        `koanf:"live_path" json:"livePath" yaml:"livePath" toml:"live_path"`
	LocalContentDir string        `koanf:"local_content_dir" json:"localContentDir" yaml:"localContentDir" toml:"local_content_dir"`
	Interval        time.Duration `koanf:"interval" json:"interval" yaml:"interval" toml:"interval"`
	Source          Source        `koanf:"source" json:"source" yaml:"source" toml:"source"`
	Archive         Archive       `koanf:"archive" json:"archive" yaml:"archive" toml:"archive"`
}

// Source selects where manifests and archives come from
type Source struct {
	Kind     string        `koanf:"kind" json:"kind" yaml:"kind" toml:"kind"`
	Dir      string        `koanf:"dir" json:"dir" yaml:"dir" toml:"dir"`
	URL      string        `koanf:"url" json:"url" yaml:"url" toml:"url"`
	Manifest string        `koanf:"manifest" json:"manifest" yaml:"manifest" toml:"manifest"`
	Timeout  time.Duration `koanf:"timeout" json:"timeout" yaml:"timeout" toml:"timeout"`
	Verify   bool          `koanf:"verify" json:"verify" yaml:"verify" toml:"verify"`
}

// Archive holds extraction limits
type Archive struct {
	MaxFiles int   `koanf:"max_files" json:"maxFiles" yaml:"maxFiles" toml:"max_files"`
	MaxBytes int64 `koanf:"max_bytes" json:"maxBytes" yaml:"maxBytes" toml:"max_bytes"`
}

// Validate reports the first setting that cannot work
func (c *Config) Validate() error {
	if c.Interval <= 0 {
		return invalid("interval", "interval must be positive, got %s", c.Interval)
	}
	if c.Archive.MaxFiles < 0 {
		return invalid("archive.max_files", "archive.max_files must not be negative")
	}
	if c.Archive.MaxBytes < 0 {
		return invalid("archive.max_bytes", "archive.max_bytes must not be negative")
	}

	// A local content directory replaces the source entirely.
	if c.LocalContentDir != "" {
		return nil
	}

	switch c.Source.Kind {
	case SourceDir:
		if c.Source.Dir == "" {
			return invalid("source.dir", "source.dir is required for the dir source")
		}
	case SourceHTTP:
		if c.Source.URL == "" {
			return invalid("source.url", "source.url is required for the http source")
		}
	default:
		return invalid("source.kind", "unknown source kind %q (want %s or %s)", c.Source.Kind, SourceDir, SourceHTTP)
	}
	if c.Source.Manifest == "" {
		return invalid("source.manifest", "source.manifest must not be empty")
	}
	if c.Source.Timeout < 0 {
		return invalid("source.timeout", "source.timeout must not be negative")
	}
	return nil
}

func invalid(key, format string, args ...interface{}) error {
	return errors.Newf(errors.ErrConfigValid, format, args...).WithDetail("key", key)
}
