// Package config handles configuration management for revlink.
// It layers embedded defaults, a TOML config file, REVLINK_* environment
// variables and command-line overrides with koanf.
package config
