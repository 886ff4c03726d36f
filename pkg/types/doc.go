// Package types defines the core types and interfaces used throughout revlink.
// This includes the FS and ContentSource capabilities consumed by the
// deployment manager, and the RevisionRecord parsed from a manifest.
package types
