// Package source provides the content sources revlink deploys from.
//
// A content source serves two kinds of objects: the manifest text and one
// archive per branch revision. Both layouts follow the same key scheme:
//
//	<base>/<manifest>
//	<base>/<branch>/<revision>.zip
//
// Dir reads that layout from a filesystem, HTTP from a web server or an
// object store's public endpoint. Verified wraps either and checks archives
// against an optional BLAKE3 sidecar (<archive>.b3).
//
// Absence is always reported with types.ErrNotFound so callers can tell a
// missing revision apart from a broken transport.
package source
