// Package archive unpacks revision bundles into a directory.
//
// Bundles may be zip files or tar streams, optionally compressed with gzip,
// zstd or lz4; the format is sniffed from the leading bytes. Every created
// directory gets mode 0755 and every file 0644 regardless of the process
// umask, so whichever user serves the content can read it.
//
// The extractor has no policy: it writes wherever it is told. Callers
// extract into a staging directory and rename it into place.
package archive
