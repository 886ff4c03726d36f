// Package archivetest builds in-memory bundles for tests.
package archivetest

import (
	"archive/tar"
	"bytes"
	"io"
	"sort"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/require"
)

// Entry is one archive member. Names ending in "/" are directories.
type Entry struct {
	Name    string
	Content string
}

// Files turns a name->content map into entries sorted by name.
func Files(files map[string]string) []Entry {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		entries = append(entries, Entry{Name: name, Content: files[name]})
	}
	return entries
}

// Zip returns a zip archive of entries.
func Zip(t testing.TB, entries []Entry) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.Create(e.Name)
		require.NoError(t, err)
		if !isDir(e.Name) {
			_, err = io.WriteString(w, e.Content)
			require.NoError(t, err)
		}
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// Tar returns an uncompressed tar archive of entries.
func Tar(t testing.TB, entries []Entry) []byte {
	t.Helper()
	var buf bytes.Buffer
	writeTar(t, &buf, entries)
	return buf.Bytes()
}

// TarGzip returns a gzip-compressed tar archive of entries.
func TarGzip(t testing.TB, entries []Entry) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	writeTar(t, gz, entries)
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

// TarZstd returns a zstd-compressed tar archive of entries.
func TarZstd(t testing.TB, entries []Entry) []byte {
	t.Helper()
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf)
	require.NoError(t, err)
	writeTar(t, enc, entries)
	require.NoError(t, enc.Close())
	return buf.Bytes()
}

// TarLZ4 returns an lz4-compressed tar archive of entries.
func TarLZ4(t testing.TB, entries []Entry) []byte {
	t.Helper()
	var buf bytes.Buffer
	lw := lz4.NewWriter(&buf)
	writeTar(t, lw, entries)
	require.NoError(t, lw.Close())
	return buf.Bytes()
}

func writeTar(t testing.TB, w io.Writer, entries []Entry) {
	t.Helper()
	tw := tar.NewWriter(w)
	for _, e := range entries {
		hdr := &tar.Header{Name: e.Name, Mode: 0600}
		if isDir(e.Name) {
			hdr.Typeflag = tar.TypeDir
			hdr.Mode = 0700
		} else {
			hdr.Typeflag = tar.TypeReg
			hdr.Size = int64(len(e.Content))
		}
		require.NoError(t, tw.WriteHeader(hdr))
		if !isDir(e.Name) {
			_, err := io.WriteString(tw, e.Content)
			require.NoError(t, err)
		}
	}
	require.NoError(t, tw.Close())
}

func isDir(name string) bool {
	return strings.HasSuffix(name, "/")
}
