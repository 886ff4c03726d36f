package archive

import (
	"bytes"
)

// Format identifies a bundle encoding.
type Format int

const (
	FormatUnknown Format = iota
	FormatZip
	FormatTar
	FormatTarGzip
	FormatTarZstd
	FormatTarLZ4
)

// sniffLen covers the ustar magic at offset 257.
const sniffLen = 262

var (
	zipMagic      = []byte("PK\x03\x04")
	zipEmptyMagic = []byte("PK\x05\x06")
	gzipMagic     = []byte{0x1f, 0x8b}
	zstdMagic     = []byte{0x28, 0xb5, 0x2f, 0xfd}
	lz4Magic      = []byte{0x04, 0x22, 0x4d, 0x18}
	tarMagic      = []byte("ustar")
)

func (f Format) String() string {
	switch f {
	case FormatZip:
		return "zip"
	case FormatTar:
		return "tar"
	case FormatTarGzip:
		return "tar.gz"
	case FormatTarZstd:
		return "tar.zst"
	case FormatTarLZ4:
		return "tar.lz4"
	default:
		return "unknown"
	}
}

// Extension is the file suffix bundles of this format are published with.
func (f Format) Extension() string {
	if f == FormatUnknown {
		return ""
	}
	return "." + f.String()
}

// Formats lists the known formats in lookup preference order.
func Formats() []Format {
	return []Format{FormatZip, FormatTarGzip, FormatTarZstd, FormatTarLZ4, FormatTar}
}

// Detect identifies a bundle from its first bytes.
func Detect(head []byte) Format {
	switch {
	case bytes.HasPrefix(head, zipMagic), bytes.HasPrefix(head, zipEmptyMagic):
		return FormatZip
	case bytes.HasPrefix(head, gzipMagic):
		return FormatTarGzip
	case bytes.HasPrefix(head, zstdMagic):
		return FormatTarZstd
	case bytes.HasPrefix(head, lz4Magic):
		return FormatTarLZ4
	case len(head) >= sniffLen && bytes.Equal(head[257:262], tarMagic):
		return FormatTar
	default:
		return FormatUnknown
	}
}
