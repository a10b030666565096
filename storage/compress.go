package storage

import (
	"compress/gzip"
	"io"
	"path/filepath"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
)

// CompressionType is the compression applied to a persisted file.
type CompressionType string

// Compressions picked by the file extension.
const (
	CompressionNone CompressionType = ""
	CompressionGzip CompressionType = "gzip"
	CompressionZstd CompressionType = "zstd"
	CompressionBr   CompressionType = "br"
)

// CompressionFor returns the compression matching the extension of path.
func CompressionFor(path string) CompressionType {
	switch filepath.Ext(path) {
	case ".gz":
		return CompressionGzip
	case ".zst":
		return CompressionZstd
	case ".br":
		return CompressionBr
	default:
		return CompressionNone
	}
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// compressWriter wraps w so that what is written to it is compressed with
// ct. Closing the returned writer flushes it but leaves w open.
func compressWriter(ct CompressionType, w io.Writer) (io.WriteCloser, error) {
	switch ct {
	case CompressionGzip:
		return gzip.NewWriter(w), nil
	case CompressionZstd:
		return zstd.NewWriter(w)
	case CompressionBr:
		return brotli.NewWriter(w), nil
	default:
		return nopCloser{w}, nil
	}
}
