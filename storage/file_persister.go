// Package storage persists scan artifacts and manages browser profile directories.
package storage

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// LocalFilePersister will persist files to the local disk.
type LocalFilePersister struct {
	Fs afero.Fs
}

// NewLocalFilePersister returns a persister writing to the OS filesystem.
func NewLocalFilePersister() *LocalFilePersister {
	return &LocalFilePersister{Fs: afero.NewOsFs()}
}

// Persist will write the contents of data to the local disk on the specified path.
// Paths ending in .gz, .zst or .br are compressed accordingly.
func (l *LocalFilePersister) Persist(_ context.Context, path string, data io.Reader) (err error) {
	cp := filepath.Clean(path)

	dir := filepath.Dir(cp)
	if err = l.Fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating a local directory %q: %w", dir, err)
	}

	f, err := l.Fs.OpenFile(cp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating a local file %q: %w", cp, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing the local file %q: %w", cp, cerr)
		}
	}()

	bf := bufio.NewWriter(f)
	cw, err := compressWriter(CompressionFor(cp), bf)
	if err != nil {
		return fmt.Errorf("creating a compressor: %w", err)
	}

	if _, err := io.Copy(cw, data); err != nil {
		return fmt.Errorf("copying data to file: %w", err)
	}

	if err := cw.Close(); err != nil {
		return fmt.Errorf("compressing data: %w", err)
	}
	if err := bf.Flush(); err != nil {
		return fmt.Errorf("flushing data to disk: %w", err)
	}

	return nil
}
