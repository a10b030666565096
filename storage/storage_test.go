package storage

import (
	"compress/gzip"
	"context"
	"io"
	"io/fs"
	"os"
	"strings"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirMake(t *testing.T) {
	t.Parallel()

	t.Run("dir_provided", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()

		var s Dir
		require.NoError(t, s.Make("", dir))
		require.Equal(t, dir, s.Dir)
		require.NoError(t, s.Cleanup())
		assert.DirExists(t, dir, "should not remove a directory it did not create")
	})

	t.Run("dir_absent", func(t *testing.T) {
		t.Parallel()

		tmp := t.TempDir()

		var s Dir
		require.NoError(t, s.Make(tmp, nil))
		require.True(t, strings.HasPrefix(s.Dir, tmp))
		require.DirExists(t, s.Dir)

		require.NoError(t, s.Cleanup())
		require.NoDirExists(t, s.Dir)
		require.NoError(t, s.Cleanup(), "second cleanup is a no-op")
	})

	t.Run("dir_mk_err", func(t *testing.T) {
		t.Parallel()

		var s Dir
		require.ErrorIs(t, s.Make("/NOT_EXISTING_DIRECTORY/A11YSCAN", ""), fs.ErrNotExist)
		assert.Empty(t, s.Dir)
		assert.NoError(t, s.Cleanup())
	})
}

func TestLocalFilePersister(t *testing.T) {
	t.Parallel()

	t.Run("creates_dirs_and_truncates", func(t *testing.T) {
		t.Parallel()

		afs := afero.NewMemMapFs()
		p := &LocalFilePersister{Fs: afs}

		require.NoError(t, p.Persist(context.Background(), "/reports/chrome/sample.json", strings.NewReader(`{"violations":[1,2,3]}`)))
		require.NoError(t, p.Persist(context.Background(), "/reports/chrome/sample.json", strings.NewReader(`{}`)))

		got, err := afero.ReadFile(afs, "/reports/chrome/sample.json")
		require.NoError(t, err)
		assert.Equal(t, `{}`, string(got))
	})

	t.Run("read_only_fs", func(t *testing.T) {
		t.Parallel()

		p := &LocalFilePersister{Fs: afero.NewReadOnlyFs(afero.NewMemMapFs())}
		err := p.Persist(context.Background(), "/reports/out.json", strings.NewReader("x"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "creating a local directory")
	})

	t.Run("compressed", func(t *testing.T) {
		t.Parallel()

		const report = `[{"scenario":"sample","browser":"chrome"}]`
		afs := afero.NewMemMapFs()
		p := &LocalFilePersister{Fs: afs}
		for ext, decompress := range map[string]func(r io.Reader) (io.Reader, error){
			".gz": func(r io.Reader) (io.Reader, error) { return gzip.NewReader(r) },
			".zst": func(r io.Reader) (io.Reader, error) {
				d, err := zstd.NewReader(r)
				return d, err
			},
			".br": func(r io.Reader) (io.Reader, error) { return brotli.NewReader(r), nil },
		} {
			path := "/reports/out.json" + ext
			require.NoError(t, p.Persist(context.Background(), path, strings.NewReader(report)))

			f, err := afs.Open(path)
			require.NoError(t, err)
			r, err := decompress(f)
			require.NoError(t, err)
			got, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, report, string(got), ext)
			require.NoError(t, f.Close())
		}
	})

	t.Run("os_fs", func(t *testing.T) {
		t.Parallel()

		path := t.TempDir() + "/nested/report.json"
		require.NoError(t, NewLocalFilePersister().Persist(context.Background(), path, strings.NewReader("ok")))

		got, err := os.ReadFile(path) //nolint:forbidigo
		require.NoError(t, err)
		assert.Equal(t, "ok", string(got))
	})
}

func TestCompressionFor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, CompressionGzip, CompressionFor("reports.json.gz"))
	assert.Equal(t, CompressionZstd, CompressionFor("/tmp/reports.json.zst"))
	assert.Equal(t, CompressionBr, CompressionFor("reports.br"))
	assert.Equal(t, CompressionNone, CompressionFor("reports.json"))
	assert.Equal(t, CompressionNone, CompressionFor("gz"))
}
