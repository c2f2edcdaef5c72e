package source_test

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"bootimage"
	"bootimage/source"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"
	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
)

func testImage(t *testing.T) []byte {
	t.Helper()
	img := bootimage.New()
	img.InsertKernel(bytes.Repeat([]byte{'k'}, 3000))
	img.InsertRamdisk([]byte("ramdisk"))

	var buf bytes.Buffer
	_, err := img.WritePaddedTo(&buf)
	require.NoError(t, err)
	return buf.Bytes()
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func gzipped(t *testing.T, data []byte) []byte {
	var buf bytes.Buffer
	w := pgzip.NewWriter(&buf)
	_, err := w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func xzipped(t *testing.T, data []byte) []byte {
	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	require.NoError(t, err)
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func lz4ed(t *testing.T, data []byte) []byte {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	_, err := w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func bzipped(t *testing.T, data []byte) []byte {
	var buf bytes.Buffer
	w, err := bzip2.NewWriter(&buf, nil)
	require.NoError(t, err)
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func zstded(t *testing.T, data []byte) []byte {
	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	defer enc.Close()
	return enc.EncodeAll(data, nil)
}

func TestOpen(t *testing.T) {
	raw := testImage(t)

	tests := map[string]struct {
		data   []byte
		format bootimage.Format
	}{
		"plain":  {raw, bootimage.SAMSUNG},
		"gzip":   {gzipped(t, raw), bootimage.GZIP},
		"xz":     {xzipped(t, raw), bootimage.XZ},
		"lz4":    {lz4ed(t, raw), bootimage.LZ4},
		"bzip2":  {bzipped(t, raw), bootimage.BZIP2},
		"zstd":   {zstded(t, raw), bootimage.ZSTD},
		"nested": {gzipped(t, xzipped(t, raw)), bootimage.GZIP},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			src, err := source.Open(writeFile(t, "boot.img", tc.data), source.Options{})
			require.NoError(t, err)
			defer src.Close()
			require.Equal(t, tc.format, src.Format)

			img, err := bootimage.ReadFrom(src, nil)
			require.NoError(t, err)
			require.Equal(t, bytes.Repeat([]byte{'k'}, 3000), img.Kernel())
			require.Equal(t, []byte("ramdisk"), img.Ramdisk())
		})
	}
}

func TestOpenSeeks(t *testing.T) {
	src, err := source.Open(writeFile(t, "boot.img", testImage(t)), source.Options{})
	require.NoError(t, err)
	defer src.Close()

	_, err = src.Seek(2048, io.SeekStart)
	require.NoError(t, err)
	b := make([]byte, 4)
	_, err = io.ReadFull(src, b)
	require.NoError(t, err)
	require.Equal(t, []byte("kkkk"), b)
}

func TestOpenErrors(t *testing.T) {
	_, err := source.Open(filepath.Join(t.TempDir(), "missing.img"), source.Options{})
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = source.Open(writeFile(t, "empty.img", nil), source.Options{})
	require.ErrorContains(t, err, "empty file")

	_, err = source.Open(writeFile(t, "boot.lzo", []byte("\x89LZO\x00\r\n")), source.Options{})
	var ferr *source.UnsupportedFormatError
	require.ErrorAs(t, err, &ferr)
	require.Equal(t, bootimage.LZOP, ferr.Format)

	_, err = source.Open(writeFile(t, "bad.payload", []byte("CrAU"+
		"\x00\x00\x00\x00\x00\x00\x00\x01"+
		"\x00\x00\x00\x00\x00\x00\x00\x01"+
		"\x00\x00\x00\x01")), source.Options{})
	require.ErrorContains(t, err, "invalid payload")
}

func TestCloseTwice(t *testing.T) {
	src, err := source.Open(writeFile(t, "boot.img", testImage(t)), source.Options{})
	require.NoError(t, err)
	require.NoError(t, src.Close())
	require.NoError(t, src.Close())
}
