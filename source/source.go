// Package source opens boot image inputs as seekable streams. Plain files
// are mapped into memory, block devices are read in place, and compressed or
// OTA payload wrapped images are unpacked into memory first.
package source

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"bootimage"
	"bootimage/payload"
	"bootimage/stub"

	"github.com/dsnet/compress/bzip2"
	"github.com/edsrzf/mmap-go"
	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
)

// Debug, when set, reports what Open detected.
var Debug = func(format string, v ...interface{}) {}

// Options control how inputs are unwrapped.
type Options struct {
	// Partition is the payload.bin partition to extract, "boot" if empty.
	Partition string
}

// UnsupportedFormatError means the input is wrapped in a container that
// cannot be unpacked.
type UnsupportedFormatError struct {
	Format bootimage.Format
}

func (err *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported input format: %s", err.Format)
}

// Source is an opened input. Close it when done.
type Source struct {
	Path string
	// Format is the outermost container detected.
	Format bootimage.Format

	rs    io.ReadSeeker
	close func() error
}

func (s *Source) Read(p []byte) (int, error) {
	return s.rs.Read(p)
}

func (s *Source) Seek(offset int64, whence int) (int64, error) {
	return s.rs.Seek(offset, whence)
}

func (s *Source) Close() error {
	if s.close == nil {
		return nil
	}
	err := s.close()
	s.close = nil
	return err
}

// Open opens path, "-" meaning standard input, which is buffered in memory.
func Open(path string, opts Options) (*Source, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, err
		}
		return fromBytes(path, data, nil, opts)
	}

	fd, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	if blk, err := stub.IsBlockDevice(path); err == nil && blk {
		return openDevice(path, fd, opts)
	}

	fi, err := fd.Stat()
	if err != nil {
		fd.Close()
		return nil, err
	}
	if fi.Size() == 0 {
		fd.Close()
		return nil, fmt.Errorf("%s: empty file", path)
	}

	m, err := mmap.Map(fd, mmap.RDONLY, 0)
	if err != nil {
		fd.Close()
		return nil, err
	}
	Debug("%s: mapped %d bytes\n", path, len(m))

	return fromBytes(path, m, func() error {
		uerr := m.Unmap()
		if err := fd.Close(); err != nil {
			return err
		}
		return uerr
	}, opts)
}

// openDevice reads a plain image straight from the partition. Wrapped
// images on a device are rare and get read into memory.
func openDevice(path string, fd *os.File, opts Options) (*Source, error) {
	size, err := stub.DeviceSize(fd.Fd())
	if err != nil {
		fd.Close()
		return nil, err
	}
	Debug("%s: block device of %d bytes\n", path, size)

	magic := make([]byte, 8)
	if _, err := io.ReadFull(fd, magic); err != nil {
		fd.Close()
		return nil, err
	}
	if _, err := fd.Seek(0, io.SeekStart); err != nil {
		fd.Close()
		return nil, err
	}

	if format := bootimage.CheckFmt(magic); format != bootimage.SAMSUNG && format != bootimage.UNKNOWN {
		data, err := io.ReadAll(fd)
		fd.Close()
		if err != nil {
			return nil, err
		}
		return fromBytes(path, data, nil, opts)
	}

	return &Source{
		Path:   path,
		Format: bootimage.CheckFmt(magic),
		rs:     fd,
		close:  fd.Close,
	}, nil
}

// fromBytes unwraps data until it no longer looks compressed. release frees
// data; it runs as soon as data is no longer needed.
func fromBytes(path string, data []byte, release func() error, opts Options) (*Source, error) {
	outer := bootimage.CheckFmt(data)
	src := &Source{Path: path, Format: outer}

	for format := outer; format == bootimage.PAYLOAD || bootimage.COMPRESSED(format); format = bootimage.CheckFmt(data) {
		Debug("%s: unpacking %s\n", path, format)
		out, err := unwrap(format, data, opts)
		if release != nil {
			if rerr := release(); rerr != nil && err == nil {
				err = rerr
			}
			release = nil
		}
		if err != nil {
			return nil, err
		}
		data = out
	}
	if format := bootimage.CheckFmt(data); format == bootimage.LZOP {
		if release != nil {
			release()
		}
		return nil, &UnsupportedFormatError{Format: format}
	}

	src.rs = bytes.NewReader(data)
	src.close = release
	return src, nil
}

func unwrap(format bootimage.Format, data []byte, opts Options) ([]byte, error) {
	var reader io.Reader
	switch format {
	case bootimage.PAYLOAD:
		p, err := payload.Open(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		return p.ExtractBytes(opts.Partition)
	case bootimage.GZIP:
		gz, err := pgzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		reader = gz
	case bootimage.XZ:
		xzr, err := xz.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		reader = xzr
	case bootimage.BZIP2:
		bz, err := bzip2.NewReader(bytes.NewReader(data), nil)
		if err != nil {
			return nil, err
		}
		defer bz.Close()
		reader = bz
	case bootimage.LZ4:
		reader = lz4.NewReader(bytes.NewReader(data))
	case bootimage.ZSTD:
		zr, err := zstd.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		reader = zr
	default:
		return nil, &UnsupportedFormatError{Format: format}
	}
	return io.ReadAll(reader)
}
