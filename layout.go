package bootimage

import (
	"bytes"
	"fmt"
	"io"
)

/*
 * Samsung boot image layout:
 *
 * +-----------------+
 * | boot header     | 1 page
 * +-----------------+
 * | kernel          | n pages
 * +-----------------+
 * | ramdisk         | m pages
 * +-----------------+
 * | second stage    | o pages
 * +-----------------+
 * | device tree     | p pages
 * +-----------------+
 *
 * n = (kernel_size + page_size - 1) / page_size
 * m = (ramdisk_size + page_size - 1) / page_size
 * o = (second_size + page_size - 1) / page_size
 * p = (dt_size + page_size - 1) / page_size
 *
 * Empty sections take zero pages.
 */

// Region is where a section lives in an image.
type Region struct {
	Section Section
	Offset  uint64
	Size    uint64
	Pages   uint64
}

// End is the first byte after the section data, without padding.
func (r Region) End() uint64 {
	return r.Offset + r.Size
}

func (r Region) String() string {
	return fmt.Sprintf("0x%08X - %-14s (size: %d)", r.Offset, r.Section.Title(), r.Size)
}

// PagesOf returns how many pages size bytes occupy. pageSize must be non-zero.
func PagesOf(size uint64, pageSize uint32) uint64 {
	return (size + uint64(pageSize) - 1) / uint64(pageSize)
}

func align_to(v, a uint64) uint64 {
	return (v + a - 1) / a * a
}

// OffsetOf returns the byte offset of target: the page-rounded sizes of
// every section before it, in catalog order.
func OffsetOf(h *Header, pageSize uint32, target Section) (uint64, error) {
	if pageSize == 0 {
		return 0, &NoPageSizeError{Header: *h}
	}
	if !target.valid() {
		return 0, &NoSectionError{Name: target.String()}
	}

	var pages uint64
	for _, s := range Sections {
		if s == target {
			break
		}
		pages += PagesOf(SizeOf(h, s), pageSize)
	}
	return pages * uint64(pageSize), nil
}

// SizeAndOffset returns where s starts and how many bytes it declares.
func SizeAndOffset(h *Header, pageSize uint32, s Section) (offset, size uint64, err error) {
	offset, err = OffsetOf(h, pageSize, s)
	if err != nil {
		return 0, 0, err
	}
	return offset, SizeOf(h, s), nil
}

// Layout locates every catalog section, including empty ones.
func Layout(h *Header, pageSize uint32) ([]Region, error) {
	if pageSize == 0 {
		return nil, &NoPageSizeError{Header: *h}
	}
	regions := make([]Region, 0, len(Sections))
	var offset uint64
	for _, s := range Sections {
		size := SizeOf(h, s)
		pages := PagesOf(size, pageSize)
		regions = append(regions, Region{Section: s, Offset: offset, Size: size, Pages: pages})
		offset += pages * uint64(pageSize)
	}
	return regions, nil
}

// ReadSection seeks to s and reads its declared size from r.
func ReadSection(r io.ReadSeeker, h *Header, pageSize uint32, s Section) ([]byte, error) {
	offset, size, err := SizeAndOffset(h, pageSize, s)
	if err != nil {
		return nil, &SectionError{Section: s, Err: err}
	}
	if _, err := r.Seek(int64(offset), io.SeekStart); err != nil {
		return nil, &SectionError{Section: s, Err: &IoError{Op: "seek", Section: s, Err: err}}
	}
	data, err := readSized(r, size)
	if err != nil {
		return nil, &SectionError{Section: s, Err: &IoError{Op: "read", Section: s, Err: err}}
	}
	return data, nil
}

// readSizedChunk caps the up-front allocation of readSized. Declared sizes
// are untrusted, so memory only grows as data actually arrives.
const readSizedChunk = 1 << 20

// readSized reads exactly size bytes with io.ReadFull error semantics.
func readSized(r io.Reader, size uint64) ([]byte, error) {
	if size == 0 {
		return []byte{}, nil
	}
	var buf bytes.Buffer
	buf.Grow(int(min(size, readSizedChunk)))
	n, err := io.CopyN(&buf, r, int64(size))
	if err == io.EOF && n > 0 {
		err = io.ErrUnexpectedEOF
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
