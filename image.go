package bootimage

import (
	"io"
)

// BootImage is a boot image held in memory: one header plus the four
// payload sections. The header's size fields always match the buffers, so
// sections are only ever replaced through the Insert methods.
type BootImage struct {
	header Header

	kernel     []byte
	ramdisk    []byte
	second     []byte
	deviceTree []byte
}

// ReadOptions tune ReadFrom.
type ReadOptions struct {
	// PageSize replaces the header's page size before any offset is
	// computed. Zero keeps the header's value.
	PageSize uint32
	// SkipMagicCheck accepts headers without the "ANDROID!" signature.
	// A zero page size is still rejected.
	SkipMagicCheck bool
	// Kind is the header layout to decode, KindSamsung by default.
	Kind Kind
}

// New returns an empty image with the default header.
func New() *BootImage {
	return &BootImage{
		header:     DefaultHeader(),
		kernel:     []byte{},
		ramdisk:    []byte{},
		second:     []byte{},
		deviceTree: []byte{},
	}
}

// InsertHeader validates h and swaps it in, returning the previous header.
// The size fields of h are discarded and recomputed from the current
// buffers. On error the image is left untouched.
func (img *BootImage) InsertHeader(h Header) (Header, error) {
	return img.insertHeader(h, true)
}

func (img *BootImage) insertHeader(h Header, checkMagic bool) (Header, error) {
	if checkMagic && !h.HasValidMagic() {
		return Header{}, &BadMagicError{Header: h}
	}
	if h.PageSize == 0 {
		return Header{}, &NoPageSizeError{Header: h}
	}

	prev := img.header
	img.header = h
	img.updateAllSizes()
	return prev, nil
}

// MAX_SECTION_SIZE is the largest section the 32-bit size fields can
// describe. The Insert methods below do not check it; InsertSection does.
const MAX_SECTION_SIZE = 1<<32 - 1

// InsertKernel replaces the kernel, returning the old one.
func (img *BootImage) InsertKernel(kernel []byte) []byte {
	prev := img.kernel
	img.kernel = kernel
	img.header.KernelSize = uint32(len(kernel))
	return prev
}

// InsertRamdisk replaces the ramdisk, returning the old one.
func (img *BootImage) InsertRamdisk(ramdisk []byte) []byte {
	prev := img.ramdisk
	img.ramdisk = ramdisk
	img.header.RamdiskSize = uint32(len(ramdisk))
	return prev
}

// InsertSecond replaces the second stage image, returning the old one.
func (img *BootImage) InsertSecond(second []byte) []byte {
	prev := img.second
	img.second = second
	img.header.SecondSize = uint32(len(second))
	return prev
}

// InsertDeviceTree replaces the device tree, returning the old one.
func (img *BootImage) InsertDeviceTree(dt []byte) []byte {
	prev := img.deviceTree
	img.deviceTree = dt
	img.header.DeviceTreeSize = uint32(len(dt))
	return prev
}

// InsertSection replaces any section and returns its previous bytes. For
// SectionHeader, data must be a serialized header; it goes through
// InsertHeader and may be rejected. Buffers over MAX_SECTION_SIZE are
// rejected with *SectionSizeError.
func (img *BootImage) InsertSection(s Section, data []byte) ([]byte, error) {
	if err := checkSectionSize(s, uint64(len(data))); err != nil {
		return nil, err
	}
	switch s {
	case SectionHeader:
		if len(data) != HEADER_SIZE {
			return nil, &HeaderLengthError{Length: len(data)}
		}
		prev, err := img.InsertHeader(ParseHeader((*[HEADER_SIZE]byte)(data)))
		if err != nil {
			return nil, err
		}
		b := prev.Bytes()
		return b[:], nil
	case SectionKernel:
		return img.InsertKernel(data), nil
	case SectionRamdisk:
		return img.InsertRamdisk(data), nil
	case SectionSecond:
		return img.InsertSecond(data), nil
	case SectionDeviceTree:
		return img.InsertDeviceTree(data), nil
	default:
		return nil, &NoSectionError{Name: s.String()}
	}
}

func (img *BootImage) updateAllSizes() {
	img.header.KernelSize = uint32(len(img.kernel))
	img.header.RamdiskSize = uint32(len(img.ramdisk))
	img.header.SecondSize = uint32(len(img.second))
	img.header.DeviceTreeSize = uint32(len(img.deviceTree))
}

// Header returns a copy of the current header.
func (img *BootImage) Header() Header {
	return img.header
}

func (img *BootImage) PageSize() uint32 {
	return img.header.PageSize
}

func (img *BootImage) Kernel() []byte {
	return img.kernel
}

func (img *BootImage) Ramdisk() []byte {
	return img.ramdisk
}

func (img *BootImage) Second() []byte {
	return img.second
}

func (img *BootImage) DeviceTree() []byte {
	return img.deviceTree
}

// Section returns the raw bytes of s. The header is serialized.
func (img *BootImage) Section(s Section) []byte {
	switch s {
	case SectionHeader:
		b := img.header.Bytes()
		return b[:]
	case SectionKernel:
		return img.kernel
	case SectionRamdisk:
		return img.ramdisk
	case SectionSecond:
		return img.second
	case SectionDeviceTree:
		return img.deviceTree
	default:
		return nil
	}
}

// SectionLocation returns the offset and size of s in this image.
func (img *BootImage) SectionLocation(s Section) (offset, size uint64, err error) {
	return SizeAndOffset(&img.header, img.header.PageSize, s)
}

// Layout locates every section of this image.
func (img *BootImage) Layout() ([]Region, error) {
	return Layout(&img.header, img.header.PageSize)
}

// ReadFrom reads a boot image starting at the current position of r. Every
// section is located through its page-aligned offset and read with a seek
// of its own, so padding between sections is never read. A nil opts means
// no page size override and a strict magic check.
//
// Header rejections are returned as *BadHeaderError, stream failures as
// *IoError. No partially read image is ever returned.
func ReadFrom(r io.ReadSeeker, opts *ReadOptions) (*BootImage, error) {
	if opts == nil {
		opts = &ReadOptions{}
	}

	base, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, &IoError{Op: "seek", Section: SectionHeader, Err: err}
	}

	buf := make([]byte, opts.Kind.HeaderSize())
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, &IoError{Op: "read", Section: SectionHeader, Err: err}
	}
	header, err := ParseKind(opts.Kind, buf)
	if err != nil {
		return nil, &BadHeaderError{Err: err}
	}
	if opts.PageSize != 0 {
		header.PageSize = opts.PageSize
	}

	// Inserting the header zeroes its sizes, keep the declared ones in
	// header. Validating first keeps bogus sizes from turning into I/O
	// errors that hide the real problem.
	img := New()
	if _, err := img.insertHeader(header, !opts.SkipMagicCheck); err != nil {
		return nil, &BadHeaderError{Err: err}
	}

	for _, s := range Sections[1:] {
		offset, size, err := SizeAndOffset(&header, header.PageSize, s)
		if err != nil {
			return nil, &BadHeaderError{Err: err}
		}
		if _, err := r.Seek(base+int64(offset), io.SeekStart); err != nil {
			return nil, &IoError{Op: "seek", Section: s, Err: err}
		}
		data, err := readSized(r, size)
		if err != nil {
			return nil, &IoError{Op: "read", Section: s, Err: err}
		}
		if _, err := img.InsertSection(s, data); err != nil {
			return nil, err
		}
	}
	return img, nil
}

// WriteTo writes the header followed by every section, back to back and
// without padding. Use WritePaddedTo for an image ReadFrom accepts.
func (img *BootImage) WriteTo(w io.Writer) (int64, error) {
	var written int64
	for _, s := range Sections {
		n, err := img.WriteSectionTo(w, s)
		written += n
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

// WriteSectionTo writes the raw bytes of a single section.
func (img *BootImage) WriteSectionTo(w io.Writer, s Section) (int64, error) {
	if !s.valid() {
		return 0, &NoSectionError{Name: s.String()}
	}
	n, err := w.Write(img.Section(s))
	if err != nil {
		return int64(n), &IoError{Op: "write", Section: s, Err: err}
	}
	return int64(n), nil
}

// WritePaddedTo writes the image with every section zero-padded up to the
// next page boundary, matching the offsets ReadFrom computes.
func (img *BootImage) WritePaddedTo(w io.Writer) (int64, error) {
	pageSize := uint64(img.header.PageSize)
	if pageSize == 0 {
		return 0, &NoPageSizeError{Header: img.header}
	}

	pad := make([]byte, pageSize)
	var written int64
	for _, s := range Sections {
		n, err := img.WriteSectionTo(w, s)
		written += n
		if err != nil {
			return written, err
		}
		size := uint64(n)
		if padding := align_to(size, pageSize) - size; padding > 0 {
			m, err := w.Write(pad[:padding])
			written += int64(m)
			if err != nil {
				return written, &IoError{Op: "write", Section: s, Err: err}
			}
		}
	}
	return written, nil
}

func checkSectionSize(s Section, size uint64) error {
	if size > MAX_SECTION_SIZE {
		return &SectionSizeError{Section: s, Size: size}
	}
	return nil
}
