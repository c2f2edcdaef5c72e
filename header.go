package bootimage

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/hashicorp/go-multierror"
)

const (
	HEADER_SIZE          = 616
	BOOT_MAGIC_SIZE      = 8
	PRODUCT_NAME_SIZE    = 24
	BOOT_ARGS_SIZE       = 512
	BOOT_ARGS_ROW_SIZE   = 32
	BOOT_ID_SIZE         = 32
	DEFAULT_PAGE_SIZE    = 2048
	DEFAULT_KERNEL_ADDR  = 0x10008000
	DEFAULT_RAMDISK_ADDR = 0x11000000
	DEFAULT_SECOND_ADDR  = 0x100f0000
	DEFAULT_TAGS_ADDR    = 0x10000100
	DEFAULT_RESERVED     = 0x02000000
)

// BootMagic is the header signature, in byte array form.
var BootMagic = [BOOT_MAGIC_SIZE]byte{'A', 'N', 'D', 'R', 'O', 'I', 'D', '!'}

// Header directly correlates to the on-disk Samsung boot image header.
// All integers are little-endian.
type Header struct {
	Magic [BOOT_MAGIC_SIZE]byte

	KernelSize  uint32 // size in bytes
	KernelAddr  uint32 // physical load addr
	RamdiskSize uint32 // size in bytes
	RamdiskAddr uint32 // physical load addr
	SecondSize  uint32 // size in bytes
	SecondAddr  uint32 // physical load addr

	DeviceTreeSize uint32
	// Opaque, round-tripped as is.
	Reserved uint32

	TagsAddr uint32
	// Zero means the caller has to supply a page size.
	PageSize uint32

	ProductName   [PRODUCT_NAME_SIZE]byte
	BootArguments [BOOT_ARGS_SIZE]byte
	UniqueID      [BOOT_ID_SIZE]byte
} // 总大小: 8 + 10*4 + 24 + 512 + 32 = 616 字节

// DefaultHeader returns the header new images start from: valid magic,
// empty sections, a 2048 byte page and the conventional load addresses.
func DefaultHeader() Header {
	return Header{
		Magic:       BootMagic,
		KernelAddr:  DEFAULT_KERNEL_ADDR,
		RamdiskAddr: DEFAULT_RAMDISK_ADDR,
		SecondAddr:  DEFAULT_SECOND_ADDR,
		Reserved:    DEFAULT_RESERVED,
		TagsAddr:    DEFAULT_TAGS_ADDR,
		PageSize:    DEFAULT_PAGE_SIZE,
	}
}

// ParseHeader decodes a header from exactly HEADER_SIZE bytes. It does not
// look at the magic, so it cannot fail.
func ParseHeader(buf *[HEADER_SIZE]byte) Header {
	var h Header
	// A fixed-size struct read from a buffer of the same size never errors.
	if err := binary.Read(bytes.NewReader(buf[:]), binary.LittleEndian, &h); err != nil {
		panic(err)
	}
	return h
}

// ReadHeader reads exactly HEADER_SIZE bytes from r and parses them.
func ReadHeader(r io.Reader) (Header, error) {
	var buf [HEADER_SIZE]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return Header{}, &IoError{Op: "read", Section: SectionHeader, Err: err}
	}
	return ParseHeader(&buf), nil
}

// Bytes serializes the header. It is the exact inverse of ParseHeader.
func (h *Header) Bytes() [HEADER_SIZE]byte {
	var out [HEADER_SIZE]byte
	buf := bytes.NewBuffer(out[:0])
	if err := binary.Write(buf, binary.LittleEndian, h); err != nil {
		panic(err)
	}
	copy(out[:], buf.Bytes())
	return out
}

// WriteTo writes the serialized header to w.
func (h *Header) WriteTo(w io.Writer) (int64, error) {
	b := h.Bytes()
	n, err := w.Write(b[:])
	if err != nil {
		return int64(n), &IoError{Op: "write", Section: SectionHeader, Err: err}
	}
	return int64(n), nil
}

// HasValidMagic reports whether the header starts with "ANDROID!".
func (h Header) HasValidMagic() bool {
	return h.Magic == BootMagic
}

// Validate reports every problem with the header at once. InsertHeader
// only reports the first one.
func (h *Header) Validate() error {
	var result *multierror.Error
	if !h.HasValidMagic() {
		result = multierror.Append(result, &BadMagicError{Header: *h})
	}
	if h.PageSize == 0 {
		result = multierror.Append(result, &NoPageSizeError{Header: *h})
	} else if h.PageSize&(h.PageSize-1) != 0 {
		result = multierror.Append(result, fmt.Errorf("page size %d is not a power of two", h.PageSize))
	}
	return result.ErrorOrNil()
}

// ProductNameString returns the product name up to the first NUL.
func (h *Header) ProductNameString() string {
	return cstring(h.ProductName[:])
}

// BootArgumentsString returns the kernel command line up to the first NUL.
func (h *Header) BootArgumentsString() string {
	return cstring(h.BootArguments[:])
}

// SetProductName stores name NUL-padded. Longer names are truncated.
func (h *Header) SetProductName(name string) {
	h.ProductName = [PRODUCT_NAME_SIZE]byte{}
	copy(h.ProductName[:], name)
}

// SetBootArguments stores the command line NUL-padded. Longer values are
// truncated.
func (h *Header) SetBootArguments(cmdline string) {
	h.BootArguments = [BOOT_ARGS_SIZE]byte{}
	copy(h.BootArguments[:], cmdline)
}

// BootArgumentsRow returns row i of the command line viewed as 16 rows of
// 32 bytes. The slice aliases the header.
func (h *Header) BootArgumentsRow(i int) []byte {
	if i < 0 || i >= BOOT_ARGS_SIZE/BOOT_ARGS_ROW_SIZE {
		return nil
	}
	return h.BootArguments[i*BOOT_ARGS_ROW_SIZE : (i+1)*BOOT_ARGS_ROW_SIZE]
}

func (h *Header) String() string {
	return fmt.Sprintf("boot image magic=%q kernel=%d ramdisk=%d second=%d dt=%d page=%d name=%q",
		h.Magic[:], h.KernelSize, h.RamdiskSize, h.SecondSize, h.DeviceTreeSize, h.PageSize, h.ProductNameString())
}

func cstring(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}
