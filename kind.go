package bootimage

import (
	"encoding/binary"
	"fmt"
)

const (
	BOOT_NAME_SIZE       = 16
	BOOT_EXTRA_ARGS_SIZE = 1024
)

// Kind tags the header layout an image uses. Only KindSamsung is decoded;
// the AOSP layouts are recognised so callers can report them.
type Kind int

const (
	KindSamsung Kind = iota
	KindAospV0
)

// AospHeaderV0 is the version 0 AOSP header. Same magic, different field
// order and a bigger name and command line area.
type AospHeaderV0 struct {
	Magic         [BOOT_MAGIC_SIZE]byte
	KernelSize    uint32
	KernelAddr    uint32
	RamdiskSize   uint32
	RamdiskAddr   uint32
	SecondSize    uint32
	SecondAddr    uint32
	TagsAddr      uint32
	PageSize      uint32
	HeaderVersion uint32
	OsVersion     uint32
	Name          [BOOT_NAME_SIZE]byte
	Cmdline       [BOOT_ARGS_SIZE]byte
	Id            [BOOT_ID_SIZE]byte
	ExtraCmdline  [BOOT_EXTRA_ARGS_SIZE]byte
} // 总大小: 32 + 4*4 + 16 + 512 + 32 + 1024 = 1632 字节

func (k Kind) String() string {
	switch k {
	case KindSamsung:
		return "samsung"
	case KindAospV0:
		return "aosp-v0"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// HeaderSize is the on-disk size of the header for this kind.
func (k Kind) HeaderSize() int {
	switch k {
	case KindSamsung:
		return binary.Size(Header{})
	case KindAospV0:
		return binary.Size(AospHeaderV0{})
	default:
		return 0
	}
}

// ParseKind decodes a header of the given kind. buf must hold at least
// k.HeaderSize() bytes.
func ParseKind(k Kind, buf []byte) (Header, error) {
	if k != KindSamsung {
		return Header{}, fmt.Errorf("%w: %s", ErrUnsupportedKind, k)
	}
	if len(buf) < HEADER_SIZE {
		return Header{}, &HeaderLengthError{Length: len(buf)}
	}
	return ParseHeader((*[HEADER_SIZE]byte)(buf[:HEADER_SIZE])), nil
}
