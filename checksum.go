package bootimage

import (
	"encoding/binary"

	"github.com/cespare/xxhash"
)

// Checksum hashes all payload sections in catalog order.
func (img *BootImage) Checksum() uint64 {
	xxh := xxhash.New()

	for _, s := range Sections[1:] {
		xxh.Write(img.Section(s))
	}

	return xxh.Sum64()
}

// StampID stores Checksum in the first 8 bytes of the header's unique id and
// clears the rest, returning the previous id.
func (img *BootImage) StampID() [BOOT_ID_SIZE]byte {
	prev := img.header.UniqueID
	img.header.UniqueID = [BOOT_ID_SIZE]byte{}
	binary.LittleEndian.PutUint64(img.header.UniqueID[:], img.Checksum())
	return prev
}
