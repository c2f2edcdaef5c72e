package bootimage

import "bytes"

const (
	UNKNOWN Format = iota
	/* Boot formats */
	SAMSUNG
	AOSP_VENDOR
	CHROMEOS
	PAYLOAD
	/* Compression formats */
	GZIP
	XZ
	BZIP2
	LZ4
	LZ4_LEGACY
	ZSTD
	/* Unsupported compression */
	LZOP
)

// Format is what the first bytes of a file say it is.
type Format int

func COMPRESSED(fmt Format) bool {
	return fmt >= GZIP && fmt < LZOP
}

const (
	BOOT_MAGIC        = "ANDROID!"
	VENDOR_BOOT_MAGIC = "VNDRBOOT"
	CHROMEOS_MAGIC    = "CHROMEOS"
	PAYLOAD_MAGIC     = "CrAU"
	GZIP1_MAGIC       = "\x1f\x8b"
	GZIP2_MAGIC       = "\x1f\x9e"
	LZOP_MAGIC        = "\x89LZO"
	XZ_MAGIC          = "\xfd7zXZ"
	BZIP_MAGIC        = "BZh"
	LZ4_LEG_MAGIC     = "\x02\x21\x4c\x18"
	LZ41_MAGIC        = "\x03\x21\x4c\x18"
	LZ42_MAGIC        = "\x04\x22\x4d\x18"
	ZSTD_MAGIC        = "\x28\xb5\x2f\xfd"
)

// CheckFmt identifies a container from its leading bytes.
func CheckFmt(buf []byte) Format {
	CHECKED_MATCH := func(p string) bool {
		return len(buf) >= len(p) && bytes.Equal([]byte(p), buf[:len(p)])
	}

	if CHECKED_MATCH(BOOT_MAGIC) {
		return SAMSUNG
	} else if CHECKED_MATCH(VENDOR_BOOT_MAGIC) {
		return AOSP_VENDOR
	} else if CHECKED_MATCH(CHROMEOS_MAGIC) {
		return CHROMEOS
	} else if CHECKED_MATCH(PAYLOAD_MAGIC) {
		return PAYLOAD
	} else if CHECKED_MATCH(GZIP1_MAGIC) || CHECKED_MATCH(GZIP2_MAGIC) {
		return GZIP
	} else if CHECKED_MATCH(LZOP_MAGIC) {
		return LZOP
	} else if CHECKED_MATCH(XZ_MAGIC) {
		return XZ
	} else if CHECKED_MATCH(BZIP_MAGIC) {
		return BZIP2
	} else if CHECKED_MATCH(LZ41_MAGIC) || CHECKED_MATCH(LZ42_MAGIC) {
		return LZ4
	} else if CHECKED_MATCH(LZ4_LEG_MAGIC) {
		return LZ4_LEGACY
	} else if CHECKED_MATCH(ZSTD_MAGIC) {
		return ZSTD
	} else {
		return UNKNOWN
	}
}

func Fmt2Name(fmt Format) string {
	switch fmt {
	case SAMSUNG:
		return "boot"
	case AOSP_VENDOR:
		return "vendor_boot"
	case CHROMEOS:
		return "chromeos"
	case PAYLOAD:
		return "payload"
	case GZIP:
		return "gzip"
	case XZ:
		return "xz"
	case BZIP2:
		return "bzip2"
	case LZ4:
		return "lz4"
	case LZ4_LEGACY:
		return "lz4_legacy"
	case ZSTD:
		return "zstd"
	case LZOP:
		return "lzop"
	default:
		return "raw"
	}
}

func (f Format) String() string {
	return Fmt2Name(f)
}
