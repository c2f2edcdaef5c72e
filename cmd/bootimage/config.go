package main

import (
	"math"

	"bootimage"
	"bootimage/payload"
	"bootimage/source"

	"github.com/xyproto/env/v2"
)

// config holds the defaults taken from the environment. Flags override it.
type config struct {
	PageSize     uint32
	NoMagicCheck bool
	Partition    string
	Debug        bool
}

func loadConfig() config {
	cfg := config{
		NoMagicCheck: env.Bool("BOOTIMAGE_NO_MAGIC_CHECK"),
		Partition:    env.Str("BOOTIMAGE_PARTITION", "boot"),
		Debug:        env.Bool("BOOTIMAGE_DEBUG"),
	}
	if n := env.Int("BOOTIMAGE_PAGE_SIZE", 0); n > 0 && int64(n) <= math.MaxUint32 {
		cfg.PageSize = uint32(n)
	}
	return cfg
}

var cfg = loadConfig()

func init() {
	if cfg.Debug {
		source.Debug = debugf
		payload.Debug = debugf
	}
}

// inputOptions are shared by every command that reads an image.
type inputOptions struct {
	PageSize     uint32 `short:"p" long:"page-size" description:"page size to use instead of the one in the header"`
	NoMagicCheck bool   `long:"no-magic-check" description:"accept headers without the ANDROID! magic"`
	Partition    string `long:"partition" description:"partition to take from an OTA payload.bin (default: boot)"`
}

func (o *inputOptions) pageSize(h *bootimage.Header) uint32 {
	switch {
	case o.PageSize != 0:
		return o.PageSize
	case cfg.PageSize != 0:
		return cfg.PageSize
	default:
		return h.PageSize
	}
}

func (o *inputOptions) skipMagicCheck() bool {
	return o.NoMagicCheck || cfg.NoMagicCheck
}

func (o *inputOptions) open(path string) (*source.Source, error) {
	partition := o.Partition
	if partition == "" {
		partition = cfg.Partition
	}
	return source.Open(path, source.Options{Partition: partition})
}

// readHeader opens path and reads its header, enforcing the magic unless
// told otherwise. The page size is not checked; the caller decides whether
// it needs offsets at all.
func (o *inputOptions) readHeader(path string) (*source.Source, bootimage.Header, error) {
	src, err := o.open(path)
	if err != nil {
		return nil, bootimage.Header{}, err
	}
	h, err := bootimage.ReadHeader(src)
	if err != nil {
		src.Close()
		return nil, bootimage.Header{}, err
	}
	if !o.skipMagicCheck() && !h.HasValidMagic() {
		src.Close()
		return nil, bootimage.Header{}, &bootimage.BadHeaderError{Err: &bootimage.BadMagicError{Header: h}}
	}
	status("Parsed", "[%s] (%s)", path, src.Format)
	return src, h, nil
}
