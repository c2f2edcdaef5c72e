// Package payload pulls single partition images out of A/B OTA payload.bin
// files. Only full payloads are supported.
package payload

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/dsnet/compress/bzip2"
	"github.com/hashicorp/errwrap"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
	"github.com/xaionaro-go/bytesextra"
)

const PAYLOAD_MAGIC string = "CrAU"

// Debug, when set, reports progress.
var Debug = func(format string, v ...interface{}) {}

func badPayload(msg string) error {
	return errors.New("invalid payload: " + msg)
}

// Payload is an opened payload.bin with its manifest parsed.
type Payload struct {
	Manifest *Manifest

	r        io.ReadSeeker
	dataBase int64
}

// Open reads the payload header and manifest from r.
func Open(r io.ReadSeeker) (*Payload, error) {
	base, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}

	var hdr struct {
		Magic          [4]byte
		Version        uint64
		ManifestLen    uint64
		ManifestSigLen uint32
	}
	if err := binary.Read(r, binary.BigEndian, &hdr); err != nil {
		return nil, errwrap.Wrapf("reading payload header: {{err}}", err)
	}

	if !bytes.Equal(hdr.Magic[:], []byte(PAYLOAD_MAGIC)) {
		return nil, badPayload("invalid magic")
	}
	if hdr.Version != 2 {
		return nil, badPayload("unsupported version: " + strconv.FormatUint(hdr.Version, 10))
	}
	if hdr.ManifestLen == 0 {
		return nil, badPayload("manifest length is zero")
	}
	if hdr.ManifestSigLen == 0 {
		return nil, badPayload("manifest signature length is zero")
	}

	buf := make([]byte, hdr.ManifestLen)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, errwrap.Wrapf("reading manifest: {{err}}", err)
	}
	manifest, err := parseManifest(buf)
	if err != nil {
		return nil, errwrap.Wrapf("parsing manifest: {{err}}", err)
	}
	if manifest.MinorVersion != 0 {
		return nil, badPayload("delta payloads are not supported, please use a full payload file")
	}
	if manifest.BlockSize == 0 {
		return nil, badPayload("block size is zero")
	}

	return &Payload{
		Manifest: manifest,
		r:        r,
		dataBase: base + int64(binary.Size(hdr)) + int64(hdr.ManifestLen) + int64(hdr.ManifestSigLen),
	}, nil
}

// Partitions lists the partition names in manifest order.
func (p *Payload) Partitions() []string {
	names := make([]string, 0, len(p.Manifest.Partitions))
	for _, part := range p.Manifest.Partitions {
		names = append(names, part.Name)
	}
	return names
}

// Partition finds a partition by name; "" means "boot".
func (p *Payload) Partition(name string) (*Partition, error) {
	if name == "" {
		name = "boot"
	}
	for i := range p.Manifest.Partitions {
		if p.Manifest.Partitions[i].Name == name {
			return &p.Manifest.Partitions[i], nil
		}
	}
	return nil, badPayload("partition " + name + " not found")
}

// Extract writes the partition image to w, applying every operation at its
// destination offset.
func (p *Payload) Extract(part *Partition, w io.WriteSeeker) error {
	blockSize := uint64(p.Manifest.BlockSize)

	for i, op := range part.Operations {
		if len(op.DstExtents) == 0 {
			return badPayload(fmt.Sprintf("operation %d has no destination", i))
		}
		Debug("%s: %s @ block %d\n", part.Name, op.Type, op.DstExtents[0].StartBlock)

		switch op.Type {
		case REPLACE, REPLACE_BZ, REPLACE_XZ, REPLACE_ZSTD:
			if op.DataLength == 0 {
				return badPayload("data length not found")
			}
			data := make([]byte, op.DataLength)
			if _, err := p.r.Seek(p.dataBase+int64(op.DataOffset), io.SeekStart); err != nil {
				return err
			}
			if _, err := io.ReadFull(p.r, data); err != nil {
				return errwrap.Wrapf(fmt.Sprintf("reading data of operation %d: {{err}}", i), err)
			}

			if _, err := w.Seek(int64(op.DstExtents[0].StartBlock*blockSize), io.SeekStart); err != nil {
				return err
			}
			if err := decompressTo(op.Type, data, w); err != nil {
				return errwrap.Wrapf(fmt.Sprintf("operation %d (%s): {{err}}", i, op.Type), err)
			}
		case ZERO, DISCARD:
			for _, ext := range op.DstExtents {
				if _, err := w.Seek(int64(ext.StartBlock*blockSize), io.SeekStart); err != nil {
					return err
				}
				if _, err := w.Write(make([]byte, ext.NumBlocks*blockSize)); err != nil {
					return err
				}
			}
		default:
			return badPayload("unsupported operation type " + op.Type.String())
		}
	}
	return nil
}

// ExtractBytes extracts a partition ("" for boot) into memory.
func (p *Payload) ExtractBytes(name string) ([]byte, error) {
	part, err := p.Partition(name)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, part.end(p.Manifest.BlockSize))
	if err := p.Extract(part, bytesextra.NewReadWriteSeeker(buf)); err != nil {
		return nil, errwrap.Wrapf("extracting partition "+part.Name+": {{err}}", err)
	}
	return buf, nil
}

func decompressTo(t OpType, data []byte, w io.Writer) error {
	var reader io.Reader
	switch t {
	case REPLACE:
		_, err := w.Write(data)
		return err
	case REPLACE_BZ:
		bz, err := bzip2.NewReader(bytes.NewReader(data), nil)
		if err != nil {
			return err
		}
		defer bz.Close()
		reader = bz
	case REPLACE_XZ:
		xzr, err := xz.NewReader(bytes.NewReader(data))
		if err != nil {
			return err
		}
		reader = xzr
	case REPLACE_ZSTD:
		zr, err := zstd.NewReader(bytes.NewReader(data))
		if err != nil {
			return err
		}
		defer zr.Close()
		reader = zr
	default:
		return badPayload("unsupported operation type " + t.String())
	}
	_, err := io.Copy(w, reader)
	return err
}
