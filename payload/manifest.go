package payload

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// OpType is InstallOperation.Type from update_metadata.proto.
type OpType uint64

const (
	REPLACE       OpType = 0
	REPLACE_BZ    OpType = 1
	MOVE          OpType = 2
	BSDIFF        OpType = 3
	SOURCE_COPY   OpType = 4
	SOURCE_BSDIFF OpType = 5
	ZERO          OpType = 6
	DISCARD       OpType = 7
	REPLACE_XZ    OpType = 8
	PUFFDIFF      OpType = 9
	BROTLI_BSDIFF OpType = 10
	ZUCCHINI      OpType = 11
	REPLACE_ZSTD  OpType = 14
)

func (t OpType) String() string {
	switch t {
	case REPLACE:
		return "REPLACE"
	case REPLACE_BZ:
		return "REPLACE_BZ"
	case MOVE:
		return "MOVE"
	case BSDIFF:
		return "BSDIFF"
	case SOURCE_COPY:
		return "SOURCE_COPY"
	case SOURCE_BSDIFF:
		return "SOURCE_BSDIFF"
	case ZERO:
		return "ZERO"
	case DISCARD:
		return "DISCARD"
	case REPLACE_XZ:
		return "REPLACE_XZ"
	case PUFFDIFF:
		return "PUFFDIFF"
	case BROTLI_BSDIFF:
		return "BROTLI_BSDIFF"
	case ZUCCHINI:
		return "ZUCCHINI"
	case REPLACE_ZSTD:
		return "REPLACE_ZSTD"
	default:
		return fmt.Sprintf("OpType(%d)", uint64(t))
	}
}

// Field numbers of the messages we read.
const (
	manifestBlockSize    protowire.Number = 3
	manifestMinorVersion protowire.Number = 12
	manifestPartitions   protowire.Number = 13

	partitionName    protowire.Number = 1
	partitionNewInfo protowire.Number = 7
	partitionOps     protowire.Number = 8

	infoSize protowire.Number = 1

	opType       protowire.Number = 1
	opDataOffset protowire.Number = 2
	opDataLength protowire.Number = 3
	opDstExtents protowire.Number = 6

	extentStartBlock protowire.Number = 1
	extentNumBlocks  protowire.Number = 2
)

const DEFAULT_BLOCK_SIZE = 4096

type Extent struct {
	StartBlock uint64
	NumBlocks  uint64
}

type Operation struct {
	Type       OpType
	DataOffset uint64
	DataLength uint64
	DstExtents []Extent
}

// Partition is a PartitionUpdate, reduced to what a full payload needs.
type Partition struct {
	Name       string
	Size       uint64
	Operations []Operation
}

// Manifest is the part of DeltaArchiveManifest used for extraction.
type Manifest struct {
	BlockSize    uint32
	MinorVersion uint32
	Partitions   []Partition
}

// walk calls fn for every field of a serialized message. Varints arrive in
// x, length-delimited fields in v; other wire types are skipped.
func walk(b []byte, fn func(num protowire.Number, v []byte, x uint64) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		var v []byte
		var x uint64
		switch typ {
		case protowire.VarintType:
			x, n = protowire.ConsumeVarint(b)
		case protowire.BytesType:
			v, n = protowire.ConsumeBytes(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			b = b[n:]
			continue
		}
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		if err := fn(num, v, x); err != nil {
			return err
		}
	}
	return nil
}

func parseManifest(b []byte) (*Manifest, error) {
	m := &Manifest{BlockSize: DEFAULT_BLOCK_SIZE}
	err := walk(b, func(num protowire.Number, v []byte, x uint64) error {
		switch num {
		case manifestBlockSize:
			m.BlockSize = uint32(x)
		case manifestMinorVersion:
			m.MinorVersion = uint32(x)
		case manifestPartitions:
			p, err := parsePartition(v)
			if err != nil {
				return err
			}
			m.Partitions = append(m.Partitions, *p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func parsePartition(b []byte) (*Partition, error) {
	p := &Partition{}
	err := walk(b, func(num protowire.Number, v []byte, x uint64) error {
		switch num {
		case partitionName:
			p.Name = string(v)
		case partitionNewInfo:
			return walk(v, func(num protowire.Number, _ []byte, x uint64) error {
				if num == infoSize {
					p.Size = x
				}
				return nil
			})
		case partitionOps:
			op, err := parseOperation(v)
			if err != nil {
				return err
			}
			p.Operations = append(p.Operations, *op)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func parseOperation(b []byte) (*Operation, error) {
	op := &Operation{}
	err := walk(b, func(num protowire.Number, v []byte, x uint64) error {
		switch num {
		case opType:
			op.Type = OpType(x)
		case opDataOffset:
			op.DataOffset = x
		case opDataLength:
			op.DataLength = x
		case opDstExtents:
			var ext Extent
			err := walk(v, func(num protowire.Number, _ []byte, x uint64) error {
				switch num {
				case extentStartBlock:
					ext.StartBlock = x
				case extentNumBlocks:
					ext.NumBlocks = x
				}
				return nil
			})
			if err != nil {
				return err
			}
			op.DstExtents = append(op.DstExtents, ext)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return op, nil
}

// end is the byte just past the last block the partition writes.
func (p *Partition) end(blockSize uint32) uint64 {
	var end uint64
	for _, op := range p.Operations {
		for _, ext := range op.DstExtents {
			if e := (ext.StartBlock + ext.NumBlocks) * uint64(blockSize); e > end {
				end = e
			}
		}
	}
	if p.Size > end {
		return p.Size
	}
	return end
}
