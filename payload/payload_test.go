package payload

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
	"google.golang.org/protobuf/encoding/protowire"
)

const testBlockSize = 16

type testOp struct {
	typ    OpType
	data   []byte
	start  uint64
	blocks uint64
}

type testPartition struct {
	name string
	size uint64
	ops  []testOp
}

func appendMessage(b []byte, num protowire.Number, msg []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, msg)
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

// buildPayload serializes a full payload with the given partitions. The
// operation data blobs are laid out back to back after the signature.
func buildPayload(t *testing.T, minorVersion uint64, parts ...testPartition) []byte {
	t.Helper()

	var manifest, blobs []byte
	manifest = appendVarint(manifest, manifestBlockSize, testBlockSize)
	manifest = appendVarint(manifest, manifestMinorVersion, minorVersion)
	for _, p := range parts {
		var pb []byte
		pb = protowire.AppendTag(pb, partitionName, protowire.BytesType)
		pb = protowire.AppendString(pb, p.name)
		pb = appendMessage(pb, partitionNewInfo, appendVarint(nil, infoSize, p.size))
		for _, op := range p.ops {
			var ob []byte
			ob = appendVarint(ob, opType, uint64(op.typ))
			if len(op.data) > 0 {
				ob = appendVarint(ob, opDataOffset, uint64(len(blobs)))
				ob = appendVarint(ob, opDataLength, uint64(len(op.data)))
				blobs = append(blobs, op.data...)
			}
			var eb []byte
			eb = appendVarint(eb, extentStartBlock, op.start)
			eb = appendVarint(eb, extentNumBlocks, op.blocks)
			ob = appendMessage(ob, opDstExtents, eb)
			pb = appendMessage(pb, partitionOps, ob)
		}
		manifest = appendMessage(manifest, manifestPartitions, pb)
	}

	sig := []byte("signature")
	var out bytes.Buffer
	out.WriteString(PAYLOAD_MAGIC)
	require.NoError(t, binary.Write(&out, binary.BigEndian, uint64(2)))
	require.NoError(t, binary.Write(&out, binary.BigEndian, uint64(len(manifest))))
	require.NoError(t, binary.Write(&out, binary.BigEndian, uint32(len(sig))))
	out.Write(manifest)
	out.Write(sig)
	out.Write(blobs)
	return out.Bytes()
}

func block(c byte) []byte {
	return bytes.Repeat([]byte{c}, testBlockSize)
}

func compressXz(t *testing.T, data []byte) []byte {
	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	require.NoError(t, err)
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func compressBz(t *testing.T, data []byte) []byte {
	var buf bytes.Buffer
	w, err := bzip2.NewWriter(&buf, nil)
	require.NoError(t, err)
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func compressZstd(t *testing.T, data []byte) []byte {
	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	defer enc.Close()
	return enc.EncodeAll(data, nil)
}

func TestExtractBytes(t *testing.T) {
	boot := testPartition{
		name: "boot",
		size: 6 * testBlockSize,
		ops: []testOp{
			{typ: REPLACE, data: block('a'), start: 0, blocks: 1},
			{typ: REPLACE_XZ, data: compressXz(t, block('b')), start: 1, blocks: 1},
			{typ: REPLACE_BZ, data: compressBz(t, block('c')), start: 2, blocks: 1},
			{typ: REPLACE_ZSTD, data: compressZstd(t, block('d')), start: 3, blocks: 1},
			{typ: ZERO, start: 4, blocks: 1},
		},
	}
	system := testPartition{
		name: "system",
		size: testBlockSize,
		ops:  []testOp{{typ: REPLACE, data: block('s'), start: 0, blocks: 1}},
	}
	raw := buildPayload(t, 0, system, boot)

	p, err := Open(bytes.NewReader(raw))
	require.NoError(t, err)
	require.Equal(t, []string{"system", "boot"}, p.Partitions())
	require.EqualValues(t, testBlockSize, p.Manifest.BlockSize)

	got, err := p.ExtractBytes("")
	require.NoError(t, err)

	var want []byte
	for _, c := range []byte("abcd") {
		want = append(want, block(c)...)
	}
	want = append(want, make([]byte, 2*testBlockSize)...)
	require.Equal(t, want, got)

	got, err = p.ExtractBytes("system")
	require.NoError(t, err)
	require.Equal(t, block('s'), got)
}

func TestOpenAtOffset(t *testing.T) {
	raw := buildPayload(t, 0, testPartition{
		name: "boot",
		ops:  []testOp{{typ: REPLACE, data: block('k'), start: 0, blocks: 1}},
	})
	r := bytes.NewReader(append([]byte("junk"), raw...))
	_, err := r.Seek(4, 0)
	require.NoError(t, err)

	p, err := Open(r)
	require.NoError(t, err)
	got, err := p.ExtractBytes("boot")
	require.NoError(t, err)
	require.Equal(t, block('k'), got)
}

func TestMissingPartition(t *testing.T) {
	raw := buildPayload(t, 0, testPartition{name: "system"})
	p, err := Open(bytes.NewReader(raw))
	require.NoError(t, err)

	_, err = p.ExtractBytes("")
	require.ErrorContains(t, err, "partition boot not found")
}

func TestOpenRejects(t *testing.T) {
	good := buildPayload(t, 0, testPartition{name: "boot"})

	badMagic := append([]byte{}, good...)
	copy(badMagic, "XXXX")

	badVersion := append([]byte{}, good...)
	binary.BigEndian.PutUint64(badVersion[4:], 1)

	tests := map[string]struct {
		data []byte
		msg  string
	}{
		"magic":     {badMagic, "invalid magic"},
		"version":   {badVersion, "unsupported version: 1"},
		"delta":     {buildPayload(t, 5, testPartition{name: "boot"}), "delta payloads"},
		"truncated": {good[:10], "reading payload header"},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Open(bytes.NewReader(tc.data))
			require.ErrorContains(t, err, tc.msg)
		})
	}
}

func TestUnsupportedOperation(t *testing.T) {
	raw := buildPayload(t, 0, testPartition{
		name: "boot",
		ops:  []testOp{{typ: SOURCE_COPY, start: 0, blocks: 1}},
	})
	p, err := Open(bytes.NewReader(raw))
	require.NoError(t, err)

	_, err = p.ExtractBytes("boot")
	require.ErrorContains(t, err, "unsupported operation type SOURCE_COPY")
}

func TestOpTypeString(t *testing.T) {
	require.Equal(t, "REPLACE_XZ", REPLACE_XZ.String())
	require.Equal(t, "OpType(42)", OpType(42).String())
}
