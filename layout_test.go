package bootimage_test

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"bootimage"

	"github.com/stretchr/testify/require"
)

func sizedHeader(kernel, ramdisk, second, dt uint32) bootimage.Header {
	h := bootimage.DefaultHeader()
	h.KernelSize = kernel
	h.RamdiskSize = ramdisk
	h.SecondSize = second
	h.DeviceTreeSize = dt
	return h
}

func TestOffsetOfPageAlignment(t *testing.T) {
	h := sizedHeader(5000, 100, 0, 10)

	tests := map[bootimage.Section]uint64{
		bootimage.SectionHeader:     0,
		bootimage.SectionKernel:     2048,
		bootimage.SectionRamdisk:    4 * 2048,
		bootimage.SectionSecond:     5 * 2048,
		bootimage.SectionDeviceTree: 5 * 2048,
	}
	for s, want := range tests {
		got, err := bootimage.OffsetOf(&h, 2048, s)
		require.NoError(t, err, s.String())
		require.Equal(t, want, got, s.String())
	}

	require.EqualValues(t, 3, bootimage.PagesOf(5000, 2048))
	require.EqualValues(t, 0, bootimage.PagesOf(0, 2048))
	require.EqualValues(t, 1, bootimage.PagesOf(2048, 2048))
}

func TestOffsetOfZeroPageSize(t *testing.T) {
	h := sizedHeader(1, 2, 3, 4)
	for _, s := range bootimage.Sections {
		_, err := bootimage.OffsetOf(&h, 0, s)
		require.ErrorIs(t, err, bootimage.ErrNoPageSize, s.String())

		_, _, err = bootimage.SizeAndOffset(&h, 0, s)
		require.ErrorIs(t, err, bootimage.ErrNoPageSize, s.String())
	}
	_, err := bootimage.Layout(&h, 0)
	require.ErrorIs(t, err, bootimage.ErrNoPageSize)
}

func TestOffsetOfUnknownSection(t *testing.T) {
	h := bootimage.DefaultHeader()
	_, err := bootimage.OffsetOf(&h, 2048, bootimage.Section(42))
	var nerr *bootimage.NoSectionError
	require.ErrorAs(t, err, &nerr)
}

func TestMonotonicAlignment(t *testing.T) {
	sizes := []uint32{0, 1, 615, 616, 2047, 2048, 2049, 5000, 1 << 20}
	for _, pageSize := range []uint32{1, 512, 2048, 4096, 3000} {
		for _, a := range sizes {
			for _, b := range sizes {
				h := sizedHeader(a, b, a^b, b/2)
				regions, err := bootimage.Layout(&h, pageSize)
				require.NoError(t, err)
				require.Len(t, regions, len(bootimage.Sections))
				require.Zero(t, regions[0].Offset)

				for i := 1; i < len(regions); i++ {
					prev, cur := regions[i-1], regions[i]
					require.GreaterOrEqual(t, cur.Offset, prev.End())
					require.Zero(t, cur.Offset%uint64(pageSize))

					off, err := bootimage.OffsetOf(&h, pageSize, cur.Section)
					require.NoError(t, err)
					require.Equal(t, off, cur.Offset)
				}
			}
		}
	}
}

func TestSizeOf(t *testing.T) {
	h := sizedHeader(1, 2, 3, 4)
	require.EqualValues(t, bootimage.HEADER_SIZE, bootimage.SizeOf(&h, bootimage.SectionHeader))
	require.EqualValues(t, 1, bootimage.SizeOf(&h, bootimage.SectionKernel))
	require.EqualValues(t, 2, bootimage.SizeOf(&h, bootimage.SectionRamdisk))
	require.EqualValues(t, 3, bootimage.SizeOf(&h, bootimage.SectionSecond))
	require.EqualValues(t, 4, bootimage.SizeOf(&h, bootimage.SectionDeviceTree))

	h = sizedHeader(1, 0, 0, 4)
	require.Equal(t, []bootimage.Section{
		bootimage.SectionHeader,
		bootimage.SectionKernel,
		bootimage.SectionDeviceTree,
	}, bootimage.PresentSections(&h))
}

func TestRegionString(t *testing.T) {
	h := sizedHeader(5000, 0, 0, 0)
	regions, err := bootimage.Layout(&h, 2048)
	require.NoError(t, err)
	require.Equal(t, "0x00000800 - Kernel         (size: 5000)", regions[1].String())
}

func TestReadSection(t *testing.T) {
	img := bootimage.New()
	img.InsertKernel(bytes.Repeat([]byte{'k'}, 3000))
	img.InsertRamdisk([]byte("ramdisk"))

	var buf bytes.Buffer
	_, err := img.WritePaddedTo(&buf)
	require.NoError(t, err)

	h := img.Header()
	r := bytes.NewReader(buf.Bytes())

	ramdisk, err := bootimage.ReadSection(r, &h, 2048, bootimage.SectionRamdisk)
	require.NoError(t, err)
	require.Equal(t, []byte("ramdisk"), ramdisk)

	empty, err := bootimage.ReadSection(r, &h, 2048, bootimage.SectionSecond)
	require.NoError(t, err)
	require.Empty(t, empty)

	_, err = bootimage.ReadSection(r, &h, 0, bootimage.SectionKernel)
	var serr *bootimage.SectionError
	require.ErrorAs(t, err, &serr)
	require.Equal(t, bootimage.SectionKernel, serr.Section)
	require.ErrorIs(t, err, bootimage.ErrNoPageSize)

	h.DeviceTreeSize = 100
	_, err = bootimage.ReadSection(r, &h, 2048, bootimage.SectionDeviceTree)
	var ioErr *bootimage.IoError
	require.ErrorAs(t, err, &ioErr)
	require.Equal(t, "read", ioErr.Op)
	require.True(t, errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF))
}

func TestParseSection(t *testing.T) {
	tests := map[string]bootimage.Section{
		"header":      bootimage.SectionHeader,
		"Kernel":      bootimage.SectionKernel,
		" ramdisk ":   bootimage.SectionRamdisk,
		"second":      bootimage.SectionSecond,
		"dt":          bootimage.SectionDeviceTree,
		"device_tree": bootimage.SectionDeviceTree,
	}
	for name, want := range tests {
		got, err := bootimage.ParseSection(name)
		require.NoError(t, err, name)
		require.Equal(t, want, got, name)
	}

	_, err := bootimage.ParseSection("recovery")
	var nerr *bootimage.NoSectionError
	require.ErrorAs(t, err, &nerr)
	require.Equal(t, "recovery", nerr.Name)

	for _, s := range bootimage.Sections {
		got, err := bootimage.ParseSection(s.String())
		require.NoError(t, err)
		require.Equal(t, s, got)
	}
	require.Equal(t, "device_tree.img", bootimage.SectionDeviceTree.FileName())
	require.Equal(t, "Second Ramdisk", bootimage.SectionSecond.Title())
}
