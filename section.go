package bootimage

import (
	"fmt"
	"strings"
)

// Section is a logical region of a boot image.
type Section int

const (
	SectionHeader Section = iota
	SectionKernel
	SectionRamdisk
	SectionSecond
	SectionDeviceTree
)

// Sections is the on-disk order of the sections. It must never be reordered.
var Sections = [...]Section{
	SectionHeader,
	SectionKernel,
	SectionRamdisk,
	SectionSecond,
	SectionDeviceTree,
}

func (s Section) String() string {
	switch s {
	case SectionHeader:
		return "header"
	case SectionKernel:
		return "kernel"
	case SectionRamdisk:
		return "ramdisk"
	case SectionSecond:
		return "second"
	case SectionDeviceTree:
		return "device_tree"
	default:
		return fmt.Sprintf("section(%d)", int(s))
	}
}

// Title is the human readable name used in listings.
func (s Section) Title() string {
	switch s {
	case SectionHeader:
		return "Header"
	case SectionKernel:
		return "Kernel"
	case SectionRamdisk:
		return "Ramdisk"
	case SectionSecond:
		return "Second Ramdisk"
	case SectionDeviceTree:
		return "Device Tree"
	default:
		return s.String()
	}
}

// FileName is the default name a section is unpacked to.
func (s Section) FileName() string {
	return s.String() + ".img"
}

func (s Section) valid() bool {
	return s >= SectionHeader && s <= SectionDeviceTree
}

// ParseSection maps a name such as "kernel" or "dt" to a Section.
func ParseSection(name string) (Section, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "header", "hdr":
		return SectionHeader, nil
	case "kernel":
		return SectionKernel, nil
	case "ramdisk":
		return SectionRamdisk, nil
	case "second", "second_ramdisk":
		return SectionSecond, nil
	case "device_tree", "devicetree", "tree", "dt", "dtb":
		return SectionDeviceTree, nil
	}
	return 0, &NoSectionError{Name: name}
}

// SizeOf returns the declared size of s in bytes. Sizes are trusted as is.
func SizeOf(h *Header, s Section) uint64 {
	switch s {
	case SectionHeader:
		return HEADER_SIZE
	case SectionKernel:
		return uint64(h.KernelSize)
	case SectionRamdisk:
		return uint64(h.RamdiskSize)
	case SectionSecond:
		return uint64(h.SecondSize)
	case SectionDeviceTree:
		return uint64(h.DeviceTreeSize)
	default:
		return 0
	}
}

// PresentSections returns the sections with a non-zero size, in order. It
// is meant for listings only; offsets always account for every section.
func PresentSections(h *Header) []Section {
	ret := make([]Section, 0, len(Sections))
	for _, s := range Sections {
		if SizeOf(h, s) > 0 {
			ret = append(ret, s)
		}
	}
	return ret
}
