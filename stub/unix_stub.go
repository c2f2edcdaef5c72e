//go:build !windows
// +build !windows

package stub

import (
	"io"

	"golang.org/x/sys/unix"
)

// Stub functions link to unix libraries

// IsBlockDevice reports whether path is a block device, such as a boot
// partition under /dev/block/by-name.
func IsBlockDevice(path string) (bool, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return false, err
	}
	return st.Mode&unix.S_IFMT == unix.S_IFBLK, nil
}

// DeviceSize returns the size in bytes of the block device behind fd.
func DeviceSize(fd uintptr) (int64, error) {
	size, err := unix.Seek(int(fd), 0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	if _, err := unix.Seek(int(fd), 0, io.SeekStart); err != nil {
		return 0, err
	}
	return size, nil
}
