//go:build windows

package stub

// Stub functions, there are no block device nodes on windows

func IsBlockDevice(path string) (bool, error) {
	return false, nil
}

func DeviceSize(fd uintptr) (int64, error) {
	return 0, nil
}
