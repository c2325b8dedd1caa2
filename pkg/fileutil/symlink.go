package fileutil

import (
	"os"
)

func IsSymbolicLink(path string) (bool, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return false, err
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return true, nil
	}
	return false, nil
}

// IsRegular reports whether path exists and is a regular file.
// Symbolic links are not followed.
func IsRegular(path string) bool {
	info, err := os.Lstat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}
