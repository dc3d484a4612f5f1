package util

import (
	"os"
	"syscall"
)

// IsSameFilesystem reports whether path1 and path2 live on the same
// filesystem, by comparing device IDs. A stat failure or an unsupported
// platform makes it report false, so callers fall back to the safer
// copy+remove path instead of assuming rename will work.
func IsSameFilesystem(path1, path2 string) (bool, error) {
	stat1, err := os.Stat(path1)
	if err != nil {
		return false, err
	}
	stat2, err := os.Stat(path2)
	if err != nil {
		return false, err
	}

	sysStat1, ok1 := stat1.Sys().(*syscall.Stat_t)
	sysStat2, ok2 := stat2.Sys().(*syscall.Stat_t)
	if !ok1 || !ok2 {
		return false, nil
	}

	return sysStat1.Dev == sysStat2.Dev, nil
}
