//go:build linux

package wordfreq

import (
	"os"

	"golang.org/x/sys/unix"
)

// fileAlignment returns the preferred I/O block size of the filesystem
// holding f, or defaultAlignment when it cannot be determined or is not a
// power of two.
func fileAlignment(f *os.File) int {
	var st unix.Statfs_t
	if err := unix.Fstatfs(int(f.Fd()), &st); err != nil {
		return defaultAlignment
	}
	bs := int(st.Bsize)
	if bs <= 0 || bs&(bs-1) != 0 {
		return defaultAlignment
	}
	return bs
}
