//go:build linux

package wordfreq

import (
	"os"

	"golang.org/x/sys/unix"
)

// adviseSequential hints to the kernel that f will be read once, front to
// back, so readahead can be aggressive.
// Best-effort: errors are silently ignored.
func adviseSequential(f *os.File) {
	_ = unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_SEQUENTIAL)
}

// adviseMapped asks for readahead on a mapped input and marks the mapping
// as sequentially accessed.
// Best-effort: errors are silently ignored.
func adviseMapped(data []byte) {
	if len(data) == 0 {
		return
	}
	_ = unix.Madvise(data, unix.MADV_SEQUENTIAL)
	_ = unix.Madvise(data, unix.MADV_WILLNEED)
}
