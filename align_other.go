//go:build !linux

package wordfreq

import "os"

// fileAlignment returns defaultAlignment on platforms where the filesystem
// block size is not queried.
func fileAlignment(f *os.File) int {
	return defaultAlignment
}
