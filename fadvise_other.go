//go:build !linux

package wordfreq

import "os"

// adviseSequential is a no-op on non-Linux platforms.
// FADV_SEQUENTIAL is Linux-specific.
func adviseSequential(f *os.File) {}

// adviseMapped is a no-op on non-Linux platforms.
func adviseMapped(data []byte) {}
