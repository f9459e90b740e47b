//go:build unix

package wordfreq

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// mapSlots allocates the slot pool as one anonymous private mapping, which
// the kernel hands out page-aligned.
func mapSlots(size int) ([]byte, func() error, error) {
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, nil, fmt.Errorf("map %d-byte slot pool: %w", size, err)
	}
	release := func() error {
		if err := unix.Munmap(data); err != nil {
			return fmt.Errorf("munmap slot pool: %w", err)
		}
		return nil
	}
	return data, release, nil
}
