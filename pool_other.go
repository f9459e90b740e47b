//go:build !unix

package wordfreq

// mapSlots allocates the slot pool on the Go heap on platforms without
// anonymous mmap; page alignment is not guaranteed there.
func mapSlots(size int) ([]byte, func() error, error) {
	return make([]byte, size), func() error { return nil }, nil
}
