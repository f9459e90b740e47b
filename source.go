package wordfreq

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/edsrzf/mmap-go"
	streamerrors "github.com/tamirms/wordfreq/errors"
)

// source is an opened input stream.
type source struct {
	r     io.Reader
	size  int64 // 0 when unknown
	align int   // 0 when unknown
	close func() error
}

// openFile opens path for a single sequential pass, either through read(2)
// with a sequential-access hint or through a read-only memory map.
func openFile(path string, useMmap bool) (*source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", streamerrors.ErrOpen, err)
	}
	info, err := f.Stat()
	if err != nil {
		return nil, errors.Join(fmt.Errorf("%w: stat %s: %w", streamerrors.ErrOpen, path, err), f.Close())
	}
	if info.IsDir() {
		return nil, errors.Join(fmt.Errorf("%w: %s is a directory", streamerrors.ErrOpen, path), f.Close())
	}
	size := info.Size()
	align := fileAlignment(f)

	// Zero-length files cannot be mapped.
	if !useMmap || size == 0 {
		adviseSequential(f)
		return &source{r: f, size: size, align: align, close: f.Close}, nil
	}

	mm, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("%w: mmap %s: %w", streamerrors.ErrOpen, path, err), f.Close())
	}
	// Per POSIX mmap(2), the mapping outlives the descriptor.
	if err := f.Close(); err != nil {
		return nil, errors.Join(fmt.Errorf("close %s: %w", path, err), mm.Unmap())
	}
	adviseMapped(mm)
	return &source{
		r:     bytes.NewReader(mm),
		size:  size,
		align: align,
		close: mm.Unmap,
	}, nil
}
