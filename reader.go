package wordfreq

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	streamerrors "github.com/tamirms/wordfreq/errors"
	"github.com/tamirms/wordfreq/internal/queue"
	"github.com/tamirms/wordfreq/internal/tokenize"
)

// defaultAlignment is used when the input's filesystem block size is unknown.
const defaultAlignment = 4096

// carryLen is how many trailing bytes of each block are replayed in front
// of the next block.
const carryLen = tokenize.MaxWordLen

// geometry describes one buffer slot:
//
//	[ shadow | blockSize data bytes | align tail pad ]
//
// The shadow holds the carried tail of the previous block plus one byte of
// left context; the tail pad holds the terminator.
type geometry struct {
	blockSize int
	shadow    int
	align     int
	slotSize  int
}

func newGeometry(chunkExponent, align int) (geometry, error) {
	if align <= 0 || align&(align-1) != 0 {
		return geometry{}, streamerrors.ErrInvalidAlignment
	}
	if chunkExponent > maxChunkExponent {
		return geometry{}, streamerrors.ErrChunkTooLarge
	}
	shadow := roundUp(carryLen+1, align)
	blockSize := 1 << chunkExponent
	if blockSize < shadow {
		return geometry{}, fmt.Errorf("%w: %d-byte blocks, %d-byte shadow", streamerrors.ErrChunkTooSmall, blockSize, shadow)
	}
	return geometry{
		blockSize: blockSize,
		shadow:    shadow,
		align:     align,
		slotSize:  shadow + blockSize + align,
	}, nil
}

func roundUp(n, align int) int {
	return (n + align - 1) &^ (align - 1)
}

// slotPool is one contiguous region carved into fixed-size slots.
type slotPool struct {
	geom    geometry
	data    []byte
	n       int
	release func() error
}

func newSlotPool(n int, geom geometry) (*slotPool, error) {
	data, release, err := mapSlots(n * geom.slotSize)
	if err != nil {
		return nil, err
	}
	return &slotPool{geom: geom, data: data, n: n, release: release}, nil
}

func (p *slotPool) slot(id int) []byte {
	off := id * p.geom.slotSize
	return p.data[off : off+p.geom.slotSize : off+p.geom.slotSize]
}

func (p *slotPool) close() error {
	if p.release == nil {
		return nil
	}
	err := p.release()
	p.release = nil
	p.data = nil
	return err
}

// chunk describes one filled slot handed from the reader to a worker.
type chunk struct {
	tokenize.Chunk
	slot   int
	offset uint64 // file offset of the block's first data byte
}

// chunkReader streams src into slots drawn from free and pushes filled
// chunk descriptors onto full.
type chunkReader struct {
	src  io.Reader
	pool *slotPool
	free *queue.Queue[int]
	full *queue.Queue[chunk]

	// endStream raises the cancellation signal both queues watch.
	endStream context.CancelFunc

	digest    *xxhash.Digest
	bytesRead *atomic.Uint64
	eofAt     time.Time
}

// run reads until end of file, then waits for every slot to come back to
// the free pool before raising the stream's cancellation signal. Returning
// the slots is the proof that every chunk has been tokenized.
func (r *chunkReader) run(ctx context.Context) error {
	geom := r.pool.geom
	for id := range r.pool.n {
		r.free.Enqueue(id)
	}

	carry := make([]byte, carryLen)
	first := true
	var offset uint64
	for {
		id, st := r.free.Dequeue()
		if st == queue.Cancelled {
			return ctx.Err()
		}
		slot := r.pool.slot(id)
		data := slot[geom.shadow : geom.shadow+geom.blockSize]

		n, err := io.ReadFull(r.src, data)
		last := false
		switch {
		case err == nil:
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			last = true
		default:
			return fmt.Errorf("%w at offset %d: %w", streamerrors.ErrRead, offset, err)
		}
		_, _ = r.digest.Write(data[:n])
		r.bytesRead.Add(uint64(n))

		// Replay the previous block's tail in front of this one, then keep
		// this block's tail for the next iteration.
		copy(slot[geom.shadow-carryLen:geom.shadow], carry)
		if !last {
			copy(carry, data[n-carryLen:n])
		}
		slot[geom.shadow+n] = tokenize.Terminator

		lead := carryLen + 1
		if first {
			lead = 1
			slot[geom.shadow-1] = tokenize.Terminator
		}
		buf := slot[geom.shadow-lead : geom.shadow+n+1]
		limit := len(buf)
		if !last {
			// Words starting in the last carryLen-1 bytes belong to the
			// next chunk, which sees them whole.
			limit = lead + n - carryLen + 1
		}

		c := chunk{
			Chunk:  tokenize.Chunk{Buf: buf, Limit: limit, First: first, Last: last},
			slot:   id,
			offset: offset,
		}
		if r.full.Enqueue(c) == queue.Cancelled {
			return ctx.Err()
		}
		first = false
		offset += uint64(n)
		if last {
			break
		}
	}
	r.eofAt = time.Now()

	for range r.pool.n {
		if _, st := r.free.Dequeue(); st == queue.Cancelled {
			return ctx.Err()
		}
	}
	r.endStream()
	return nil
}
