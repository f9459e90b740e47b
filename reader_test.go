package wordfreq

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/cespare/xxhash/v2"

	streamerrors "github.com/tamirms/wordfreq/errors"
	"github.com/tamirms/wordfreq/internal/queue"
	"github.com/tamirms/wordfreq/internal/tokenize"
)

func TestNewGeometry(t *testing.T) {
	g, err := newGeometry(12, 4096)
	if err != nil {
		t.Fatal(err)
	}
	if g.shadow != 4096 || g.blockSize != 4096 || g.slotSize != 3*4096 {
		t.Fatalf("geometry = %+v", g)
	}

	g, err = newGeometry(6, 16)
	if err != nil {
		t.Fatal(err)
	}
	// carryLen+1 = 33 rounds up to 48.
	if g.shadow != 48 || g.blockSize != 64 || g.slotSize != 48+64+16 {
		t.Fatalf("geometry = %+v", g)
	}

	if _, err := newGeometry(11, 4096); !errors.Is(err, streamerrors.ErrChunkTooSmall) {
		t.Fatalf("got %v, want ErrChunkTooSmall", err)
	}
	if _, err := newGeometry(12, 3000); !errors.Is(err, streamerrors.ErrInvalidAlignment) {
		t.Fatalf("got %v, want ErrInvalidAlignment", err)
	}
}

func TestSlotPoolSlotsAreDisjoint(t *testing.T) {
	g, err := newGeometry(6, 16)
	if err != nil {
		t.Fatal(err)
	}
	pool, err := newSlotPool(4, g)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = pool.close() }()

	for id := range pool.n {
		s := pool.slot(id)
		if len(s) != g.slotSize || cap(s) != g.slotSize {
			t.Fatalf("slot %d: len/cap %d/%d", id, len(s), cap(s))
		}
		for i := range s {
			s[i] = byte(id)
		}
	}
	for id := range pool.n {
		for _, b := range pool.slot(id) {
			if b != byte(id) {
				t.Fatalf("slot %d overlaps another slot", id)
			}
		}
	}
	if err := pool.close(); err != nil {
		t.Fatal(err)
	}
	if err := pool.close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

// TestChunkReaderProtocol drives the reader with the test as the only
// consumer and checks the descriptors it produces.
func TestChunkReaderProtocol(t *testing.T) {
	rng := newTestRNG(t)
	text := randomText(rng, 1000)

	g, err := newGeometry(6, 16)
	if err != nil {
		t.Fatal(err)
	}
	pool, err := newSlotPool(2, g)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = pool.close() }()

	streamCtx, endStream := context.WithCancel(context.Background())
	defer endStream()
	free, _ := queue.New[int](pool.n, streamCtx.Done())
	full, _ := queue.New[chunk](pool.n, streamCtx.Done())

	var bytesRead atomic.Uint64
	r := &chunkReader{
		src:       strings.NewReader(string(text)),
		pool:      pool,
		free:      free,
		full:      full,
		endStream: endStream,
		digest:    xxhash.New(),
		bytesRead: &bytesRead,
	}
	errc := make(chan error, 1)
	go func() { errc <- r.run(streamCtx) }()

	tok := tokenize.New(5)
	var counts tokenize.Counts
	words := map[string]uint64{}
	var chunks []chunk
	for {
		c, st := full.Dequeue()
		if st == queue.Cancelled {
			break
		}
		chunks = append(chunks, c)
		counts.Add(tok.Scan(c.Chunk, func(w []byte, _ uint64) {
			words[strings.ToLower(string(w))]++
		}))
		free.Enqueue(c.slot)
	}
	if err := <-errc; err != nil {
		t.Fatalf("run: %v", err)
	}

	// 1000 bytes in 64-byte blocks: 15 full blocks and a 40-byte tail.
	if len(chunks) != 16 {
		t.Fatalf("%d chunks, want 16", len(chunks))
	}
	for i, c := range chunks {
		if c.First != (i == 0) || c.Last != (i == len(chunks)-1) {
			t.Fatalf("chunk %d: First=%v Last=%v", i, c.First, c.Last)
		}
		if c.offset != uint64(i*64) {
			t.Fatalf("chunk %d: offset %d", i, c.offset)
		}
		if c.Buf[len(c.Buf)-1] != tokenize.Terminator {
			t.Fatalf("chunk %d: missing terminator", i)
		}
	}

	want := referenceCount(text)
	if counts.Total != want.total || counts.Invalid != want.invalid {
		t.Fatalf("counts %+v, want %d/%d", counts, want.total, want.invalid)
	}
	for w, n := range want.words {
		if words[w] != n {
			t.Fatalf("%q: %d, want %d", w, words[w], n)
		}
	}
	if bytesRead.Load() != 1000 || r.digest.Sum64() != xxhash.Sum64(text) {
		t.Fatalf("bytesRead %d, digest mismatch", bytesRead.Load())
	}
	if r.eofAt.IsZero() {
		t.Fatal("eofAt not recorded")
	}
}
