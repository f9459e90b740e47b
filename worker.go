package wordfreq

import (
	"sync/atomic"

	"github.com/tamirms/wordfreq/internal/hashtable"
	"github.com/tamirms/wordfreq/internal/queue"
	"github.com/tamirms/wordfreq/internal/tokenize"
)

// worker tokenizes chunks into a private table. Nothing in a worker is
// shared until merge.
type worker struct {
	id     int
	tok    *tokenize.Tokenizer
	table  *hashtable.Table
	counts tokenize.Counts

	// scratch holds the lowercased copy of a newly inserted word.
	scratch []byte
}

func newWorker(id int, tok *tokenize.Tokenizer, binsExponent int) (*worker, error) {
	table, err := hashtable.New(binsExponent)
	if err != nil {
		return nil, err
	}
	return &worker{
		id:      id,
		tok:     tok,
		table:   table,
		scratch: make([]byte, 0, tokenize.MaxWordLen),
	}, nil
}

// drain consumes chunks until the stream's cancellation signal fires,
// returning every consumed slot to the free pool.
func (w *worker) drain(full *queue.Queue[chunk], free *queue.Queue[int], words *atomic.Uint64) {
	insert := w.insert
	for {
		c, st := full.Dequeue()
		if st == queue.Cancelled {
			return
		}
		counts := w.tok.Scan(c.Chunk, insert)
		free.Enqueue(c.slot)
		w.counts.Add(counts)
		words.Add(counts.Total)
	}
}

func (w *worker) insert(word []byte, hash uint64) {
	ref, found := w.table.FindOrInsert(hash, hashtable.ValueSize(len(word)))
	if found {
		w.table.AddCount(ref, 1)
		return
	}
	w.table.SetCount(ref, 1)
	w.scratch = tokenize.AppendLower(w.scratch[:0], word)
	w.table.SetWord(ref, w.scratch)
}
