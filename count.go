package wordfreq

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"github.com/tamirms/wordfreq/internal/hashtable"
	"github.com/tamirms/wordfreq/internal/queue"
	"github.com/tamirms/wordfreq/internal/tokenize"
)

// Progress is a snapshot of a running count.
type Progress struct {
	BytesRead  uint64
	TotalBytes uint64 // 0 when the input size is unknown
	Words      uint64 // candidate words tokenized so far, eligible or not
	Elapsed    time.Duration
}

// Percent returns the share of the input read so far, or 0 when the input
// size is unknown.
func (p Progress) Percent() float64 {
	if p.TotalBytes == 0 {
		return 0
	}
	return float64(p.BytesRead) / float64(p.TotalBytes) * 100
}

// Count counts the words of the file at path.
func Count(ctx context.Context, path string, opts ...Option) (res *Result, err error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	src, err := openFile(path, cfg.useMmap)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := src.close(); cerr != nil {
			res = nil
			err = errors.Join(err, fmt.Errorf("close input: %w", cerr))
		}
	}()
	return run(ctx, src, cfg)
}

// CountReader counts the words read from r until io.EOF.
func CountReader(ctx context.Context, r io.Reader, opts ...Option) (*Result, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	return run(ctx, &source{r: r}, cfg)
}

// mergeState is the global table and the run totals. It is only touched
// under mu, by one merging worker at a time.
type mergeState struct {
	mu       sync.Mutex
	table    *hashtable.Table
	counts   tokenize.Counts
	lookups  uint64
	probes   uint64
	maxDepth int
	lastDone time.Time
}

// merge folds one worker's private table and statistics into the global
// state. Each worker calls it exactly once.
func (m *mergeState) merge(w *worker) {
	m.mu.Lock()
	defer m.mu.Unlock()

	w.table.MergeInto(m.table)
	m.counts.Add(w.counts)
	m.lookups += w.table.Lookups()
	m.probes += w.table.Probes()
	m.maxDepth = max(m.maxDepth, w.table.MaxDepth())
	m.lastDone = time.Now()
}

func run(ctx context.Context, src *source, cfg *config) (res *Result, err error) {
	start := time.Now()

	align := cfg.alignment
	if align == 0 {
		align = src.align
	}
	if align == 0 {
		align = defaultAlignment
	}
	geom, err := newGeometry(cfg.chunkExponent, align)
	if err != nil {
		return nil, err
	}

	tok := cfg.tokenizer()
	global, err := hashtable.New(cfg.binsExponent)
	if err != nil {
		return nil, err
	}

	n := cfg.workerCount()
	workers := make([]*worker, n)
	for i := range workers {
		if workers[i], err = newWorker(i, tok, cfg.binsExponent); err != nil {
			return nil, err
		}
	}

	pool, err := newSlotPool(n+slotOverprovision, geom)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := pool.close(); cerr != nil {
			res = nil
			err = errors.Join(err, cerr)
		}
	}()

	g, gctx := errgroup.WithContext(ctx)

	// The stream signal fires when the reader has seen every slot come back,
	// or earlier if the group is cancelled.
	streamCtx, endStream := context.WithCancel(gctx)
	defer endStream()

	free, err := queue.New[int](pool.n, streamCtx.Done())
	if err != nil {
		return nil, err
	}
	full, err := queue.New[chunk](pool.n, streamCtx.Done())
	if err != nil {
		return nil, err
	}

	var bytesRead, words atomic.Uint64
	reader := &chunkReader{
		src:       src.r,
		pool:      pool,
		free:      free,
		full:      full,
		endStream: endStream,
		digest:    xxhash.New(),
		bytesRead: &bytesRead,
	}
	state := &mergeState{table: global}

	g.Go(func() error {
		return reader.run(streamCtx)
	})
	for _, w := range workers {
		g.Go(func() error {
			if cfg.pinning {
				pinWorker(w.id)
			}
			w.drain(full, free, &words)
			if err := gctx.Err(); err != nil {
				// Aborted stream: the private table is incomplete.
				return err
			}
			state.merge(w)
			return nil
		})
	}

	snapshot := func() Progress {
		return Progress{
			BytesRead:  bytesRead.Load(),
			TotalBytes: uint64(max(src.size, 0)),
			Words:      words.Load(),
			Elapsed:    time.Since(start),
		}
	}
	stopProgress := startProgress(cfg, snapshot)
	err = g.Wait()
	stopProgress()
	if err != nil {
		return nil, err
	}
	if cfg.progressFn != nil {
		cfg.progressFn(snapshot())
	}

	res = &Result{
		TotalWords:   state.counts.Total,
		InvalidWords: state.counts.Invalid,
		BytesRead:    bytesRead.Load(),
		Checksum:     reader.digest.Sum64(),
		Workers:      n,
		Lookups:      state.lookups,
		Probes:       state.probes,
		MaxDepth:     state.maxDepth,
		Elapsed:      time.Since(start),
		MergeDelay:   state.lastDone.Sub(reader.eofAt),
		table:        global,
		tok:          tok,
	}
	return res, nil
}

// startProgress calls cfg.progressFn every cfg.progressEvery until the
// returned stop function is called. stop waits for the sampler to exit.
func startProgress(cfg *config, snapshot func() Progress) (stop func()) {
	if cfg.progressFn == nil || cfg.progressEvery <= 0 {
		return func() {}
	}
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Go(func() {
		ticker := time.NewTicker(cfg.progressEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				cfg.progressFn(snapshot())
			case <-done:
				return
			}
		}
	})
	return func() {
		close(done)
		wg.Wait()
	}
}
