// Package wordfreq counts word frequencies over very large text files with a
// pipelined reader/worker design and bounded memory.
//
// One goroutine streams the input in fixed-size blocks into a small pool of
// buffer slots. Each block is preceded by the tail of the block before it,
// so a word split across a block boundary is always seen whole by exactly
// one chunk. A pool of workers tokenizes chunks in parallel into private
// arena-backed hash tables; when the stream ends every worker merges its
// table into the global one, once, under a single mutex.
//
// # Basic Usage
//
//	res, err := wordfreq.Count(ctx, "corpus.txt")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.Distinct(), res.Count("the"))
//	if err := wordfreq.WriteReport(os.Stdout, res); err != nil {
//	    log.Fatal(err)
//	}
//
// # Words
//
// A word is a run of ASCII letters of length 3 to 31, flanked on both sides
// by a delimiter (space, tab, CR, LF, NUL or one of , . ' " ? - : ; * !).
// Other runs are counted as invalid. Words are case-insensitive and reported
// in lowercase. Words are keyed by a 64-bit hash only; two distinct words
// with the same hash share a counter.
//
// # Package Structure
//
//   - Public API: count.go (Count, CountReader), result.go, report.go
//   - Configuration: options.go (Option, With* functions)
//   - Pipeline: reader.go (slot pool, chunked reader), worker.go, source.go
//   - Building blocks: internal/queue, internal/tokenize, internal/hashtable
//   - Platform: fadvise_*.go, align_*.go, affinity_*.go, pool_*.go
package wordfreq
