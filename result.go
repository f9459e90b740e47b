package wordfreq

import (
	"cmp"
	"iter"
	"slices"
	"time"

	"github.com/tamirms/wordfreq/internal/hashtable"
	"github.com/tamirms/wordfreq/internal/tokenize"
)

// Result is the outcome of a completed count.
type Result struct {
	TotalWords   uint64 // candidate words seen, eligible or not
	InvalidWords uint64 // candidates rejected by the eligibility rule
	BytesRead    uint64
	Checksum     uint64 // xxHash64 of the input bytes
	Workers      int

	// Table health, folded from every worker's private table.
	Lookups  uint64
	Probes   uint64
	MaxDepth int

	Elapsed time.Duration
	// MergeDelay is the time from end of file until the last worker
	// finished merging.
	MergeDelay time.Duration

	table *hashtable.Table
	tok   *tokenize.Tokenizer
}

// WordCount is one distinct word and its number of occurrences.
type WordCount struct {
	Word  string
	Count uint64
}

// Distinct returns the number of distinct words.
func (r *Result) Distinct() int {
	return r.table.Len()
}

// Count returns the occurrences of word, ignoring ASCII case.
func (r *Result) Count(word string) uint64 {
	ref, ok := r.table.Lookup(r.tok.Hash([]byte(word)))
	if !ok {
		return 0
	}
	return uint64(r.table.Count(ref))
}

// All yields every distinct lowercase word with its count, in arbitrary
// order.
func (r *Result) All() iter.Seq2[string, uint64] {
	return func(yield func(string, uint64) bool) {
		for _, ref := range r.table.All() {
			if !yield(string(r.table.Word(ref)), uint64(r.table.Count(ref))) {
				return
			}
		}
	}
}

// Sorted returns every distinct word ordered by descending count, ties
// broken lexicographically.
func (r *Result) Sorted() []WordCount {
	out := make([]WordCount, 0, r.Distinct())
	for w, n := range r.All() {
		out = append(out, WordCount{Word: w, Count: n})
	}
	slices.SortFunc(out, func(a, b WordCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Word, b.Word)
	})
	return out
}

// Sum returns the total of all counters. It equals
// TotalWords - InvalidWords.
func (r *Result) Sum() uint64 {
	var sum uint64
	for _, n := range r.All() {
		sum += n
	}
	return sum
}

// AvgProbeDepth returns the mean number of chain records visited per lookup.
func (r *Result) AvgProbeDepth() float64 {
	if r.Lookups == 0 {
		return 0
	}
	return float64(r.Probes) / float64(r.Lookups)
}

// Throughput returns the input rate in bytes per second.
func (r *Result) Throughput() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.BytesRead) / r.Elapsed.Seconds()
}
