// Package tokenize locates ASCII words in a chunk buffer, checks their
// eligibility and computes a case-insensitive 64-bit rolling hash.
//
// A chunk buffer has a fixed shape: Buf[0] is the byte preceding the first
// scannable byte, and Buf[len(Buf)-1] is the terminator byte written after
// the last data byte. Word starts are bounded by Chunk.Limit; a word that
// begins before Limit is read through to its end, however far past Limit
// that is, so a word straddling a block boundary is seen whole by the chunk
// that owns its first byte.
package tokenize

import (
	"encoding/binary"

	"github.com/zeebo/xxh3"
)

const (
	// MaxWordLen is the longest alphabetic run the shadow margin must carry
	// from one block into the next.
	MaxWordLen = 32

	// MinEligibleLen and MaxEligibleLen bound the length of a counted word.
	MinEligibleLen = 3
	MaxEligibleLen = 31

	// Terminator is written after the last data byte of every chunk.
	Terminator byte = 0
)

var (
	alphaLUT     [256]bool
	delimiterLUT [256]bool
	lowerLUT     [256]byte
)

func init() {
	for c := 'a'; c <= 'z'; c++ {
		alphaLUT[c] = true
		alphaLUT[c-32] = true
	}
	for _, c := range []byte{Terminator, ' ', ',', '\n', '\r', '.', '\'', '"', '?', '-', ':', ';', '*', '!', '\t'} {
		delimiterLUT[c] = true
	}
	for i := range lowerLUT {
		lowerLUT[i] = byte(i)
	}
	for c := 'A'; c <= 'Z'; c++ {
		lowerLUT[c] = byte(c + 32)
	}
}

// IsAlpha reports whether b is an ASCII letter.
func IsAlpha(b byte) bool { return alphaLUT[b] }

// IsDelimiter reports whether b may flank an eligible word.
func IsDelimiter(b byte) bool { return delimiterLUT[b] }

// AppendLower appends word to dst with ASCII letters folded to lowercase.
func AppendLower(dst, word []byte) []byte {
	for _, b := range word {
		dst = append(dst, lowerLUT[b])
	}
	return dst
}

// Chunk is one scan window.
type Chunk struct {
	Buf   []byte
	Limit int  // word starts must be < Limit
	First bool // no predecessor: there is no leading partial word to skip
	Last  bool // end of stream: the terminator ends a word instead of truncating it
}

// Counts tallies the candidate words of one or more chunks.
type Counts struct {
	Total   uint64
	Invalid uint64
}

// Add folds o into c.
func (c *Counts) Add(o Counts) {
	c.Total += o.Total
	c.Invalid += o.Invalid
}

// Tokenizer holds the substitution table of the rolling hash.
// It is immutable after construction and safe for concurrent use.
type Tokenizer struct {
	sbox [256]uint64
}

// New builds a Tokenizer whose substitution constants are derived from seed.
// Each constant is the xxh3 hash of its byte index, which gives 256
// independent uniform 64-bit values.
func New(seed uint64) *Tokenizer {
	var values [256]uint64
	var in [8]byte
	for i := range values {
		binary.LittleEndian.PutUint64(in[:], uint64(i))
		values[i] = xxh3.HashSeed(in[:], seed)
	}
	return FromValues(values)
}

// FromValues builds a Tokenizer from 256 externally generated constants.
// Uppercase letters are remapped to their lowercase counterpart's constant,
// which makes the hash case-insensitive.
func FromValues(values [256]uint64) *Tokenizer {
	t := &Tokenizer{sbox: values}
	for c := 'A'; c <= 'Z'; c++ {
		t.sbox[c] = t.sbox[c+32]
	}
	return t
}

// Sbox returns a copy of the substitution table.
func (t *Tokenizer) Sbox() [256]uint64 {
	return t.sbox
}

// Hash returns the rolling hash of word.
func (t *Tokenizer) Hash(word []byte) uint64 {
	var h uint64
	for _, b := range word {
		h = (h + t.sbox[b]) * 3
	}
	return h
}

// FindNextWordStart returns the index of the first letter in buf[off:limit].
func FindNextWordStart(buf []byte, off, limit int) (int, bool) {
	if limit > len(buf) {
		limit = len(buf)
	}
	for ; off < limit; off++ {
		if alphaLUT[buf[off]] {
			return off, true
		}
	}
	return 0, false
}

// FindWordEnd scans the letters starting at buf[start] and returns the index
// of the first non-letter together with the hash of the run. complete is
// false when the run stopped on the final terminator byte of buf, meaning
// the buffer ended mid-word.
func (t *Tokenizer) FindWordEnd(buf []byte, start int) (end int, hash uint64, complete bool) {
	end = start
	for end < len(buf) && alphaLUT[buf[end]] {
		hash = (hash + t.sbox[buf[end]]) * 3
		end++
	}
	return end, hash, end < len(buf)-1
}

// IsEligible reports whether buf[start:end] is a countable word: its length
// is within [MinEligibleLen, MaxEligibleLen] and both flanking bytes are
// delimiters. start must be at least 1.
func IsEligible(buf []byte, start, end int) bool {
	n := end - start
	if n < MinEligibleLen || n > MaxEligibleLen {
		return false
	}
	return delimiterLUT[buf[start-1]] && delimiterLUT[buf[end]]
}

// Scan walks every word that starts in c and calls fn for each eligible one.
// The word slice aliases c.Buf and is only valid during the call.
//
// A chunk with a predecessor first skips the run that starts at Buf[1]:
// those bytes were carried over from the previous block, whose scan already
// counted the whole run.
func (t *Tokenizer) Scan(c Chunk, fn func(word []byte, hash uint64)) Counts {
	var counts Counts
	off := 1
	if !c.First {
		end, _, complete := t.FindWordEnd(c.Buf, off)
		if !complete {
			return counts
		}
		off = end + 1
	}

	for off < c.Limit {
		start, ok := FindNextWordStart(c.Buf, off, c.Limit)
		if !ok {
			break
		}
		end, hash, complete := t.FindWordEnd(c.Buf, start)
		counts.Total++
		if !complete && !c.Last {
			// Truncated by the block end; only runs longer than the shadow get here.
			counts.Invalid++
			break
		}
		if IsEligible(c.Buf, start, end) {
			fn(c.Buf[start:end], hash)
		} else {
			counts.Invalid++
		}
		off = end + 1
	}
	return counts
}
