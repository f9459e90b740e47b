// Package hashtable implements an append-only chained hash table whose
// records live in a single growable byte arena.
//
// Record layout (little-endian, packed):
//
//	offset  size  field
//	0       8     key (64-bit word hash)
//	8       8     next record offset, -1 terminates the chain
//	16      4     occurrence counter
//	20      n     word bytes
//	20+n    1     0x00
//
// Records are never moved or freed. Chains link by arena offset, so every
// offset ever issued remains valid when the arena grows.
package hashtable

import (
	"bytes"
	"encoding/binary"
	"iter"

	streamerrors "github.com/tamirms/wordfreq/errors"
)

const (
	headerSize  = 16
	counterSize = 4

	// GrowIncrement is the fixed amount of arena committed at a time.
	GrowIncrement = 1 << 20

	// MaxBinsExponent bounds the directory at 2^30 bins.
	MaxBinsExponent = 30

	empty int64 = -1

	// emptyLink is empty as stored in a record header.
	emptyLink = ^uint64(0)
)

// Ref addresses the value part of a record. It stays valid for the lifetime
// of the table.
type Ref int

// ValueSize returns the value size of a record holding a word of wordLen
// bytes: counter, word bytes and terminator.
func ValueSize(wordLen int) int {
	return counterSize + wordLen + 1
}

// Table maps 64-bit keys to (counter, word) values.
//
// A Table is not safe for concurrent use.
type Table struct {
	bins   []int64
	mask   uint64
	arena  []byte // len(arena) is the committed capacity
	cursor int
	size   int

	lookups  uint64
	probes   uint64
	maxDepth int
}

// New creates a table with 2^binsExponent bins and one committed arena
// increment.
func New(binsExponent int) (*Table, error) {
	if binsExponent < 1 || binsExponent > MaxBinsExponent {
		return nil, streamerrors.ErrInvalidBins
	}
	n := 1 << binsExponent
	bins := make([]int64, n)
	for i := range bins {
		bins[i] = empty
	}
	return &Table{
		bins:  bins,
		mask:  uint64(n - 1),
		arena: make([]byte, GrowIncrement),
	}, nil
}

// FindOrInsert looks up key and returns its value. When key is absent a new
// record with a valueSize-byte zeroed value is appended and found is false;
// the caller initializes the value through the returned Ref.
//
// Only keys are compared. Two words that hash to the same key share a
// record.
func (t *Table) FindOrInsert(key uint64, valueSize int) (ref Ref, found bool) {
	t.lookups++
	bin := key & t.mask

	head := t.bins[bin]
	if head == empty {
		t.observe(1)
		off := t.appendRecord(key, valueSize)
		t.bins[bin] = int64(off)
		return Ref(off + headerSize), false
	}

	depth := 1
	off := int(head)
	for {
		if t.keyAt(off) == key {
			t.observe(depth)
			return Ref(off + headerSize), true
		}
		next := t.nextAt(off)
		if next == empty {
			break
		}
		off = int(next)
		depth++
	}
	t.observe(depth)

	// Append first: growth may reallocate the arena, and the link is
	// written into the tail record afterwards.
	newOff := t.appendRecord(key, valueSize)
	binary.LittleEndian.PutUint64(t.arena[off+8:], uint64(newOff))
	return Ref(newOff + headerSize), false
}

// Lookup returns the value stored for key without inserting. It does not
// update the diagnostic counters.
func (t *Table) Lookup(key uint64) (Ref, bool) {
	for off := t.bins[key&t.mask]; off != empty; off = t.nextAt(int(off)) {
		if t.keyAt(int(off)) == key {
			return Ref(int(off) + headerSize), true
		}
	}
	return 0, false
}

func (t *Table) observe(depth int) {
	t.probes += uint64(depth)
	if depth > t.maxDepth {
		t.maxDepth = depth
	}
}

// appendRecord writes a fresh record header at the cursor and returns its
// offset.
func (t *Table) appendRecord(key uint64, valueSize int) int {
	need := headerSize + valueSize
	for t.cursor+need > len(t.arena) {
		t.arena = append(t.arena, make([]byte, GrowIncrement)...)
	}
	off := t.cursor
	binary.LittleEndian.PutUint64(t.arena[off:], key)
	binary.LittleEndian.PutUint64(t.arena[off+8:], emptyLink)
	t.cursor += need
	t.size++
	return off
}

func (t *Table) keyAt(off int) uint64 {
	return binary.LittleEndian.Uint64(t.arena[off:])
}

func (t *Table) nextAt(off int) int64 {
	return int64(binary.LittleEndian.Uint64(t.arena[off+8:]))
}

// Count returns the counter stored at ref.
func (t *Table) Count(ref Ref) uint32 {
	return binary.LittleEndian.Uint32(t.arena[ref:])
}

// SetCount overwrites the counter stored at ref.
func (t *Table) SetCount(ref Ref, n uint32) {
	binary.LittleEndian.PutUint32(t.arena[ref:], n)
}

// AddCount adds delta to the counter stored at ref.
func (t *Table) AddCount(ref Ref, delta uint32) {
	t.SetCount(ref, t.Count(ref)+delta)
}

// SetWord stores word and its terminator in the value at ref. The value
// must have been sized with ValueSize(len(word)).
func (t *Table) SetWord(ref Ref, word []byte) {
	start := int(ref) + counterSize
	copy(t.arena[start:], word)
	t.arena[start+len(word)] = 0
}

// Word returns the word stored at ref. The slice aliases the arena and is
// only valid until the next insertion.
func (t *Table) Word(ref Ref) []byte {
	b := t.arena[int(ref)+counterSize:]
	n := bytes.IndexByte(b, 0)
	return b[:n:n]
}

// All yields every record in bin order, then chain order.
func (t *Table) All() iter.Seq2[uint64, Ref] {
	return func(yield func(uint64, Ref) bool) {
		for _, head := range t.bins {
			for off := head; off != empty; off = t.nextAt(int(off)) {
				if !yield(t.keyAt(int(off)), Ref(int(off)+headerSize)) {
					return
				}
			}
		}
	}
}

// MergeInto folds every record of t into dst: counters of keys present in
// both are summed, records missing from dst are copied.
func (t *Table) MergeInto(dst *Table) {
	for key, ref := range t.All() {
		word := t.Word(ref)
		r, found := dst.FindOrInsert(key, ValueSize(len(word)))
		if found {
			dst.AddCount(r, t.Count(ref))
			continue
		}
		dst.SetCount(r, t.Count(ref))
		dst.SetWord(r, word)
	}
}

// Len returns the number of distinct keys.
func (t *Table) Len() int { return t.size }

// Bins returns the directory size.
func (t *Table) Bins() int { return len(t.bins) }

// Lookups returns the number of FindOrInsert calls.
func (t *Table) Lookups() uint64 { return t.lookups }

// Probes returns the total number of chain records visited by lookups.
func (t *Table) Probes() uint64 { return t.probes }

// MaxDepth returns the longest chain walk observed.
func (t *Table) MaxDepth() int { return t.maxDepth }

// ArenaSize returns the number of arena bytes in use.
func (t *Table) ArenaSize() int { return t.cursor }

// ArenaCapacity returns the committed arena size.
func (t *Table) ArenaCapacity() int { return len(t.arena) }
