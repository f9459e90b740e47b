package wordfreq

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/fnv"
	"maps"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Named seeds for deterministic reproduction.
const (
	testSeed1 = 0x1234567890ABCDEF
	testSeed2 = 0xFEDCBA9876543210
)

// testAlignment keeps shadows small so tests can use 64-byte blocks.
const testAlignment = 16

func newTestRNG(t testing.TB) *rand.Rand {
	t.Helper()
	h := fnv.New128a()
	h.Write([]byte(t.Name()))
	sum := h.Sum(nil)
	s1 := binary.LittleEndian.Uint64(sum[:8])
	s2 := binary.LittleEndian.Uint64(sum[8:])
	return rand.New(rand.NewPCG(testSeed1^s1, testSeed2^s2))
}

// testOptions returns small-footprint options; extra options are applied last.
func testOptions(extra ...Option) []Option {
	opts := []Option{
		WithAlignment(testAlignment),
		WithChunkExponent(6),
		WithBinsExponent(10),
		WithWorkers(3),
		WithPinning(false),
	}
	return append(opts, extra...)
}

func countString(t *testing.T, text string, opts ...Option) *Result {
	t.Helper()
	res, err := CountReader(context.Background(), strings.NewReader(text), testOptions(opts...)...)
	if err != nil {
		t.Fatalf("CountReader: %v", err)
	}
	return res
}

func writeTempFile(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.txt")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func resultMap(res *Result) map[string]uint64 {
	m := make(map[string]uint64, res.Distinct())
	for w, n := range res.All() {
		m[w] += n
	}
	return m
}

// reference counts text with a direct whole-buffer scan: every maximal
// letter run is a candidate, and the stream is flanked by NUL on both sides.
type reference struct {
	words   map[string]uint64
	total   uint64
	invalid uint64
}

func referenceCount(text []byte) reference {
	isAlpha := func(b byte) bool { return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') }
	isDelim := func(b byte) bool { return strings.IndexByte(" ,\n\r.'\"?-:;*!\t\x00", b) >= 0 }

	padded := make([]byte, 0, len(text)+2)
	padded = append(padded, 0)
	padded = append(padded, text...)
	padded = append(padded, 0)

	ref := reference{words: make(map[string]uint64)}
	for i := 1; i < len(padded)-1; {
		if !isAlpha(padded[i]) {
			i++
			continue
		}
		j := i
		for isAlpha(padded[j]) {
			j++
		}
		ref.total++
		if n := j - i; n >= 3 && n <= 31 && isDelim(padded[i-1]) && isDelim(padded[j]) {
			ref.words[string(bytes.ToLower(padded[i:j]))]++
		} else {
			ref.invalid++
		}
		i = j
	}
	return ref
}

func checkAgainstReference(t *testing.T, res *Result, text []byte) {
	t.Helper()
	want := referenceCount(text)
	if res.TotalWords != want.total || res.InvalidWords != want.invalid {
		t.Fatalf("total/invalid = %d/%d, want %d/%d", res.TotalWords, res.InvalidWords, want.total, want.invalid)
	}
	if got := resultMap(res); !maps.Equal(got, want.words) {
		for w, n := range want.words {
			if got[w] != n {
				t.Errorf("%q: got %d, want %d", w, got[w], n)
			}
		}
		for w, n := range got {
			if _, ok := want.words[w]; !ok {
				t.Errorf("%q: got %d, want absent", w, n)
			}
		}
		t.FailNow()
	}
	if res.Sum() != res.TotalWords-res.InvalidWords {
		t.Fatalf("Sum = %d, want %d", res.Sum(), res.TotalWords-res.InvalidWords)
	}
}

// randomText builds text from mostly short words, some words around the
// eligibility limits, rare runs longer than a block, and a mix of
// delimiters and non-delimiter separators.
func randomText(rng *rand.Rand, size int) []byte {
	const seps = " ,.\n\t-;:!?'\"*\r"
	const junk = "(1_/\x00"
	var buf []byte
	for len(buf) < size {
		var n int
		switch r := rng.IntN(100); {
		case r < 85:
			n = 1 + rng.IntN(10)
		case r < 98:
			n = 28 + rng.IntN(8)
		default:
			n = 60 + rng.IntN(150)
		}
		for range n {
			c := byte('a' + rng.IntN(6)) // small alphabet: plenty of repeats
			if rng.IntN(5) == 0 {
				c -= 'a' - 'A'
			}
			buf = append(buf, c)
		}
		if rng.IntN(20) == 0 {
			buf = append(buf, junk[rng.IntN(len(junk))])
		} else {
			buf = append(buf, seps[rng.IntN(len(seps))])
		}
	}
	return buf[:size]
}
