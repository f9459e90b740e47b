// Bench is a benchmarking tool for measuring wordfreq throughput across
// worker counts and read modes, and the rolling word hash against general
// purpose hashes.
//
// Usage:
//
//	go run ./cmd/bench -size 256 -vocab 50000 -workers 1,2,4,8
//
// Flags:
//
//	-size      Synthetic corpus size in MB (default: 256)
//	-vocab     Number of distinct words in the corpus (default: 50,000)
//	-chunk     log2 of the read block size (default: 20)
//	-workers   Comma-separated worker counts to compare (default: 1,2,4,GOMAXPROCS)
//	-mmap      Also measure the memory-mapped read mode (default: true)
//	-input     Count an existing file instead of generating a corpus
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/spaolacci/murmur3"
	"github.com/zeebo/xxh3"

	"github.com/tamirms/wordfreq"
	"github.com/tamirms/wordfreq/internal/tokenize"
)

// getMaxRSS returns the maximum resident set size in bytes.
// Uses getrusage(RUSAGE_SELF) which tracks peak RSS since process start.
func getMaxRSS() uint64 {
	var rusage syscall.Rusage
	if err := syscall.Getrusage(syscall.RUSAGE_SELF, &rusage); err != nil {
		return 0
	}
	// On macOS, MaxRss is in bytes. On Linux, it's in kilobytes.
	maxRSS := uint64(rusage.Maxrss)
	if runtime.GOOS == "linux" {
		maxRSS *= 1024 // Convert KB to bytes on Linux
	}
	return maxRSS
}

func main() {
	sizeFlag := flag.Int("size", 256, "synthetic corpus size in MB")
	vocabFlag := flag.Int("vocab", 50_000, "number of distinct words")
	chunkFlag := flag.Int("chunk", 20, "log2 of the read block size")
	workersFlag := flag.String("workers", "", "comma-separated worker counts (default 1,2,4,GOMAXPROCS)")
	mmapFlag := flag.Bool("mmap", true, "also measure the memory-mapped read mode")
	inputFlag := flag.String("input", "", "count an existing file instead of a synthetic corpus")
	flag.Parse()

	workerCounts, err := parseWorkers(*workersFlag)
	if err != nil {
		fmt.Printf("Invalid -workers: %v\n", err)
		return
	}

	vocab := makeVocabulary(*vocabFlag)
	benchHashes(vocab)

	path := *inputFlag
	if path == "" {
		tmpDir, err := os.MkdirTemp("", "wordfreq-bench-")
		if err != nil {
			fmt.Printf("Failed to create temp dir: %v\n", err)
			return
		}
		defer func() { _ = os.RemoveAll(tmpDir) }()
		path = filepath.Join(tmpDir, "corpus.txt")

		fmt.Println("Generating corpus...")
		if err := writeCorpus(path, vocab, int64(*sizeFlag)<<20); err != nil {
			fmt.Printf("Failed to write corpus: %v\n", err)
			return
		}
	}

	modes := []bool{false}
	if *mmapFlag {
		modes = append(modes, true)
	}

	fmt.Printf("\n")
	fmt.Printf("╔═════════╦═════════╦═══════════╦═══════════╦════════════╦═══════════╗\n")
	fmt.Printf("║ Mode    ║ Workers ║ Time      ║ MB/s      ║ Unique     ║ Avg depth ║\n")
	fmt.Printf("╠═════════╬═════════╬═══════════╬═══════════╬════════════╬═══════════╣\n")
	var checksum uint64
	for _, useMmap := range modes {
		mode := "read"
		if useMmap {
			mode = "mmap"
		}
		for _, w := range workerCounts {
			res, err := wordfreq.Count(context.Background(), path,
				wordfreq.WithChunkExponent(*chunkFlag),
				wordfreq.WithWorkers(w),
				wordfreq.WithMmap(useMmap),
			)
			if err != nil {
				fmt.Printf("Count failed: %v\n", err)
				return
			}
			if checksum != 0 && res.Checksum != checksum {
				fmt.Printf("Checksum mismatch: %x != %x\n", res.Checksum, checksum)
				return
			}
			checksum = res.Checksum
			fmt.Printf("║ %-7s ║ %7d ║ %7.2f s ║ %9.1f ║ %10d ║ %9.3f ║\n",
				mode, w, res.Elapsed.Seconds(), res.Throughput()/1e6, res.Distinct(), res.AvgProbeDepth())
		}
	}
	fmt.Printf("╚═════════╩═════════╩═══════════╩═══════════╩════════════╩═══════════╝\n")
	fmt.Printf("Peak RSS: %.1f MB\n", float64(getMaxRSS())/1_000_000)
}

func parseWorkers(s string) ([]int, error) {
	if s == "" {
		n := runtime.GOMAXPROCS(0)
		counts := []int{1}
		for _, c := range []int{2, 4} {
			if c < n {
				counts = append(counts, c)
			}
		}
		if n > 1 {
			counts = append(counts, n)
		}
		return counts, nil
	}
	var counts []int
	for _, f := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil, err
		}
		if n <= 0 {
			return nil, fmt.Errorf("worker count %d must be positive", n)
		}
		counts = append(counts, n)
	}
	return counts, nil
}

// makeVocabulary returns n random lowercase words of 3 to 12 letters.
func makeVocabulary(n int) [][]byte {
	rng := rand.New(rand.NewPCG(0x1234, 0x5678))
	vocab := make([][]byte, n)
	for i := range vocab {
		w := make([]byte, 3+rng.IntN(10))
		for j := range w {
			w[j] = byte('a' + rng.IntN(26))
		}
		vocab[i] = w
	}
	return vocab
}

// writeCorpus writes roughly size bytes of Zipf-distributed words.
func writeCorpus(path string, vocab [][]byte, size int64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(f, 1<<20)
	rng := rand.New(rand.NewPCG(0x9abc, 0xdef0))
	zipf := rand.NewZipf(rng, 1.1, 1, uint64(len(vocab)-1))
	seps := []byte(" \n,.")
	var written int64
	for written < size {
		w := vocab[zipf.Uint64()]
		_, _ = bw.Write(w)
		_ = bw.WriteByte(seps[rng.IntN(len(seps))])
		written += int64(len(w)) + 1
	}
	if err := bw.Flush(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// benchHashes compares the rolling word hash against general purpose hashes
// on the vocabulary.
func benchHashes(vocab [][]byte) {
	tok := tokenize.New(1)
	const rounds = 50
	hashes := []struct {
		name string
		fn   func([]byte) uint64
	}{
		{"rolling", tok.Hash},
		{"xxhash", xxhash.Sum64},
		{"xxh3", xxh3.Hash},
		{"murmur3", murmur3.Sum64},
	}

	fmt.Println("Hashing vocabulary...")
	for _, h := range hashes {
		var sink uint64
		start := time.Now()
		for range rounds {
			for _, w := range vocab {
				sink ^= h.fn(w)
			}
		}
		elapsed := time.Since(start)
		perWord := float64(elapsed.Nanoseconds()) / float64(rounds*len(vocab))
		fmt.Printf("  %-8s %6.2f ns/word (sink %x)\n", h.name, perWord, sink&0xff)
	}
}
