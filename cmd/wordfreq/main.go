// Wordfreq counts the words of a text file and writes a ranked report.
//
// Usage:
//
//	wordfreq [flags] <chunk_exp> <file>
//
// chunk_exp is the base-two logarithm of the read block size (20 = 1 MiB).
//
// Flags:
//
//	-workers   Number of tokenizing workers (default: GOMAXPROCS)
//	-report    Report file path (default: report.txt)
//	-mmap      Read the input through a memory map (default: false)
//	-bins      Base-two logarithm of the hash directory size (default: 20)
//	-seed      Seed of the hash substitution table (default: built-in)
//	-pin       Pin each worker to its own CPU (default: true)
//	-progress  Progress sampling interval, 0 disables (default: 2s)
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"time"

	"golang.org/x/sys/unix"

	"github.com/tamirms/wordfreq"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("wordfreq: ")

	workersFlag := flag.Int("workers", 0, "number of tokenizing workers (0 = GOMAXPROCS)")
	reportFlag := flag.String("report", "report.txt", "report file path")
	mmapFlag := flag.Bool("mmap", false, "read the input through a memory map")
	binsFlag := flag.Int("bins", 20, "log2 of the hash directory size")
	seedFlag := flag.Uint64("seed", 0, "hash substitution seed (0 = built-in)")
	pinFlag := flag.Bool("pin", true, "pin each worker to its own CPU")
	progressFlag := flag.Duration("progress", 2*time.Second, "progress sampling interval (0 disables)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <chunk_exp> <file>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(2)
	}
	chunkExp, err := strconv.Atoi(flag.Arg(0))
	if err != nil {
		fatalf("invalid chunk exponent %q: %v", flag.Arg(0), err)
	}
	path := flag.Arg(1)

	report, err := os.Create(*reportFlag)
	if err != nil {
		fatalf("create report: %v", err)
	}
	// Progress lines go to the terminal and to the report.
	out := io.MultiWriter(os.Stdout, report)

	opts := []wordfreq.Option{
		wordfreq.WithChunkExponent(chunkExp),
		wordfreq.WithWorkers(*workersFlag),
		wordfreq.WithMmap(*mmapFlag),
		wordfreq.WithBinsExponent(*binsFlag),
		wordfreq.WithPinning(*pinFlag),
	}
	if *seedFlag != 0 {
		opts = append(opts, wordfreq.WithSeed(*seedFlag))
	}
	if *progressFlag > 0 {
		s := newSampler()
		opts = append(opts, wordfreq.WithProgress(*progressFlag, func(p wordfreq.Progress) {
			s.print(out, p)
		}))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := wordfreq.Count(ctx, path, opts...)
	if err != nil {
		_ = report.Close()
		if errors.Is(err, context.Canceled) {
			fatalf("interrupted")
		}
		fatalf("count %s: %v", path, err)
	}

	fmt.Println()
	if err := wordfreq.WriteSummary(os.Stdout, res); err != nil {
		fatalf("write summary: %v", err)
	}
	fmt.Printf("Depth: avg %.3f, max %d\n", res.AvgProbeDepth(), res.MaxDepth)

	if _, err := fmt.Fprintln(report); err != nil {
		fatalf("write report: %v", err)
	}
	if err := wordfreq.WriteReport(report, res); err != nil {
		fatalf("write report: %v", err)
	}
	if err := report.Close(); err != nil {
		fatalf("close report: %v", err)
	}
}

// sampler turns progress snapshots into rate and utilization lines.
type sampler struct {
	lastBytes uint64
	lastWall  time.Time
	lastCPU   time.Duration
}

func newSampler() *sampler {
	return &sampler{lastWall: time.Now(), lastCPU: cpuTime()}
}

func (s *sampler) print(w io.Writer, p wordfreq.Progress) {
	now := time.Now()
	cpu := cpuTime()
	wall := now.Sub(s.lastWall).Seconds()

	var mbps, util float64
	if wall > 0 {
		mbps = float64(p.BytesRead-s.lastBytes) / wall / 1e6
		util = (cpu - s.lastCPU).Seconds() / wall / float64(runtime.NumCPU()) * 100
	}
	fmt.Fprintf(w, "[%.1f%%] %.2f MB/s, words %.1fM, [CPU %.0f%% RAM %d MB]\n",
		p.Percent(), mbps, float64(p.Words)/1e6, util, maxRSS()/1_000_000)

	s.lastBytes = p.BytesRead
	s.lastWall = now
	s.lastCPU = cpu
}

// cpuTime returns the user plus system CPU time consumed by the process.
func cpuTime() time.Duration {
	var ru unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &ru); err != nil {
		return 0
	}
	return time.Duration(ru.Utime.Nano() + ru.Stime.Nano())
}

// maxRSS returns the peak resident set size in bytes.
func maxRSS() uint64 {
	var ru unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &ru); err != nil {
		return 0
	}
	// On macOS, Maxrss is in bytes. On Linux, it's in kilobytes.
	rss := uint64(ru.Maxrss)
	if runtime.GOOS == "linux" {
		rss *= 1024
	}
	return rss
}

func fatalf(format string, a ...any) {
	log.Printf(format, a...)
	os.Exit(1)
}
