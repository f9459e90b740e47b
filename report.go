package wordfreq

import (
	"bufio"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
)

// WriteSummary writes the timing and total lines of a report.
func WriteSummary(w io.Writer, res *Result) error {
	secs := res.Elapsed.Seconds()
	var mbps, mwps float64
	if secs > 0 {
		mbps = float64(res.BytesRead) / secs / 1e6
		mwps = float64(res.TotalWords) / secs / 1e6
	}
	_, err := fmt.Fprintf(w,
		"Merge delay: %d ms\n"+
			"Execution time: %.2f sec, %.1f MB/s, %.1fM wps\n"+
			"\n"+
			"Unique: %s\n"+
			"Invalid: %s\n"+
			"Total: %s\n",
		res.MergeDelay.Milliseconds(),
		secs, mbps, mwps,
		humanize.Comma(int64(res.Distinct())),
		humanize.Comma(int64(res.InvalidWords)),
		humanize.Comma(int64(res.TotalWords)),
	)
	return err
}

// WriteReport writes the summary followed by one "[rank] word = count" line
// per distinct word, most frequent first.
func WriteReport(w io.Writer, res *Result) error {
	bw := bufio.NewWriter(w)
	if err := WriteSummary(bw, res); err != nil {
		return err
	}
	if _, err := bw.WriteString("\n"); err != nil {
		return err
	}
	for i, wc := range res.Sorted() {
		if _, err := fmt.Fprintf(bw, "[%s] %s = %s\n",
			humanize.Comma(int64(i+1)), wc.Word, humanize.Comma(int64(wc.Count))); err != nil {
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush report: %w", err)
	}
	return nil
}
