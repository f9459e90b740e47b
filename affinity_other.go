//go:build !linux

package wordfreq

// pinWorker is a no-op on platforms without sched_setaffinity(2).
func pinWorker(n int) {}
