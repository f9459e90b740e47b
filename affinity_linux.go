//go:build linux

package wordfreq

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// pinWorker locks the calling goroutine to its OS thread and restricts that
// thread to the n-th CPU the process may run on (wrapping around).
//
// The thread is never unlocked: when the worker goroutine exits the runtime
// terminates the thread instead of handing a pinned thread to other
// goroutines.
// Best-effort: affinity errors are silently ignored.
func pinWorker(n int) {
	runtime.LockOSThread()

	var allowed unix.CPUSet
	if err := unix.SchedGetaffinity(0, &allowed); err != nil {
		return
	}
	count := allowed.Count()
	if count == 0 {
		return
	}
	target := n % count
	for cpu := 0; cpu < len(allowed)*64; cpu++ {
		if !allowed.IsSet(cpu) {
			continue
		}
		if target == 0 {
			var set unix.CPUSet
			set.Set(cpu)
			_ = unix.SchedSetaffinity(0, &set)
			return
		}
		target--
	}
}
