package queue

import (
	"errors"
	"sync"
	"testing"
	"time"

	streamerrors "github.com/tamirms/wordfreq/errors"
)

func TestNewRejectsNonPositiveCapacity(t *testing.T) {
	for _, c := range []int{0, -1} {
		if _, err := New[int](c, nil); !errors.Is(err, streamerrors.ErrInvalidCapacity) {
			t.Fatalf("New(%d): got %v, want ErrInvalidCapacity", c, err)
		}
	}
}

func TestFIFOOrder(t *testing.T) {
	q, err := New[int](4, nil)
	if err != nil {
		t.Fatal(err)
	}
	// Several wraps around the circular buffer.
	next := 0
	for round := 0; round < 10; round++ {
		for i := 0; i < 3; i++ {
			if st := q.Enqueue(round*3 + i); st != OK {
				t.Fatalf("Enqueue: status %v", st)
			}
		}
		for i := 0; i < 3; i++ {
			v, st := q.Dequeue()
			if st != OK {
				t.Fatalf("Dequeue: status %v", st)
			}
			if v != next {
				t.Fatalf("Dequeue = %d, want %d", v, next)
			}
			next++
		}
	}
	if q.Len() != 0 {
		t.Fatalf("Len = %d after draining", q.Len())
	}
}

// TestEnqueueBlocksWhenFull verifies occupancy never exceeds capacity: the
// (N+1)th Enqueue only completes after a Dequeue frees a slot.
func TestEnqueueBlocksWhenFull(t *testing.T) {
	const n = 3
	q, err := New[int](n, nil)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < n; i++ {
		q.Enqueue(i)
	}
	if q.Len() != n || q.Cap() != n {
		t.Fatalf("Len/Cap = %d/%d, want %d/%d", q.Len(), q.Cap(), n, n)
	}

	done := make(chan struct{})
	go func() {
		q.Enqueue(n)
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Enqueue on a full queue did not block")
	case <-time.After(20 * time.Millisecond):
	}

	if v, _ := q.Dequeue(); v != 0 {
		t.Fatalf("Dequeue = %d, want 0", v)
	}
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Enqueue did not complete after a slot was freed")
	}
	if q.Len() > n {
		t.Fatalf("Len = %d exceeds capacity %d", q.Len(), n)
	}
}

// TestConcurrentConservation checks that every dequeued item was enqueued
// exactly once with several producers and consumers racing.
func TestConcurrentConservation(t *testing.T) {
	const (
		producers = 4
		consumers = 4
		perProd   = 2000
	)
	stop := make(chan struct{})
	q, err := New[int](8, stop)
	if err != nil {
		t.Fatal(err)
	}

	seen := make([]int, producers*perProd)
	var mu sync.Mutex
	var cwg sync.WaitGroup
	for range consumers {
		cwg.Add(1)
		go func() {
			defer cwg.Done()
			for {
				v, st := q.Dequeue()
				if st == Cancelled {
					return
				}
				if q.Len() > q.Cap() {
					t.Errorf("Len %d > Cap %d", q.Len(), q.Cap())
				}
				mu.Lock()
				seen[v]++
				mu.Unlock()
			}
		}()
	}

	var pwg sync.WaitGroup
	for p := range producers {
		pwg.Add(1)
		go func() {
			defer pwg.Done()
			for i := 0; i < perProd; i++ {
				q.Enqueue(p*perProd + i)
			}
		}()
	}
	pwg.Wait()
	for q.Len() > 0 {
		time.Sleep(time.Millisecond)
	}
	// A consumer holding an item records it before its next Dequeue
	// observes the signal.
	close(stop)
	cwg.Wait()

	for v, n := range seen {
		if n != 1 {
			t.Fatalf("item %d delivered %d times", v, n)
		}
	}
}

func TestCancellationUnblocksAllWaiters(t *testing.T) {
	stop := make(chan struct{})
	q, err := New[int](2, stop)
	if err != nil {
		t.Fatal(err)
	}

	const waiters = 8
	results := make(chan Status, waiters)
	for range waiters {
		go func() {
			_, st := q.Dequeue()
			results <- st
		}()
	}

	time.Sleep(10 * time.Millisecond)
	close(stop)

	for i := 0; i < waiters; i++ {
		select {
		case st := <-results:
			if st != Cancelled {
				t.Fatalf("waiter %d: status %v, want Cancelled", i, st)
			}
		case <-time.After(time.Second):
			t.Fatalf("waiter %d still blocked after cancellation", i)
		}
	}
}

func TestCancellationTakesPrecedence(t *testing.T) {
	stop := make(chan struct{})
	q, err := New[int](2, stop)
	if err != nil {
		t.Fatal(err)
	}
	q.Enqueue(1)
	close(stop)

	for i := 0; i < 100; i++ {
		if _, st := q.Dequeue(); st != Cancelled {
			t.Fatalf("iter %d: status %v with item pending and signal raised, want Cancelled", i, st)
		}
	}
	if st := q.Enqueue(2); st != Cancelled {
		t.Fatalf("Enqueue after cancellation: status %v", st)
	}
	if q.Len() != 1 {
		t.Fatalf("Len = %d, want the pending item untouched", q.Len())
	}
}

func TestStatusString(t *testing.T) {
	if OK.String() != "ok" || Cancelled.String() != "cancelled" || Status(9).String() != "unknown" {
		t.Fatal("unexpected Status strings")
	}
}
