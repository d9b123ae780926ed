package workq

import (
	"sync"
	"testing"
	"time"
)

func TestJobsRunInSubmissionOrder(t *testing.T) {
	q := New(8)
	defer q.Close()

	var mu sync.Mutex
	var order []int

	jobs := make([]*Job, 5)
	for i := range jobs {
		i := i
		jobs[i] = NewJob(func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		})
	}
	for _, j := range jobs {
		if !q.Submit(j) {
			t.Fatal("submit failed")
		}
	}
	q.Flush()

	mu.Lock()
	defer mu.Unlock()
	if len(order) != len(jobs) {
		t.Fatalf("ran %d jobs, want %d", len(order), len(jobs))
	}
	for i, got := range order {
		if got != i {
			t.Errorf("position %d ran job %d", i, got)
		}
	}
}

func TestSubmitWhilePendingMerges(t *testing.T) {
	q := New(8)
	defer q.Close()

	// Stall the worker so the job stays queued.
	release := make(chan struct{})
	gate := NewJob(func() { <-release })
	q.Submit(gate)

	var mu sync.Mutex
	runs := 0
	j := NewJob(func() {
		mu.Lock()
		runs++
		mu.Unlock()
	})

	if !q.Submit(j) {
		t.Fatal("first submit should enqueue")
	}
	if q.Submit(j) {
		t.Error("second submit should merge, not enqueue")
	}
	if q.Submit(j) {
		t.Error("third submit should merge, not enqueue")
	}
	if !j.Pending() {
		t.Error("job should report pending while queued")
	}

	close(release)
	q.Flush()

	mu.Lock()
	defer mu.Unlock()
	if runs != 1 {
		t.Errorf("job ran %d times, want 1", runs)
	}
}

func TestResubmitAfterRunRunsAgain(t *testing.T) {
	q := New(8)
	defer q.Close()

	var mu sync.Mutex
	runs := 0
	j := NewJob(func() {
		mu.Lock()
		runs++
		mu.Unlock()
	})

	q.Submit(j)
	q.Flush()
	q.Submit(j)
	q.Flush()

	mu.Lock()
	defer mu.Unlock()
	if runs != 2 {
		t.Errorf("job ran %d times, want 2", runs)
	}
}

func TestJobsNeverRunConcurrently(t *testing.T) {
	q := New(8)
	defer q.Close()

	var mu sync.Mutex
	active, maxActive := 0, 0

	mk := func() *Job {
		return NewJob(func() {
			mu.Lock()
			active++
			if active > maxActive {
				maxActive = active
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			active--
			mu.Unlock()
		})
	}
	for i := 0; i < 4; i++ {
		q.Submit(mk())
	}
	q.Flush()

	mu.Lock()
	defer mu.Unlock()
	if maxActive != 1 {
		t.Errorf("observed %d concurrent jobs, want 1", maxActive)
	}
}

func TestSubmitAfterCloseIsNoop(t *testing.T) {
	q := New(2)
	q.Close()

	j := NewJob(func() { t.Error("job ran after close") })
	if q.Submit(j) {
		t.Error("submit after close should report false")
	}
	// Close is idempotent.
	q.Close()
}

func TestFlushOnIdleQueueReturns(t *testing.T) {
	q := New(2)
	defer q.Close()

	done := make(chan struct{})
	go func() {
		q.Flush()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Flush did not return on an idle queue")
	}
}
