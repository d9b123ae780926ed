// Package workq runs deferred jobs on one dedicated worker goroutine, in
// submission order, strictly one at a time. It decouples time-critical
// producers (a receive interrupt, an application write) from protocol parsing
// and user-callback dispatch: nothing submitted here ever runs concurrently
// with anything else submitted here.
package workq

import (
	"sync/atomic"
)

// Job states. A job advances idle -> queued -> running -> idle. Submitting a
// job that is queued or running is a no-op merge, never a queued duplicate.
const (
	stateIdle uint32 = iota
	stateQueued
	stateRunning
)

// Job is a deferred unit of work. Create one per producer and reuse it; the
// state machine guarantees at most one outstanding instance.
type Job struct {
	fn    func()
	state atomic.Uint32
}

// NewJob wraps fn as a submittable job.
func NewJob(fn func()) *Job {
	return &Job{fn: fn}
}

// Pending reports whether the job is queued or currently running.
func (j *Job) Pending() bool {
	return j.state.Load() != stateIdle
}

// Queue owns the worker goroutine and the ordered job channel.
type Queue struct {
	jobs   chan *Job
	quit   chan struct{}
	closed atomic.Bool
	done   chan struct{}
}

// New starts a queue whose buffer holds depth jobs. Size depth to the number
// of distinct jobs that can be outstanding at once; because each job enqueues
// at most once, Submit then never blocks.
func New(depth int) *Queue {
	if depth < 1 {
		depth = 1
	}
	q := &Queue{
		// Slack beyond depth covers Flush sentinels.
		jobs: make(chan *Job, depth+8),
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *Queue) run() {
	defer close(q.done)
	for {
		select {
		case <-q.quit:
			return
		case j := <-q.jobs:
			j.state.Store(stateRunning)
			j.fn()
			j.state.Store(stateIdle)
		}
	}
}

// Submit schedules j unless an instance is already queued or running, in
// which case the call merges into the outstanding one. Returns true if the
// job was newly enqueued. Never blocks; safe from any context.
func (q *Queue) Submit(j *Job) bool {
	if q.closed.Load() {
		return false
	}
	if !j.state.CompareAndSwap(stateIdle, stateQueued) {
		return false
	}
	select {
	case q.jobs <- j:
		return true
	default:
		// Queue undersized for the number of distinct jobs; drop back to
		// idle so a later submit can retry.
		j.state.Store(stateIdle)
		return false
	}
}

// Flush blocks until every job submitted before the call has finished. It
// rides a sentinel job through the queue, so it must not be called from the
// worker itself.
func (q *Queue) Flush() {
	if q.closed.Load() {
		return
	}
	ch := make(chan struct{})
	j := NewJob(func() { close(ch) })
	if !q.Submit(j) {
		return
	}
	select {
	case <-ch:
	case <-q.done:
	}
}

// Close stops the worker. Jobs still queued are discarded; Submit becomes a
// no-op. Safe to call more than once.
func (q *Queue) Close() {
	if q.closed.CompareAndSwap(false, true) {
		close(q.quit)
		<-q.done
	}
}
