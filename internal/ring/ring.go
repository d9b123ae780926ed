// Package ring implements a fixed-capacity byte queue safe for exactly one
// producer and one consumer running concurrently. The consumer side exposes a
// zero-copy claim/finish contract so callers can hand a contiguous span to a
// parser without an intermediate copy.
//
// The producer/consumer roles are fixed for the lifetime of a Ring: driving
// both ends from the same context, or either end from two contexts, is not
// supported and needs external locking.
package ring

import (
	"errors"
	"sync/atomic"
)

// Ring is a single-producer single-consumer circular byte buffer. The write
// and read positions are monotonic 64-bit counters; the producer owns w and
// the consumer owns r, so no locking is required beyond that discipline.
//
// Writes are best-effort: when the buffer is full the excess is dropped and
// the accepted count returned. Nothing ever blocks.
type Ring struct {
	w atomic.Uint64 // total bytes ever written
	r atomic.Uint64 // total bytes ever read

	buf      []byte
	capacity uint64
}

// ErrFinishTooLong reports a Finish call larger than the claimable span.
var ErrFinishTooLong = errors.New("ring: finish exceeds buffered length")

// New returns a Ring holding exactly capacity bytes.
func New(capacity int) (*Ring, error) {
	if capacity <= 0 {
		return nil, errors.New("ring: capacity must be positive")
	}
	return &Ring{
		buf:      make([]byte, capacity),
		capacity: uint64(capacity),
	}, nil
}

// Capacity returns the fixed byte capacity.
func (r *Ring) Capacity() int { return int(r.capacity) }

// Len returns the number of bytes currently buffered. Exact when called from
// either the producer or the consumer; a snapshot otherwise.
func (r *Ring) Len() int { return int(r.w.Load() - r.r.Load()) }

// Space returns the number of bytes that can be written without dropping.
func (r *Ring) Space() int { return int(r.capacity) - r.Len() }

// Empty reports whether the ring holds no data.
func (r *Ring) Empty() bool { return r.w.Load() == r.r.Load() }

// Put copies as much of p as fits and returns the accepted count. Bytes
// beyond the free space are dropped; already-buffered data is never
// overwritten. Producer side only.
func (r *Ring) Put(p []byte) int {
	w := r.w.Load()
	free := r.capacity - (w - r.r.Load())
	n := uint64(len(p))
	if n > free {
		n = free
	}
	if n == 0 {
		return 0
	}

	pos := w % r.capacity
	first := r.capacity - pos
	if first >= n {
		copy(r.buf[pos:], p[:n])
	} else {
		copy(r.buf[pos:], p[:first])
		copy(r.buf, p[first:n])
	}

	r.w.Store(w + n)
	return int(n)
}

// Get copies up to len(p) buffered bytes into p and returns the count.
// Consumer side only.
func (r *Ring) Get(p []byte) int {
	rd := r.r.Load()
	avail := r.w.Load() - rd
	n := uint64(len(p))
	if n > avail {
		n = avail
	}
	if n == 0 {
		return 0
	}

	pos := rd % r.capacity
	first := r.capacity - pos
	if first >= n {
		copy(p, r.buf[pos:pos+n])
	} else {
		copy(p, r.buf[pos:])
		copy(p[first:], r.buf[:n-first])
	}

	r.r.Store(rd + n)
	return int(n)
}

// Claim returns the largest contiguous span of buffered bytes, up to max,
// without copying. The span stays valid until the matching Finish call; the
// consumer must call Finish with the number of bytes it actually consumed
// (which may be less than the claimed length). Consumer side only.
func (r *Ring) Claim(max int) []byte {
	rd := r.r.Load()
	avail := r.w.Load() - rd
	if avail == 0 || max <= 0 {
		return nil
	}

	pos := rd % r.capacity
	n := r.capacity - pos // bytes until physical wrap
	if avail < n {
		n = avail
	}
	if uint64(max) < n {
		n = uint64(max)
	}
	return r.buf[pos : pos+n]
}

// Finish releases n bytes previously obtained via Claim.
func (r *Ring) Finish(n int) error {
	rd := r.r.Load()
	if uint64(n) > r.w.Load()-rd {
		return ErrFinishTooLong
	}
	r.r.Store(rd + uint64(n))
	return nil
}
