package muxlink

import (
	"github.com/banshee-data/muxlink/internal/ring"
	"github.com/banshee-data/muxlink/internal/workq"
)

// Registry is the fixed pool of virtual channel slots, established at
// startup in insertion order. Slots are claimed by Allocate and never
// recycled: once in use, a channel stays claimed for the process lifetime.
type Registry struct {
	// Slot claiming goes through the channel's own mutex; the slice itself
	// is immutable after construction.
	slots []*Channel
}

func newRegistry(m *Mux, count, ringSize int) (*Registry, error) {
	r := &Registry{slots: make([]*Channel, count)}
	for i := range r.slots {
		tx, err := ring.New(ringSize)
		if err != nil {
			return nil, err
		}
		rx, err := ring.New(ringSize)
		if err != nil {
			return nil, err
		}
		c := &Channel{mux: m, id: i, tx: tx, rx: rx}
		c.txJob = workq.NewJob(c.txDrain)
		c.cbJob = workq.NewJob(c.dispatchCallback)
		r.slots[i] = c
	}
	return r, nil
}

// Allocate claims the first unclaimed slot. Fails with ErrNoFreeChannel
// once the pool is exhausted. Linear scan; channel counts are small and
// fixed.
func (r *Registry) Allocate() (*Channel, error) {
	for _, c := range r.slots {
		c.mu.Lock()
		if !c.inUse {
			c.inUse = true
			c.mu.Unlock()
			return c, nil
		}
		c.mu.Unlock()
	}
	return nil, ErrNoFreeChannel
}

// FindByAddress returns the attached, in-use channel whose protocol address
// matches addr, or nil if there is none.
func (r *Registry) FindByAddress(addr int) *Channel {
	for _, c := range r.slots {
		c.mu.Lock()
		match := c.inUse && c.ach != nil && c.ach.Address() == addr
		c.mu.Unlock()
		if match {
			return c
		}
	}
	return nil
}

// Channels returns the slots in registry order, for inspection.
func (r *Registry) Channels() []*Channel {
	out := make([]*Channel, len(r.slots))
	copy(out, r.slots)
	return out
}
