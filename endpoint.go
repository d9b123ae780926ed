package muxlink

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/banshee-data/muxlink/internal/monitoring"
	"github.com/banshee-data/muxlink/internal/ring"
	"github.com/banshee-data/muxlink/internal/workq"
)

// Endpoint owns one physical serial line shared by every channel muxed over
// it: the protocol adapter instance, the RX ring filled from interrupt
// context and drained on the worker, and the transmit mutex serializing
// wire writes. Usually there is only one of these in a process.
type Endpoint struct {
	mux   *Mux
	index int

	// initMu serializes one-time initialization; initDone flips exactly once
	// on success. The hw binding itself is guarded by the pool mutex.
	initMu   sync.Mutex
	initDone atomic.Bool

	hw      HardwarePort
	adapter Adapter

	rx      *ring.Ring
	rxJob   *workq.Job
	scratch []byte

	txMu sync.Mutex

	rxDropped atomic.Uint64
}

// endpointPool is the fixed set of Endpoint slots. A slot binds to a
// HardwarePort on the first attach referencing it and keeps the binding for
// the process lifetime (unless initialization fails and rolls back).
type endpointPool struct {
	mu    sync.Mutex
	slots []*Endpoint
}

func newEndpointPool(m *Mux, count, ringSize, scratchSize int) (*endpointPool, error) {
	p := &endpointPool{slots: make([]*Endpoint, count)}
	for i := range p.slots {
		rx, err := ring.New(ringSize)
		if err != nil {
			return nil, err
		}
		e := &Endpoint{
			mux:     m,
			index:   i,
			rx:      rx,
			scratch: make([]byte, scratchSize),
		}
		e.rxJob = workq.NewJob(e.rxDrain)
		p.slots[i] = e
	}
	return p, nil
}

// attachOrCreate resolves the endpoint already bound to hw, or claims the
// first unbound slot for it. Fails with ErrNoFreeEndpoint when the pool is
// exhausted.
func (p *endpointPool) attachOrCreate(hw HardwarePort) (*Endpoint, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, e := range p.slots {
		if e.hw == hw {
			return e, nil
		}
	}
	for _, e := range p.slots {
		if e.hw == nil {
			e.hw = hw
			return e, nil
		}
	}
	return nil, ErrNoFreeEndpoint
}

// unbind rolls a slot back to unclaimed after a failed init.
func (p *endpointPool) unbind(e *Endpoint) {
	p.mu.Lock()
	e.hw = nil
	e.adapter = nil
	p.mu.Unlock()
}

func (p *endpointPool) snapshot() []*Endpoint {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*Endpoint, len(p.slots))
	copy(out, p.slots)
	return out
}

// ensureInit performs the one-time line initialization. Concurrent callers
// race safely: exactly one creates the adapter and programs the hardware,
// the rest observe initDone and return the same endpoint state. On adapter
// creation failure the slot is unbound again so a later attach can retry.
func (e *Endpoint) ensureInit() error {
	e.initMu.Lock()
	defer e.initMu.Unlock()

	if e.initDone.Load() {
		return nil
	}

	adapter, err := e.mux.factory.Create(e)
	if err != nil {
		e.mux.endpoints.unbind(e)
		return fmt.Errorf("muxlink: adapter create: %w", err)
	}
	e.adapter = adapter

	hw := e.hw
	hw.DisableRxIRQ()
	hw.DisableTxIRQ()
	flushFIFO(hw)
	hw.SetISR(e.isrOnReceive)
	hw.EnableRxIRQ()

	e.initDone.Store(true)
	return nil
}

// flushFIFO discards stale receive data left in the hardware from before the
// mux owned the line.
func flushFIFO(hw HardwarePort) {
	var b [1]byte
	for {
		n, _ := hw.FifoRead(b[:])
		if n <= 0 {
			return
		}
	}
}

// isrOnReceive is the interrupt entry point shared by every channel muxed
// over this line. It moves bytes from the hardware FIFO into the RX ring and
// hands off to the worker; on ring overflow the excess is dropped so the
// interrupt never blocks. No allocation, no locks, no protocol logic here.
func (e *Endpoint) isrOnReceive() {
	for e.hw.IRQUpdate() && e.hw.RxReady() {
		n, err := e.hw.FifoRead(e.scratch)
		if n <= 0 {
			if err != nil {
				return
			}
			continue
		}

		wrote := e.rx.Put(e.scratch[:n])
		if wrote < n {
			e.rxDropped.Add(uint64(n - wrote))
			monitoring.Logf("muxlink: endpoint %d rx ring full, drop %d bytes", e.index, n-wrote)
		}

		e.mux.wq.Submit(e.rxJob)
	}
}

// rxDrain runs on the worker. It claims the largest contiguous span of raw
// muxed bytes without copying, pushes it through the adapter (which parses
// frames and delivers payloads to the right channels), then commits exactly
// the consumed length.
func (e *Endpoint) rxDrain() {
	data := e.rx.Claim(e.rx.Capacity())
	if len(data) == 0 {
		return
	}

	if e.mux.verbose {
		monitoring.Hexdump(fmt.Sprintf("RECV muxed endpoint %d", e.index), data)
	}

	e.adapter.ReceiveRaw(data)

	if err := e.rx.Finish(len(data)); err != nil {
		monitoring.Logf("muxlink: endpoint %d cannot release rx span: %v", e.index, err)
	}
}

// Send puts already-encoded frame bytes on the wire. It is the Wire half of
// the adapter contract, reachable from both worker context (TX drains) and
// application context (direct writes), so the transmit mutex serializes the
// two. Each byte goes through the blocking PollWrite with no timeout; the
// call does not return until the hardware has accepted everything.
func (e *Endpoint) Send(p []byte) error {
	if len(p) == 0 {
		return nil
	}
	if !e.initDone.Load() {
		return ErrNotAttached
	}

	if e.mux.verbose {
		monitoring.Hexdump(fmt.Sprintf("SEND muxed endpoint %d", e.index), p)
	}

	e.txMu.Lock()
	defer e.txMu.Unlock()
	for _, b := range p {
		if err := e.hw.PollWrite(b); err != nil {
			return err
		}
	}
	return nil
}

// RxDropped returns the total bytes dropped on RX ring overflow.
func (e *Endpoint) RxDropped() uint64 { return e.rxDropped.Load() }
