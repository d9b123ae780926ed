package muxlink

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/banshee-data/muxlink/internal/monitoring"
	"github.com/banshee-data/muxlink/internal/ring"
	"github.com/banshee-data/muxlink/internal/workq"
)

// Channel is one logical serial line multiplexed over a physical endpoint.
// Application writes land in the TX ring and drain to the adapter on the
// worker; adapter deliveries land in the RX ring for the application to
// read. The readiness flags and callback emulate an interrupt-driven UART
// so existing interrupt-style consumers can run unchanged on a muxed line.
type Channel struct {
	mux *Mux
	id  int

	// mu guards status, flags, callbacks and the endpoint/adapter bindings.
	// The rings stay lock-free under the one-producer/one-consumer rule.
	mu        sync.Mutex
	ep        *Endpoint
	ach       AdapterChannel
	status    Status
	cb        func()
	attachCB  AttachCallback
	rxEnabled bool
	txEnabled bool
	rxReady   bool
	txReady   bool
	inUse     bool

	tx *ring.Ring
	rx *ring.Ring

	txJob *workq.Job
	cbJob *workq.Job

	rxDropped atomic.Uint64
	txDropped atomic.Uint64
}

// ID returns the channel's slot index within the registry.
func (c *Channel) ID() int { return c.id }

// Attach binds the channel to a physical line and a protocol address. The
// owning endpoint is resolved or created, initialized exactly once, and the
// adapter is asked to open the sub-channel with a connect/disconnect
// notifier bound to this channel. cb, if non-nil, fires on every
// notification. On success the channel is Configured with both directions
// enabled; the adapter flips it to Connected when the handshake completes.
func (c *Channel) Attach(hw HardwarePort, addr int, cb AttachCallback) error {
	if hw == nil {
		return ErrInvalidArgument
	}

	c.mu.Lock()
	if !c.inUse {
		c.mu.Unlock()
		return fmt.Errorf("muxlink: channel %d not allocated: %w", c.id, ErrNotFound)
	}
	c.mu.Unlock()

	ep, err := c.mux.endpoints.attachOrCreate(hw)
	if err != nil {
		return err
	}
	if err := ep.ensureInit(); err != nil {
		return err
	}

	c.mu.Lock()
	c.ep = ep
	c.txReady = true
	c.txEnabled = true
	c.rxEnabled = true
	c.attachCB = cb
	c.status = StatusConfigured
	c.mu.Unlock()

	ach, err := ep.adapter.ChannelCreate(c, addr, c.connNotify)
	if err != nil {
		return fmt.Errorf("muxlink: create protocol channel %d: %w", addr, err)
	}

	c.mu.Lock()
	c.ach = ach
	c.mu.Unlock()
	return nil
}

// connNotify is the adapter's link-state notifier for this channel.
func (c *Channel) connNotify(connected bool) {
	c.mu.Lock()
	if connected {
		c.status = StatusConnected
	} else {
		c.status = StatusDisconnected
	}
	st := c.status
	cb := c.attachCB
	addr := -1
	if c.ach != nil {
		addr = c.ach.Address()
	}
	c.mu.Unlock()

	monitoring.Logf("muxlink: channel %d %s", c.id, st)

	if cb != nil {
		cb(c, addr, connected)
	}
}

// WriteByte sends one byte on the unbuffered path, straight to the adapter's
// per-channel send, bypassing the TX ring.
func (c *Channel) WriteByte(b byte) error {
	c.mu.Lock()
	ach := c.ach
	c.mu.Unlock()
	if ach == nil {
		return ErrNotAttached
	}
	_, err := ach.Send([]byte{b})
	return err
}

// Fill queues payload bytes for transmission and returns the count accepted.
// While the channel is not Connected it accepts nothing and returns 0, which
// is not an error. Bytes beyond the TX ring's free space are dropped; check
// the returned count. At most one TX drain is outstanding at a time; a Fill
// while one is pending merges into it.
func (c *Channel) Fill(p []byte) int {
	c.mu.Lock()
	if c.status != StatusConnected {
		c.mu.Unlock()
		monitoring.Logf("muxlink: channel %d not connected, drop %d bytes", c.id, len(p))
		return 0
	}
	c.txReady = false
	c.mu.Unlock()

	wrote := c.tx.Put(p)
	if wrote < len(p) {
		c.txDropped.Add(uint64(len(p) - wrote))
		monitoring.Logf("muxlink: channel %d tx ring full, drop %d bytes", c.id, len(p)-wrote)
	}

	c.mux.wq.Submit(c.txJob)
	return wrote
}

// txDrain runs on the worker: claim a contiguous span from the TX ring, hand
// it to the adapter, commit the consumed length.
func (c *Channel) txDrain() {
	data := c.tx.Claim(c.tx.Capacity())
	if len(data) == 0 {
		return
	}

	c.mu.Lock()
	ach := c.ach
	c.mu.Unlock()
	if ach == nil {
		return
	}

	if _, err := ach.Send(data); err != nil {
		monitoring.Logf("muxlink: channel %d send failed: %v", c.id, err)
	}

	if err := c.tx.Finish(len(data)); err != nil {
		monitoring.Logf("muxlink: channel %d cannot release tx span: %v", c.id, err)
	}
}

// Read copies up to len(p) buffered bytes into p and returns the count,
// which may be 0. rxReady clears once the ring drains empty.
func (c *Channel) Read(p []byte) int {
	n := c.rx.Get(p)
	if c.rx.Empty() {
		c.mu.Lock()
		c.rxReady = false
		c.mu.Unlock()
	}
	return n
}

// Deliver is invoked by the protocol adapter (on the worker) when a frame
// addressed to this channel has been reassembled. Bytes beyond the RX ring's
// free space are dropped; the accepted count is returned. If a readiness
// callback is registered and RX is enabled, a dispatch is scheduled, merged
// with any already-pending one.
func (c *Channel) Deliver(p []byte) int {
	wrote := c.rx.Put(p)
	if wrote < len(p) {
		c.rxDropped.Add(uint64(len(p) - wrote))
		monitoring.Logf("muxlink: channel %d rx ring full, drop %d bytes", c.id, len(p)-wrote)
	}

	c.mu.Lock()
	c.rxReady = true
	submit := c.cb != nil && c.rxEnabled
	c.mu.Unlock()

	if submit {
		c.mux.wq.Submit(c.cbJob)
	}
	return wrote
}

// dispatchCallback runs the registered readiness callback on the worker.
func (c *Channel) dispatchCallback() {
	c.mu.Lock()
	cb := c.cb
	c.mu.Unlock()
	if cb != nil {
		cb()
	}
}

// SetCallback registers the readiness callback, replacing any previous
// registration. The callback runs on the worker, one dispatch at a time.
func (c *Channel) SetCallback(fn func()) {
	c.mu.Lock()
	c.cb = fn
	c.mu.Unlock()
}

// EnableRx enables RX readiness. If data is already pending the dispatch is
// (re)scheduled immediately, so a consumer that enables late does not miss
// bytes that arrived while it was disabled.
func (c *Channel) EnableRx() {
	c.mu.Lock()
	c.rxEnabled = true
	fire := c.cb != nil && c.rxReady
	c.mu.Unlock()
	if fire {
		c.mux.wq.Submit(c.cbJob)
	}
}

// DisableRx stops callback dispatch for RX readiness.
func (c *Channel) DisableRx() {
	c.mu.Lock()
	c.rxEnabled = false
	c.mu.Unlock()
}

// EnableTx enables TX readiness, with the same catch-up rule as EnableRx.
func (c *Channel) EnableTx() {
	c.mu.Lock()
	c.txEnabled = true
	fire := c.cb != nil && c.txReady
	c.mu.Unlock()
	if fire {
		c.mux.wq.Submit(c.cbJob)
	}
}

// DisableTx stops callback dispatch for TX readiness.
func (c *Channel) DisableTx() {
	c.mu.Lock()
	c.txEnabled = false
	c.mu.Unlock()
}

// RxReady reports whether received data is waiting to be read.
func (c *Channel) RxReady() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rxReady
}

// TxReady reports whether the channel can accept more transmit data.
func (c *Channel) TxReady() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.txReady
}

// IsPending reports whether an enabled direction has work ready, mirroring a
// UART's irq-pending query.
func (c *Channel) IsPending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return (c.txReady && c.txEnabled) || (c.rxReady && c.rxEnabled)
}

// Status returns the current connection status.
func (c *Channel) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Address returns the protocol channel address, or -1 before attach.
func (c *Channel) Address() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ach == nil {
		return -1
	}
	return c.ach.Address()
}

// PollIn would read one byte synchronously; a muxed channel only supports
// the buffered path.
func (c *Channel) PollIn() (byte, error) { return 0, ErrNotSupported }

// ErrCheck has no meaning on a virtual line.
func (c *Channel) ErrCheck() error { return ErrNotSupported }

// Configure cannot change line parameters through a muxed channel; the
// physical line is configured once, when it is opened.
func (c *Channel) Configure(PortOptions) error { return ErrNotSupported }

// Config cannot report line parameters for a virtual line.
func (c *Channel) Config() (PortOptions, error) { return PortOptions{}, ErrNotSupported }

// TxComplete is not tracked on a muxed channel.
func (c *Channel) TxComplete() (bool, error) { return false, ErrNotSupported }

// Dropped returns the total bytes dropped on RX and TX ring overflow.
func (c *Channel) Dropped() (rx, tx uint64) {
	return c.rxDropped.Load(), c.txDropped.Load()
}
