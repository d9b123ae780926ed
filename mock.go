package muxlink

import (
	"bytes"
	"sync"
)

// FakeHardwarePort implements HardwarePort with configurable behaviour for
// testing. InjectRx simulates a receive interrupt: it stages bytes in the
// fake FIFO and invokes the registered ISR in the caller's goroutine, which
// therefore plays the part of interrupt context.
type FakeHardwarePort struct {
	mu sync.Mutex

	fifo    bytes.Buffer
	written bytes.Buffer

	isr       func()
	rxEnabled bool

	// WriteErr is returned by the next PollWrite call if set.
	WriteErr error

	// Call counters for asserting on hardware programming sequences.
	EnableRxCalls  int
	DisableRxCalls int
	DisableTxCalls int
	SetISRCalls    int
	FifoReadCalls  int
}

// NewFakeHardwarePort creates an idle fake port.
func NewFakeHardwarePort() *FakeHardwarePort {
	return &FakeHardwarePort{}
}

// InjectRx stages data and fires the ISR if receive interrupts are enabled.
func (p *FakeHardwarePort) InjectRx(data []byte) {
	p.mu.Lock()
	p.fifo.Write(data)
	var isr func()
	if p.rxEnabled {
		isr = p.isr
	}
	p.mu.Unlock()

	if isr != nil {
		isr()
	}
}

// StageRx stages data without firing the ISR, for exercising the stale-FIFO
// flush and late-enable paths.
func (p *FakeHardwarePort) StageRx(data []byte) {
	p.mu.Lock()
	p.fifo.Write(data)
	p.mu.Unlock()
}

// FifoRead drains up to len(b) staged bytes.
func (p *FakeHardwarePort) FifoRead(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.FifoReadCalls++
	return p.fifo.Read(b[:min(len(b), p.fifo.Len())])
}

// PollWrite records the transmitted byte.
func (p *FakeHardwarePort) PollWrite(b byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.WriteErr != nil {
		err := p.WriteErr
		p.WriteErr = nil
		return err
	}
	p.written.WriteByte(b)
	return nil
}

// EnableRxIRQ enables ISR delivery for future InjectRx calls.
func (p *FakeHardwarePort) EnableRxIRQ() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rxEnabled = true
	p.EnableRxCalls++
}

// DisableRxIRQ disables ISR delivery.
func (p *FakeHardwarePort) DisableRxIRQ() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rxEnabled = false
	p.DisableRxCalls++
}

// DisableTxIRQ records the call.
func (p *FakeHardwarePort) DisableTxIRQ() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.DisableTxCalls++
}

// SetISR registers the interrupt entry point.
func (p *FakeHardwarePort) SetISR(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.isr = fn
	p.SetISRCalls++
}

// IRQUpdate always reports true.
func (p *FakeHardwarePort) IRQUpdate() bool { return true }

// RxReady reports whether staged bytes remain.
func (p *FakeHardwarePort) RxReady() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fifo.Len() > 0
}

// WrittenBytes returns everything transmitted through PollWrite.
func (p *FakeHardwarePort) WrittenBytes() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]byte(nil), p.written.Bytes()...)
}

// CountingAdapterFactory implements AdapterFactory for testing, recording
// every call so tests can assert the exactly-once initialization guarantees.
type CountingAdapterFactory struct {
	mu sync.Mutex

	// CreateErr is returned by Create if set.
	CreateErr error

	// ChannelCreateErr is returned by ChannelCreate on every adapter
	// produced by this factory, if set.
	ChannelCreateErr error

	// AutoConnect makes ChannelCreate report Connected synchronously,
	// standing in for a protocol whose open handshake completes inline.
	AutoConnect bool

	GlobalInitCalls int
	CreateCalls     int
	Adapters        []*CountingAdapter
}

// GlobalInit records the call.
func (f *CountingAdapterFactory) GlobalInit() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.GlobalInitCalls++
}

// Create records the call and returns a fresh CountingAdapter.
func (f *CountingAdapterFactory) Create(wire Wire) (Adapter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CreateCalls++
	if f.CreateErr != nil {
		return nil, f.CreateErr
	}
	a := &CountingAdapter{factory: f, wire: wire}
	f.Adapters = append(f.Adapters, a)
	return a, nil
}

// LastAdapter returns the most recently created adapter, or nil.
func (f *CountingAdapterFactory) LastAdapter() *CountingAdapter {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Adapters) == 0 {
		return nil
	}
	return f.Adapters[len(f.Adapters)-1]
}

// CountingAdapter records raw receive spans and the channels opened on it.
type CountingAdapter struct {
	mu      sync.Mutex
	factory *CountingAdapterFactory
	wire    Wire

	Received [][]byte
	Channels []*StubAdapterChannel
}

// Wire returns the transmit side the adapter was created with.
func (a *CountingAdapter) Wire() Wire { return a.wire }

// ReceiveRaw copies and records the span; claim spans are only valid for
// the duration of the call.
func (a *CountingAdapter) ReceiveRaw(p []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Received = append(a.Received, append([]byte(nil), p...))
}

// ReceivedBytes returns all raw bytes fed to the adapter, concatenated.
func (a *CountingAdapter) ReceivedBytes() []byte {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []byte
	for _, p := range a.Received {
		out = append(out, p...)
	}
	return out
}

// ChannelCreate records the call and returns a stub channel handle.
func (a *CountingAdapter) ChannelCreate(owner *Channel, addr int, notify ConnNotify) (AdapterChannel, error) {
	a.mu.Lock()
	if a.factory.ChannelCreateErr != nil {
		err := a.factory.ChannelCreateErr
		a.mu.Unlock()
		return nil, err
	}
	ch := &StubAdapterChannel{owner: owner, addr: addr, notify: notify}
	a.Channels = append(a.Channels, ch)
	auto := a.factory.AutoConnect
	a.mu.Unlock()

	if auto {
		notify(true)
	}
	return ch, nil
}

// StubAdapterChannel records per-channel sends and lets tests drive link
// state and inbound delivery.
type StubAdapterChannel struct {
	mu     sync.Mutex
	owner  *Channel
	addr   int
	notify ConnNotify

	// SendErr is returned by the next Send call if set.
	SendErr error

	Sent      [][]byte
	SendCalls int
}

// Send records the payload and reports full acceptance.
func (s *StubAdapterChannel) Send(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SendCalls++
	if s.SendErr != nil {
		err := s.SendErr
		s.SendErr = nil
		return 0, err
	}
	s.Sent = append(s.Sent, append([]byte(nil), p...))
	return len(p), nil
}

// Address returns the protocol address the channel was created with.
func (s *StubAdapterChannel) Address() int { return s.addr }

// Owner returns the virtual channel this handle was created for.
func (s *StubAdapterChannel) Owner() *Channel { return s.owner }

// Connect reports the link as up.
func (s *StubAdapterChannel) Connect() { s.notify(true) }

// Disconnect reports the link as down.
func (s *StubAdapterChannel) Disconnect() { s.notify(false) }

// SentBytes returns all payload bytes sent on this channel, concatenated.
func (s *StubAdapterChannel) SentBytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []byte
	for _, p := range s.Sent {
		out = append(out, p...)
	}
	return out
}
