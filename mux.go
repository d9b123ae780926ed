// Package muxlink multiplexes several independent logical serial channels
// over one physical serial line. A framing protocol adapter (external to
// this package, see Adapter) encodes and decodes the actual wire format;
// muxlink owns everything around it: interrupt-safe capture of raw bytes,
// deferred protocol processing on a single worker, per-channel buffered
// I/O, device lifecycle, and an interrupt-style readiness API per logical
// channel. The classic use is running a modem control channel and data
// channels concurrently over a single UART.
//
// Three execution contexts touch the driver: the hardware interrupt (only
// Endpoint.isrOnReceive, which never blocks or allocates), the single
// worker (all protocol parsing and callback dispatch, one job at a time),
// and application calls. Rings carry data between contexts without locks;
// the one shared blocking path, wire transmit, is mutex-guarded.
package muxlink

import (
	"github.com/google/uuid"

	"github.com/banshee-data/muxlink/internal/workq"
)

// Options sizes the driver pools. The zero value of any field selects its
// default.
type Options struct {
	// RingSize is the byte capacity of each RX and TX ring (default 256).
	RingSize int

	// ScratchSize is the ISR temporary buffer size in bytes (default 32).
	ScratchSize int

	// Channels is the virtual channel pool size (default 4).
	Channels int

	// Endpoints is the physical line pool size (default 1).
	Endpoints int

	// Verbose enables hex dumps of raw muxed RX/TX traffic.
	Verbose bool
}

func (o Options) withDefaults() Options {
	if o.RingSize <= 0 {
		o.RingSize = 256
	}
	if o.ScratchSize <= 0 {
		o.ScratchSize = 32
	}
	if o.Channels <= 0 {
		o.Channels = 4
	}
	if o.Endpoints <= 0 {
		o.Endpoints = 1
	}
	return o
}

// Mux owns the endpoint pool, the channel registry and the worker. One Mux
// per process is the normal arrangement.
type Mux struct {
	// ID identifies this mux instance in logs and on the debug pages.
	ID uuid.UUID

	verbose   bool
	factory   AdapterFactory
	wq        *workq.Queue
	endpoints *endpointPool
	registry  *Registry
}

// New builds the pools, starts the worker, and runs the adapter factory's
// one-time global initialization.
func New(opts Options, factory AdapterFactory) (*Mux, error) {
	if factory == nil {
		return nil, ErrInvalidArgument
	}
	o := opts.withDefaults()

	m := &Mux{
		ID:      uuid.New(),
		verbose: o.Verbose,
		factory: factory,
	}

	// Every distinct job (one RX drain per endpoint, one TX drain and one
	// callback dispatch per channel) enqueues at most once, so this depth
	// means submission never blocks.
	m.wq = workq.New(o.Endpoints + 2*o.Channels)

	endpoints, err := newEndpointPool(m, o.Endpoints, o.RingSize, o.ScratchSize)
	if err != nil {
		m.wq.Close()
		return nil, err
	}
	m.endpoints = endpoints

	registry, err := newRegistry(m, o.Channels, o.RingSize)
	if err != nil {
		m.wq.Close()
		return nil, err
	}
	m.registry = registry

	factory.GlobalInit()
	return m, nil
}

// Allocate claims the first free virtual channel slot.
func (m *Mux) Allocate() (*Channel, error) {
	return m.registry.Allocate()
}

// FindByAddress returns the attached channel bound to the given protocol
// address, or nil.
func (m *Mux) FindByAddress(addr int) *Channel {
	return m.registry.FindByAddress(addr)
}

// Registry exposes the channel pool, mainly for diagnostics.
func (m *Mux) Registry() *Registry { return m.registry }

// Flush blocks until all deferred work submitted so far has run. Diagnostic
// and test aid; production consumers rely on the readiness callbacks.
func (m *Mux) Flush() { m.wq.Flush() }

// Close stops the worker. The driver has no shutdown concept beyond this;
// pools are never reclaimed.
func (m *Mux) Close() { m.wq.Close() }
