package main

import (
	"fmt"
	"sync"

	"github.com/banshee-data/muxlink"
)

// Demo framing: every frame on the wire is
//
//	0x7E | addr | len | payload...
//
// with a one-byte address and a one-byte payload length. It is just enough
// protocol to multiplex a handful of channels over one line and watch them
// in the admin routes; a production deployment would plug in a real framing
// adapter (e.g. TS 07.10) instead.
const frameStart = 0x7E

type frameFactory struct{}

func (frameFactory) GlobalInit() {}

func (frameFactory) Create(wire muxlink.Wire) (muxlink.Adapter, error) {
	return &frameAdapter{
		wire:     wire,
		channels: make(map[int]*muxlink.Channel),
	}, nil
}

type frameAdapter struct {
	wire muxlink.Wire

	mu       sync.Mutex
	channels map[int]*muxlink.Channel

	// parser state, worker-only
	state   int // 0 = hunting for start, 1 = addr, 2 = len, 3 = payload
	addr    int
	need    int
	payload []byte
}

func (a *frameAdapter) ChannelCreate(owner *muxlink.Channel, addr int, notify muxlink.ConnNotify) (muxlink.AdapterChannel, error) {
	if addr < 0 || addr > 0xFF {
		return nil, fmt.Errorf("address %d out of range", addr)
	}

	a.mu.Lock()
	if _, taken := a.channels[addr]; taken {
		a.mu.Unlock()
		return nil, fmt.Errorf("address %d already open", addr)
	}
	a.channels[addr] = owner
	a.mu.Unlock()

	// The demo line has no open handshake: attached means connected.
	notify(true)
	return &frameChannel{adapter: a, addr: addr}, nil
}

func (a *frameAdapter) ReceiveRaw(p []byte) {
	for _, b := range p {
		switch a.state {
		case 0:
			if b == frameStart {
				a.state = 1
			}
		case 1:
			a.addr = int(b)
			a.state = 2
		case 2:
			a.need = int(b)
			a.payload = a.payload[:0]
			if a.need == 0 {
				a.dispatch()
			} else {
				a.state = 3
			}
		case 3:
			a.payload = append(a.payload, b)
			if len(a.payload) == a.need {
				a.dispatch()
			}
		}
	}
}

func (a *frameAdapter) dispatch() {
	a.mu.Lock()
	ch := a.channels[a.addr]
	a.mu.Unlock()

	if ch != nil {
		ch.Deliver(a.payload)
	}
	a.state = 0
}

type frameChannel struct {
	adapter *frameAdapter
	addr    int
}

func (c *frameChannel) Address() int { return c.addr }

// Send wraps payload into frames and puts them on the wire. Payloads longer
// than one frame's length field are split.
func (c *frameChannel) Send(p []byte) (int, error) {
	sent := 0
	for len(p) > 0 {
		chunk := p
		if len(chunk) > 0xFF {
			chunk = chunk[:0xFF]
		}
		frame := make([]byte, 0, 3+len(chunk))
		frame = append(frame, frameStart, byte(c.addr), byte(len(chunk)))
		frame = append(frame, chunk...)
		if err := c.adapter.wire.Send(frame); err != nil {
			return sent, err
		}
		sent += len(chunk)
		p = p[len(chunk):]
	}
	return sent, nil
}
