package muxlink

import (
	"sync"

	"go.bug.st/serial"

	"github.com/banshee-data/muxlink/internal/monitoring"
)

// RealPort adapts a go.bug.st/serial port to the HardwarePort surface. A
// background reader goroutine plays the role of the receive interrupt: when
// bytes arrive while RX interrupts are enabled, the registered ISR is
// invoked in that goroutine's context. FifoRead then drains the bytes the
// reader has staged, never blocking.
type RealPort struct {
	name string
	port serial.Port

	mu        sync.Mutex
	pending   []byte
	isr       func()
	rxEnabled bool
	closed    bool
}

// OpenRealPort opens the serial device at path with the given options and
// starts the interrupt-emulation reader.
func OpenRealPort(path string, opts PortOptions) (*RealPort, error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, err
	}

	p := &RealPort{name: path, port: port}
	go p.readLoop()
	return p, nil
}

func (p *RealPort) readLoop() {
	buf := make([]byte, 256)
	for {
		n, err := p.port.Read(buf)
		if n > 0 {
			p.mu.Lock()
			p.pending = append(p.pending, buf[:n]...)
			var isr func()
			if p.rxEnabled {
				isr = p.isr
			}
			p.mu.Unlock()

			if isr != nil {
				isr()
			}
		}
		if err != nil {
			p.mu.Lock()
			closed := p.closed
			p.mu.Unlock()
			if !closed {
				monitoring.Logf("muxlink: port %s read failed: %v", p.name, err)
			}
			return
		}
	}
}

// Name returns the device path the port was opened with.
func (p *RealPort) Name() string { return p.name }

// FifoRead drains up to len(b) staged bytes without blocking.
func (p *RealPort) FifoRead(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := copy(b, p.pending)
	p.pending = p.pending[n:]
	return n, nil
}

// PollWrite transmits one byte, blocking until the port accepts it.
func (p *RealPort) PollWrite(b byte) error {
	buf := [1]byte{b}
	for {
		n, err := p.port.Write(buf[:])
		if err != nil {
			return err
		}
		if n == 1 {
			return nil
		}
	}
}

// EnableRxIRQ starts ISR delivery. If data arrived while disabled, the ISR
// fires immediately so nothing staged is missed.
func (p *RealPort) EnableRxIRQ() {
	p.mu.Lock()
	p.rxEnabled = true
	fire := len(p.pending) > 0 && p.isr != nil
	isr := p.isr
	p.mu.Unlock()
	if fire {
		isr()
	}
}

// DisableRxIRQ stops ISR delivery; the reader keeps staging bytes.
func (p *RealPort) DisableRxIRQ() {
	p.mu.Lock()
	p.rxEnabled = false
	p.mu.Unlock()
}

// DisableTxIRQ is a no-op: the emulation has no transmit interrupt.
func (p *RealPort) DisableTxIRQ() {}

// SetISR registers the interrupt entry point.
func (p *RealPort) SetISR(fn func()) {
	p.mu.Lock()
	p.isr = fn
	p.mu.Unlock()
}

// IRQUpdate always reports true; RxReady alone bounds the drain loop.
func (p *RealPort) IRQUpdate() bool { return true }

// RxReady reports whether staged bytes are waiting.
func (p *RealPort) RxReady() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending) > 0
}

// Close closes the underlying port, stopping the reader.
func (p *RealPort) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return p.port.Close()
}
