package muxlink

// HardwarePort is the primitive surface of a physical serial line. The
// driver identifies endpoints by HardwarePort identity, so implementations
// must be comparable (in practice: pointers).
//
// The registered ISR is the driver's interrupt entry point. Implementations
// invoke it whenever receive data becomes available while receive interrupts
// are enabled; the driver guarantees the ISR never blocks, never allocates,
// and returns quickly.
type HardwarePort interface {
	// FifoRead drains up to len(p) immediately-available bytes, never
	// blocking. Returns the count read.
	FifoRead(p []byte) (int, error)

	// PollWrite transmits a single byte, blocking until the hardware
	// accepts it.
	PollWrite(b byte) error

	// EnableRxIRQ, DisableRxIRQ and DisableTxIRQ gate interrupt delivery.
	EnableRxIRQ()
	DisableRxIRQ()
	DisableTxIRQ()

	// SetISR registers the interrupt entry point.
	SetISR(fn func())

	// IRQUpdate reports whether interrupt processing should continue; it
	// bounds the ISR drain loop together with RxReady.
	IRQUpdate() bool

	// RxReady reports whether receive data is pending.
	RxReady() bool
}
