package muxlink

// ConnNotify is invoked by the protocol adapter whenever the link state of a
// channel changes, with connected reporting the new state. It may be called
// synchronously from within ChannelCreate (for protocols that complete the
// open handshake inline) or later from the worker as frames arrive.
type ConnNotify func(connected bool)

// AttachCallback is registered at attach time and invoked after every
// connect/disconnect notification. addr is the protocol channel address, or
// -1 if the adapter channel handle is not yet recorded.
type AttachCallback func(ch *Channel, addr int, connected bool)

// Wire is the transmit side of a physical line, handed to the adapter so it
// can put encoded frames on the wire. Implemented by *Endpoint; Send blocks
// until the hardware has accepted every byte.
type Wire interface {
	Send(p []byte) error
}

// Adapter is the framing/multiplexing protocol instance bound to one
// physical line. The driver feeds it raw wire bytes; the adapter reassembles
// frames and routes payloads to channels via Channel.Deliver. All Adapter
// methods are invoked from the worker, never from interrupt context.
type Adapter interface {
	// ReceiveRaw feeds raw bytes from the wire for reassembly. The slice is
	// only valid for the duration of the call.
	ReceiveRaw(p []byte)

	// ChannelCreate opens the protocol sub-channel at addr on behalf of
	// owner. The adapter must call notify on every subsequent link state
	// change and deliver inbound payloads through owner.Deliver.
	ChannelCreate(owner *Channel, addr int, notify ConnNotify) (AdapterChannel, error)
}

// AdapterChannel is the per-channel handle produced by ChannelCreate.
type AdapterChannel interface {
	// Send encodes and transmits payload bytes for this sub-channel,
	// returning the count accepted.
	Send(p []byte) (int, error)

	// Address returns the numeric protocol address of the sub-channel.
	Address() int
}

// AdapterFactory creates protocol adapter instances. GlobalInit runs once
// when the Mux is constructed; Create runs at most once per physical
// endpoint, however many channels attach to it.
type AdapterFactory interface {
	GlobalInit()
	Create(wire Wire) (Adapter, error)
}
