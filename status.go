package muxlink

// Status tracks the connection state of a virtual channel. It starts Unknown,
// becomes Configured on a successful attach, and then toggles between
// Connected and Disconnected as the protocol adapter reports link changes.
type Status int

const (
	StatusUnknown Status = iota
	StatusConfigured
	StatusConnected
	StatusDisconnected
)

func (s Status) String() string {
	switch s {
	case StatusUnknown:
		return "unknown"
	case StatusConfigured:
		return "configured"
	case StatusConnected:
		return "connected"
	case StatusDisconnected:
		return "disconnected"
	default:
		return "invalid"
	}
}
