package muxlink

import "errors"

// Sentinel errors returned by the driver. Overflow and not-connected
// conditions are deliberately not errors: they are absorbed into the counts
// returned by Fill, Deliver, and Read, so callers must check counts rather
// than presume full acceptance.
var (
	// ErrInvalidArgument reports a nil port or channel where one is required.
	ErrInvalidArgument = errors.New("muxlink: invalid argument")

	// ErrNotFound reports an unknown channel identity or a lookup with no match.
	ErrNotFound = errors.New("muxlink: not found")

	// ErrNotSupported reports an operation that is meaningless on a muxed
	// virtual channel, such as raw line configuration or blocking single-byte
	// reads.
	ErrNotSupported = errors.New("muxlink: not supported on a muxed channel")

	// ErrNoFreeEndpoint reports that every physical endpoint slot is bound.
	ErrNoFreeEndpoint = errors.New("muxlink: no free endpoint slot")

	// ErrNoFreeChannel reports that every virtual channel slot is claimed.
	ErrNoFreeChannel = errors.New("muxlink: no free channel slot")

	// ErrNotAttached reports use of a channel or endpoint before a successful
	// attach completed.
	ErrNotAttached = errors.New("muxlink: not attached")
)
