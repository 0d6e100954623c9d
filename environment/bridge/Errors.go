package bridge

import "errors"

var (
	// ErrRequestInFlight is returned when a request is issued while
	// another request is still waiting for its reply
	ErrRequestInFlight = errors.New("request already in flight")

	// ErrMalformedReply is returned when a reply cannot be decoded
	ErrMalformedReply = errors.New("malformed reply")

	// ErrMalformedRequest is returned when a request cannot be decoded
	ErrMalformedRequest = errors.New("malformed request")

	// ErrNotConnected is returned when the transport is not connected
	ErrNotConnected = errors.New("not connected")

	// ErrClosed is returned when using a closed bridge or transport
	ErrClosed = errors.New("closed")

	// ErrInvalidAction is returned for actions without a key code
	ErrInvalidAction = errors.New("invalid action")
)
