package api

import "errors"

// Sentinel kinds for request handling errors.
var (
	ErrUnknownEvent = errors.New("unknown event")
	ErrUnknownMsg   = errors.New("unknown session message")
)
