package store

import "errors"

// Sentinel kinds for store client errors.
var (
	ErrRequestFailed = errors.New("store request failed")
	ErrBadStatus     = errors.New("store returned unexpected status")
	ErrDecodeBody    = errors.New("failed to decode store response")
	ErrEncodeBody    = errors.New("failed to encode request body")
	ErrRateLimited   = errors.New("rate limiter rejected request")
)
