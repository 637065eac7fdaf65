package queue

import "errors"

// ErrQueueClosed is returned by consumers that need a typed closed signal.
var ErrQueueClosed = errors.New("queue is closed")
