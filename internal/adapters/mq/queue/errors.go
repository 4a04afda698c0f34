package queue

import "errors"

// Sentinel enqueue failures.
var (
	ErrFull   = errors.New("result queue full")
	ErrClosed = errors.New("result queue closed")
)
