package queue

import "errors"

// ErrClosed is returned by Enqueue once Close has been called.
var ErrClosed = errors.New("queue closed")

// ErrFull is returned by Enqueue when the buffer has no room.
var ErrFull = errors.New("queue full")
