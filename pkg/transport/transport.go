// Package transport provides line-oriented serial connections to boards,
// and enumeration of the USB serial ports boards show up on.
package transport

import (
	"errors"
	"time"
)

var (
	// ErrTimeout indicates no complete line arrived within the deadline.
	ErrTimeout = errors.New("transport: receive timeout")
	// ErrClosed indicates the connection has been closed.
	ErrClosed = errors.New("transport: connection closed")
)

// Conn is one open point-to-point link to a board. A line is terminated by
// '\n'; callers never send or expect embedded newlines. Implementations
// release the underlying device handle on Close, on every exit path.
type Conn interface {
	// SendLine writes one line. The terminator is appended here.
	SendLine(line string) error
	// RecvLine reads one line, without its terminator, failing with
	// ErrTimeout if none arrives in time.
	RecvLine(timeout time.Duration) (string, error)
	// Close releases the device. Safe to call more than once.
	Close() error
}

// Opener reopens the same device, so a channel can replace a failed
// connection without rebinding to a different board.
type Opener interface {
	Open() (Conn, error)
	// Device names the underlying device path, for logs.
	Device() string
}
