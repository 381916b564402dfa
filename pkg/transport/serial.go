package transport

import (
	"bytes"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"
)

// DefaultBaud is the rate all current board firmwares use.
const DefaultBaud = 115200

// SerialOpener opens a serial device as a line-oriented Conn.
type SerialOpener struct {
	Path string
	Baud int
	// DelayAfterOpen waits before the first exchange. Some boards reset
	// when the port is opened and drop anything sent while booting.
	DelayAfterOpen time.Duration
}

// Open implements Opener.
func (o *SerialOpener) Open() (Conn, error) {
	baud := o.Baud
	if baud == 0 {
		baud = DefaultBaud
	}
	port, err := serial.Open(o.Path, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, err
	}
	if o.DelayAfterOpen > 0 {
		time.Sleep(o.DelayAfterOpen)
	}
	return &serialConn{port: port}, nil
}

// Device implements Opener.
func (o *SerialOpener) Device() string {
	return o.Path
}

// linePort is the slice of serial.Port the line reader needs.
type linePort interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	SetReadTimeout(t time.Duration) error
	Close() error
}

type serialConn struct {
	port linePort

	mu     sync.Mutex
	buf    []byte // received past the last complete line
	closed bool
}

func (c *serialConn) SendLine(line string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	_, err := c.port.Write(append([]byte(line), '\n'))
	return err
}

func (c *serialConn) RecvLine(timeout time.Duration) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return "", ErrClosed
	}
	deadline := time.Now().Add(timeout)
	chunk := make([]byte, 256)
	for {
		if i := bytes.IndexByte(c.buf, '\n'); i >= 0 {
			line := string(c.buf[:i])
			c.buf = append(c.buf[:0:0], c.buf[i+1:]...)
			return strings.TrimSuffix(line, "\r"), nil
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return "", ErrTimeout
		}
		if err := c.port.SetReadTimeout(remaining); err != nil {
			return "", err
		}
		n, err := c.port.Read(chunk)
		if err != nil {
			return "", err
		}
		if n == 0 {
			// a zero-length read signals the port timeout expired
			return "", ErrTimeout
		}
		c.buf = append(c.buf, chunk[:n]...)
	}
}

func (c *serialConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.port.Close()
}
