// Package channel provides the resilient command/response channel each
// board is driven through. A channel owns one serial device for the
// process lifetime; it may replace the underlying connection during
// reconnect, but callers hold a stable reference.
package channel

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/sourcebots/sbot.go/pkg/protocol"
	"github.com/sourcebots/sbot.go/pkg/transport"
)

// State of a channel. Transitions are serialized under the channel lock.
type State int

const (
	// Disconnected means no usable connection; the next Execute call
	// triggers another reconnect attempt.
	Disconnected State = iota
	// Connected means the last exchange completed.
	Connected
	// Reconnecting means an exchange failed and the channel is reopening
	// the device.
	Reconnecting
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connected:
		return "connected"
	case Reconnecting:
		return "reconnecting"
	}
	return "unknown"
}

const (
	// DefaultTimeout bounds one receive. Commands never legitimately take
	// longer; a match-deadline shutdown must be able to make progress even
	// against a wedged board.
	DefaultTimeout = 500 * time.Millisecond
	// DefaultAttempts is the total tries per logical operation: the
	// original attempt plus two retries.
	DefaultAttempts = 3
	// DefaultBackoff is multiplied by the attempt number between tries.
	DefaultBackoff = 500 * time.Millisecond
)

// Options tune a channel. Zero values take the defaults above.
type Options struct {
	Timeout  time.Duration
	Attempts int
	Backoff  time.Duration
}

func (o Options) withDefaults() Options {
	if o.Timeout == 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Attempts == 0 {
		o.Attempts = DefaultAttempts
	}
	// Backoff 0 is honored as-is so tests run without sleeping.
	return o
}

// Channel executes commands over one serial device, recovering from
// transport faults by reconnecting, up to a bounded retry budget.
type Channel struct {
	opener transport.Opener
	opts   Options

	mu       sync.Mutex
	conn     transport.Conn
	state    State
	failures int
	label    string
	wantTag  string
}

// New creates a channel over the opener. No connection is made until the
// first Execute call.
func New(opener transport.Opener, opts Options) *Channel {
	return &Channel{
		opener: opener,
		opts:   opts.withDefaults(),
		label:  opener.Device(),
	}
}

// BindIdentity records who is expected on the far end. After every
// reconnect the channel re-queries *IDN? and requires the asset tag to
// match exactly; a different tag means the device path now belongs to
// another physical board and is treated as a hard disconnection.
func (c *Channel) BindIdentity(id protocol.Identity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.label = id.String()
	c.wantTag = id.AssetTag
}

// State reports the connection state.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Failures reports the consecutive-failure counter.
func (c *Channel) Failures() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failures
}

// Execute performs one command/response exchange. The channel lock is held
// for the duration, so at most one command is in flight and per-board
// ordering follows call order. Transport faults are retried with a
// reconnect in between; protocol faults and firmware NACKs are not
// (a NACK is a completed exchange and is returned as a Response).
func (c *Channel) Execute(ctx context.Context, cmd protocol.Command) (protocol.Response, error) {
	line, err := cmd.Encode()
	if err != nil {
		return protocol.Response{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var lastErr error
	for attempt := 0; attempt < c.opts.Attempts; attempt++ {
		if attempt > 0 {
			delay := time.Duration(attempt) * c.opts.Backoff
			if err := sleepCtx(ctx, delay); err != nil {
				return protocol.Response{}, err
			}
		}
		if err := ctx.Err(); err != nil {
			return protocol.Response{}, err
		}

		if err := c.connectLocked(); err != nil {
			var mismatch *IdentityMismatchError
			if errors.As(err, &mismatch) {
				c.state = Disconnected
				return protocol.Response{}, &BoardDisconnectionError{Board: c.label, Err: err}
			}
			c.failures++
			lastErr = err
			continue
		}

		resp, err := c.exchangeLocked(line)
		if err == nil {
			c.failures = 0
			c.state = Connected
			return resp, nil
		}
		var perr *protocol.Error
		if errors.As(err, &perr) {
			// firmware/wiring mismatch, not a transport fault
			return protocol.Response{}, err
		}
		c.failures++
		lastErr = err
		c.dropLocked()
		glog.Warningf("board %s: exchange failed (attempt %d/%d): %v",
			c.label, attempt+1, c.opts.Attempts, err)
	}

	c.state = Disconnected
	return protocol.Response{}, &BoardDisconnectionError{Board: c.label, Err: lastErr}
}

// Close releases the connection. Further Execute calls reconnect.
func (c *Channel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dropLocked()
	c.state = Disconnected
	return nil
}

func (c *Channel) connectLocked() error {
	if c.conn != nil {
		return nil
	}
	conn, err := c.opener.Open()
	if err != nil {
		glog.Warningf("board %s: failed to open %s: %v", c.label, c.opener.Device(), err)
		return err
	}
	c.conn = conn
	if c.wantTag != "" {
		if err := c.validateLocked(); err != nil {
			c.dropLocked()
			return err
		}
	}
	glog.Infof("board %s: connected on %s", c.label, c.opener.Device())
	return nil
}

func (c *Channel) validateLocked() error {
	idn, err := protocol.Identify().Encode()
	if err != nil {
		return err
	}
	resp, err := c.exchangeLocked(idn)
	if err != nil {
		return err
	}
	if resp.Kind != protocol.Value {
		return &protocol.Error{Raw: resp.Reason, Reason: "identity query not answered with a value"}
	}
	id, err := protocol.ParseIdentity(resp.Value)
	if err != nil {
		return err
	}
	if id.AssetTag != c.wantTag {
		return &IdentityMismatchError{Board: c.label, Want: c.wantTag, Got: id.AssetTag}
	}
	return nil
}

func (c *Channel) exchangeLocked(line string) (protocol.Response, error) {
	glog.V(2).Infof("%s <- %q", c.label, line)
	if err := c.conn.SendLine(line); err != nil {
		return protocol.Response{}, err
	}
	reply, err := c.conn.RecvLine(c.opts.Timeout)
	if err != nil {
		return protocol.Response{}, err
	}
	glog.V(2).Infof("%s -> %q", c.label, reply)
	return protocol.Decode(reply)
}

func (c *Channel) dropLocked() {
	if c.conn == nil {
		return
	}
	c.conn.Close()
	c.conn = nil
	c.state = Reconnecting
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
