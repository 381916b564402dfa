// Package board provides typed proxies for the controller boards and the
// discovery registry that indexes them by type and asset tag.
package board

import (
	"context"
	"fmt"
	"sync"

	"github.com/golang/glog"

	"github.com/sourcebots/sbot.go/pkg/protocol"
)

// Type identifies a kind of controller board.
type Type int

const (
	// Power is the power distribution board.
	Power Type = iota
	// Motor is the DC motor driver board.
	Motor
	// Servo is the servo driver board.
	Servo
	// Arduino is the general-purpose I/O board.
	Arduino
)

func (t Type) String() string {
	switch t {
	case Power:
		return "power"
	case Motor:
		return "motor"
	case Servo:
		return "servo"
	case Arduino:
		return "arduino"
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// WireName is the board_type field the firmware reports for this type.
func (t Type) WireName() string {
	switch t {
	case Power:
		return "PBv4B"
	case Motor:
		return "MCv4B"
	case Servo:
		return "SBv4B"
	case Arduino:
		return "Arduino"
	}
	return ""
}

// Conn is the command surface a proxy issues its operations through.
// *channel.Channel implements it; tests substitute scripted fakes.
type Conn interface {
	Execute(context.Context, protocol.Command) (protocol.Response, error)
	Close() error
}

// Board is the capability every proxy shares.
type Board interface {
	Type() Type
	Identity() protocol.Identity
	// MakeSafe de-energizes every actuator on the board. It is idempotent
	// and never fails: it runs unconditionally during shutdown, so channel
	// errors are logged and swallowed here and nowhere else.
	MakeSafe(ctx context.Context)
	Close() error
}

// core is the plumbing embedded in every proxy.
type core struct {
	conn     Conn
	identity protocol.Identity
	safeOnce sync.Once
}

func (c *core) Identity() protocol.Identity { return c.identity }

// Close releases the underlying channel.
func (c *core) Close() error { return c.conn.Close() }

// write issues a set-style command and requires an ACK.
func (c *core) write(ctx context.Context, tokens ...string) error {
	resp, err := c.conn.Execute(ctx, protocol.NewCommand(tokens...))
	if err != nil {
		return err
	}
	switch resp.Kind {
	case protocol.Ack:
		return nil
	case protocol.Nack:
		return &CommandRejectedError{Board: c.identity.String(), Reason: resp.Reason}
	default:
		return &protocol.Error{Raw: resp.Value, Reason: "expected ACK"}
	}
}

// query issues a query command and requires a value.
func (c *core) query(ctx context.Context, tokens ...string) (string, error) {
	resp, err := c.conn.Execute(ctx, protocol.NewCommand(tokens...))
	if err != nil {
		return "", err
	}
	switch resp.Kind {
	case protocol.Value:
		return resp.Value, nil
	case protocol.Nack:
		return "", &CommandRejectedError{Board: c.identity.String(), Reason: resp.Reason}
	default:
		return "", &protocol.Error{Raw: "ACK", Reason: "expected a value"}
	}
}

// safeWrite is write with the make-safe error policy applied.
func (c *core) safeWrite(ctx context.Context, tokens ...string) {
	if err := c.write(ctx, tokens...); err != nil {
		glog.Warningf("board %s: make safe: %v", c.identity, err)
	}
}
