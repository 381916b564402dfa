package protocol

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Kind tags the three reply shapes a board can produce.
type Kind int

const (
	// Ack is the bare acknowledgement of a set-style command.
	Ack Kind = iota
	// Nack is a rejection; the reason comes from the firmware.
	Nack
	// Value is the payload of a query reply.
	Value
)

func (k Kind) String() string {
	switch k {
	case Ack:
		return "ACK"
	case Nack:
		return "NACK"
	case Value:
		return "VALUE"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Response is one decoded reply line. Exactly one response is produced per
// command; a Nack is a completed exchange, not a transport failure.
type Response struct {
	Kind   Kind
	Reason string // Nack only
	Value  string // Value only
}

const nackPrefix = "NACK:"

// Decode interprets one reply line (without its trailing newline).
// Anything that is not recognizable as a reply is a *Error; it indicates a
// firmware or wiring mismatch and must never be retried or coerced.
func Decode(line string) (Response, error) {
	if !utf8.ValidString(line) {
		return Response{}, &Error{Raw: line, Reason: "response is not valid UTF-8"}
	}
	if line == "" {
		return Response{}, &Error{Raw: line, Reason: "empty response"}
	}
	if line == "ACK" {
		return Response{Kind: Ack}, nil
	}
	if strings.HasPrefix(line, nackPrefix) {
		return Response{Kind: Nack, Reason: line[len(nackPrefix):]}, nil
	}
	return Response{Kind: Value, Value: line}, nil
}

// Error reports a malformed response.
type Error struct {
	Raw    string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("protocol: %s (raw %q)", e.Reason, e.Raw)
}
