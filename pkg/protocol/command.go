package protocol

import (
	"errors"
	"strings"
	"unicode/utf8"
)

var (
	// ErrEmptyCommand indicates a command with no tokens.
	ErrEmptyCommand = errors.New("protocol: empty command")
	// ErrInvalidToken indicates a token that cannot be framed on the wire.
	ErrInvalidToken = errors.New("protocol: invalid command token")
)

// Command is a single request to a board, as an ordered list of tokens.
// It is a stateless value; construct one per operation.
type Command struct {
	tokens []string
}

// NewCommand creates a command from tokens.
func NewCommand(tokens ...string) Command {
	return Command{tokens: tokens}
}

// Identify is the identity query every board answers.
func Identify() Command {
	return NewCommand("*IDN?")
}

// Status is the liveness/status query every board answers.
func Status() Command {
	return NewCommand("*STATUS?")
}

// Tokens returns the command tokens.
func (c Command) Tokens() []string {
	return c.tokens
}

// IsQuery indicates the command expects a value reply instead of an ACK.
func (c Command) IsQuery() bool {
	if len(c.tokens) == 0 {
		return false
	}
	return strings.HasSuffix(c.tokens[len(c.tokens)-1], "?")
}

// Encode frames the command for the wire, without the trailing newline.
func (c Command) Encode() (string, error) {
	if len(c.tokens) == 0 {
		return "", ErrEmptyCommand
	}
	for _, token := range c.tokens {
		if token == "" || !utf8.ValidString(token) {
			return "", ErrInvalidToken
		}
		if strings.ContainsAny(token, ":\n\r") {
			return "", ErrInvalidToken
		}
	}
	return strings.Join(c.tokens, ":"), nil
}

// String renders the command for logs. Invalid commands render their
// tokens anyway; only Encode enforces framing rules.
func (c Command) String() string {
	return strings.Join(c.tokens, ":")
}
