package channel

import "fmt"

// BoardDisconnectionError is surfaced once the retry budget is exhausted:
// communication to the board failed and could not be reestablished.
type BoardDisconnectionError struct {
	Board string
	Err   error
}

func (e *BoardDisconnectionError) Error() string {
	return fmt.Sprintf("board %s disconnected: %v", e.Board, e.Err)
}

func (e *BoardDisconnectionError) Unwrap() error { return e.Err }

// IdentityMismatchError means the device path answered the identity query
// with a different asset tag after a reconnect. Rebinding to a different
// physical board would silently drive the wrong hardware, so this is
// treated as a hard disconnection.
type IdentityMismatchError struct {
	Board string
	Want  string
	Got   string
}

func (e *IdentityMismatchError) Error() string {
	return fmt.Sprintf("board %s: device now identifies as %q, expected %q", e.Board, e.Got, e.Want)
}
