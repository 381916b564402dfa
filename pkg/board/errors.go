package board

import (
	"errors"
	"fmt"
)

// ErrBrainOutput is returned when switching the output powering the brain.
var ErrBrainOutput = errors.New("board: the brain output cannot be controlled")

// ValueOutOfRangeError is a client-side rejection of an argument outside
// its legal range. Nothing is sent to the wire in that case.
type ValueOutOfRangeError struct {
	What string
	Min  float64
	Max  float64
	Got  float64
}

func (e *ValueOutOfRangeError) Error() string {
	return fmt.Sprintf("%s must be between %g and %g, got %g", e.What, e.Min, e.Max, e.Got)
}

// CommandRejectedError carries a firmware NACK reason.
type CommandRejectedError struct {
	Board  string
	Reason string
}

func (e *CommandRejectedError) Error() string {
	return fmt.Sprintf("board %s rejected command: %s", e.Board, e.Reason)
}

// BoardNotFoundError means no board of the type was discovered.
type BoardNotFoundError struct {
	Type Type
}

func (e *BoardNotFoundError) Error() string {
	return fmt.Sprintf("no %s board found", e.Type)
}

// AmbiguousBoardError means the singular accessor was used while several
// boards of the type are connected; use the asset-tag accessor instead.
type AmbiguousBoardError struct {
	Type  Type
	Count int
}

func (e *AmbiguousBoardError) Error() string {
	return fmt.Sprintf("expected exactly one %s board, found %d; select one by asset tag", e.Type, e.Count)
}

// IncorrectBoardError means a device identified as a different board type
// than its USB descriptor suggested.
type IncorrectBoardError struct {
	Expected string
	Got      string
}

func (e *IncorrectBoardError) Error() string {
	return fmt.Sprintf("board identified as %q, expected %q", e.Got, e.Expected)
}
