package lifecycle

import (
	"fmt"
	"strings"
)

// TeardownError collects the non-nil errors of shutdown, so one failing
// board cannot hide the others. Shutdown never aborts on the first error;
// every board is closed and the lock released regardless.
type TeardownError struct {
	Errors []error
}

// Error implements error
func (e *TeardownError) Error() string {
	msg := make([]string, len(e.Errors))
	for n, err := range e.Errors {
		msg[n] = err.Error()
	}
	return fmt.Sprintf("teardown: %d error(s): %s", len(e.Errors), strings.Join(msg, "; "))
}

// Unwrap exposes the collected errors to errors.Is/As.
func (e *TeardownError) Unwrap() []error {
	return e.Errors
}

// add records errors to be reported. nil is skipped.
func (e *TeardownError) add(errs ...error) {
	for _, err := range errs {
		if err != nil {
			e.Errors = append(e.Errors, err)
		}
	}
}

// orNil returns the error if anything was recorded.
func (e *TeardownError) orNil() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}
