package lifecycle

import (
	"errors"
	"fmt"
	"io"
	"net"
)

// lockAddr is the loopback port held for the process lifetime. Binding it
// is the cheapest cross-process mutex that dies with the process, crash
// included.
const lockAddr = "localhost:10653"

// ErrAlreadyRunning means another robot process holds the instance lock.
var ErrAlreadyRunning = errors.New("lifecycle: another robot instance is already running")

func acquireInstanceLock() (io.Closer, error) {
	ln, err := net.Listen("tcp", lockAddr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAlreadyRunning, err)
	}
	return ln, nil
}
