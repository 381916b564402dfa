package transport

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakePort feeds scripted reads to the line reader. A nil chunk simulates
// a port-level read timeout (zero-length read).
type fakePort struct {
	chunks [][]byte
	wrote  []byte
	closed bool
}

func (p *fakePort) Read(b []byte) (int, error) {
	if len(p.chunks) == 0 {
		return 0, io.EOF
	}
	chunk := p.chunks[0]
	p.chunks = p.chunks[1:]
	return copy(b, chunk), nil
}

func (p *fakePort) Write(b []byte) (int, error) {
	p.wrote = append(p.wrote, b...)
	return len(b), nil
}

func (p *fakePort) SetReadTimeout(time.Duration) error { return nil }

func (p *fakePort) Close() error {
	p.closed = true
	return nil
}

func TestSerialConnRecvLine(t *testing.T) {
	testCases := []struct {
		name   string
		chunks [][]byte
		expect []string
	}{
		{"single line", [][]byte{[]byte("ACK\n")}, []string{"ACK"}},
		{"split across reads", [][]byte{[]byte("AC"), []byte("K\n")}, []string{"ACK"}},
		{"two lines one read", [][]byte{[]byte("ACK\n12100\n")}, []string{"ACK", "12100"}},
		{"crlf stripped", [][]byte{[]byte("ACK\r\n")}, []string{"ACK"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			conn := &serialConn{port: &fakePort{chunks: tc.chunks}}
			for _, want := range tc.expect {
				line, err := conn.RecvLine(100 * time.Millisecond)
				require.NoError(t, err)
				require.Equal(t, want, line)
			}
		})
	}
}

func TestSerialConnRecvTimeout(t *testing.T) {
	conn := &serialConn{port: &fakePort{chunks: [][]byte{nil, nil}}}
	_, err := conn.RecvLine(50 * time.Millisecond)
	require.ErrorIs(t, err, ErrTimeout)

	// an incomplete line without a terminator also times out
	conn = &serialConn{port: &fakePort{chunks: [][]byte{[]byte("AC"), nil}}}
	_, err = conn.RecvLine(50 * time.Millisecond)
	require.ErrorIs(t, err, ErrTimeout)
}

func TestSerialConnSendAndClose(t *testing.T) {
	port := &fakePort{}
	conn := &serialConn{port: port}
	require.NoError(t, conn.SendLine("MOT:0:SET:500"))
	require.Equal(t, "MOT:0:SET:500\n", string(port.wrote))

	require.NoError(t, conn.Close())
	require.True(t, port.closed)
	require.NoError(t, conn.Close())

	require.ErrorIs(t, conn.SendLine("x"), ErrClosed)
	_, err := conn.RecvLine(time.Millisecond)
	require.ErrorIs(t, err, ErrClosed)
}
