package board

import (
	"context"

	"github.com/sourcebots/sbot.go/pkg/protocol"
)

// fakeConn records every encoded command and answers from a reply table.
// Commands without a table entry are ACKed, matching firmware behaviour
// for set-style commands.
type fakeConn struct {
	sent    []string
	replies map[string]string
	execErr error
	closed  bool

	// optional shared recorder for cross-board ordering checks
	tag    string
	record *[]string
}

func (f *fakeConn) Execute(_ context.Context, cmd protocol.Command) (protocol.Response, error) {
	line, err := cmd.Encode()
	if err != nil {
		return protocol.Response{}, err
	}
	f.sent = append(f.sent, line)
	if f.record != nil {
		*f.record = append(*f.record, f.tag+" "+line)
	}
	if f.execErr != nil {
		return protocol.Response{}, f.execErr
	}
	if reply, ok := f.replies[line]; ok {
		return protocol.Decode(reply)
	}
	return protocol.Response{Kind: protocol.Ack}, nil
}

func (f *fakeConn) Close() error {
	f.closed = true
	return nil
}

func ident(t Type, tag string) protocol.Identity {
	return protocol.Identity{
		Manufacturer: "Student Robotics",
		BoardType:    t.WireName(),
		AssetTag:     tag,
		SWVersion:    "4.4.1",
	}
}
