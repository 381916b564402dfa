package board

import (
	"context"
	"time"

	"github.com/golang/glog"

	"github.com/sourcebots/sbot.go/pkg/channel"
	"github.com/sourcebots/sbot.go/pkg/protocol"
	"github.com/sourcebots/sbot.go/pkg/transport"
)

// usbTypes maps a "vid:pid" key to the board type that enumerates with it.
var usbTypes = map[string]Type{
	"1bda:0010": Power,
	"1bda:0011": Servo,
	"0403:6001": Motor,
	"2341:0043": Arduino,
	"2a03:0043": Arduino,
	"1a86:7523": Arduino,
	"10c4:ea60": Arduino,
	"16d0:0613": Arduino,
}

// arduinoOpenDelay lets the bootloader finish its reset cycle before the
// first command; opening the port resets the microcontroller.
const arduinoOpenDelay = 2 * time.Second

// DiscoverOptions tunes a discovery pass. The zero value probes every
// enumerated USB port with the channel defaults.
type DiscoverOptions struct {
	// Channel applies to every board's command channel.
	Channel channel.Options
	// Baud overrides transport.DefaultBaud when non-zero.
	Baud int
	// ManualPorts names serial devices to probe in addition to the USB
	// enumeration, keyed by the board type expected there.
	ManualPorts map[Type][]string

	// test seams
	listPorts func() ([]transport.PortInfo, error)
	openerFor func(t Type, path string) transport.Opener
}

func (o *DiscoverOptions) list() ([]transport.PortInfo, error) {
	if o.listPorts != nil {
		return o.listPorts()
	}
	return transport.ListUSBPorts()
}

func (o *DiscoverOptions) opener(t Type, path string) transport.Opener {
	if o.openerFor != nil {
		return o.openerFor(t, path)
	}
	opener := &transport.SerialOpener{Path: path, Baud: o.Baud}
	if t == Arduino {
		opener.DelayAfterOpen = arduinoOpenDelay
	}
	return opener
}

// Discover enumerates USB serial ports, probes every recognised device for
// its identity and returns a registry of the boards that answered. A port
// that fails to identify is logged and skipped; discovery itself only
// fails when the enumeration does.
func Discover(ctx context.Context, opts DiscoverOptions) (*Registry, error) {
	ports, err := opts.list()
	if err != nil {
		return nil, err
	}
	var boards []Board
	for _, port := range ports {
		t, ok := usbTypes[port.ID()]
		if !ok {
			glog.V(2).Infof("discover: %s (%s) is not a known board", port.Path, port.ID())
			continue
		}
		if b := probe(ctx, &opts, t, port.Path); b != nil {
			boards = append(boards, b)
		}
	}
	for t, paths := range opts.ManualPorts {
		for _, path := range paths {
			if b := probe(ctx, &opts, t, path); b != nil {
				boards = append(boards, b)
			}
		}
	}
	return NewRegistry(boards...), nil
}

// probe opens a channel to one device and identifies it. Returns nil when
// the device does not answer or is not the expected kind of board.
func probe(ctx context.Context, opts *DiscoverOptions, t Type, path string) Board {
	ch := channel.New(opts.opener(t, path), opts.Channel)
	resp, err := ch.Execute(ctx, protocol.Identify())
	if err != nil {
		glog.Warningf("discover: %s: %v", path, err)
		ch.Close()
		return nil
	}
	identity, err := protocol.ParseIdentity(resp.Value)
	if err != nil {
		glog.Warningf("discover: %s: %v", path, err)
		ch.Close()
		return nil
	}
	if identity.BoardType != t.WireName() {
		glog.Warningf("discover: %s: %v", path,
			&IncorrectBoardError{Expected: t.WireName(), Got: identity.BoardType})
		ch.Close()
		return nil
	}
	ch.BindIdentity(identity)
	glog.Infof("discover: %s board %s at %s (fw %s)", t, identity.AssetTag, path, identity.SWVersion)
	return newProxy(t, ch, identity)
}

func newProxy(t Type, conn Conn, identity protocol.Identity) Board {
	switch t {
	case Power:
		return NewPowerBoard(conn, identity)
	case Motor:
		return NewMotorBoard(conn, identity)
	case Servo:
		return NewServoBoard(conn, identity)
	case Arduino:
		return NewArduinoBoard(conn, identity)
	}
	return nil
}
