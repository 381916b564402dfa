package board

import (
	"context"
	"math"
	"strings"

	"github.com/sourcebots/sbot.go/pkg/protocol"
)

// MotorChannels is the number of motor outputs per board.
const MotorChannels = 2

// Brake holds the winding shorted: maximum resistance to rotation while
// de-energized. On the wire it is a zero setpoint.
const Brake float64 = 0

// Coast removes drive entirely and lets the motor freewheel. It is
// distinguishable from Brake even though both stop driving the winding.
var Coast = math.Inf(-1)

// MotorStatus is the parsed *STATUS? reply.
type MotorStatus struct {
	OutputFaults []bool
	InputVoltage float64
}

// MotorBoard drives two DC motors with signed duty cycles.
type MotorBoard struct {
	core
}

// NewMotorBoard wraps a connection to an identified motor board.
func NewMotorBoard(conn Conn, identity protocol.Identity) *MotorBoard {
	return &MotorBoard{core: core{conn: conn, identity: identity}}
}

// Type implements Board.
func (b *MotorBoard) Type() Type { return Motor }

// SetPower drives a channel at power in [-1, 1], or Coast to disable the
// output. Out-of-range power is rejected before anything hits the wire.
func (b *MotorBoard) SetPower(ctx context.Context, ch int, power float64) error {
	if err := b.checkChannel(ch); err != nil {
		return err
	}
	if power == Coast {
		return b.write(ctx, "MOT", itoa(ch), "DISABLE")
	}
	if err := boundsCheck(power, -1, 1, "motor power"); err != nil {
		return err
	}
	setpoint := mapToInt(power, -1, 1, -1000, 1000)
	return b.write(ctx, "MOT", itoa(ch), "SET", itoa(setpoint))
}

// Power reads back a channel's power; Coast when the output is disabled.
func (b *MotorBoard) Power(ctx context.Context, ch int) (float64, error) {
	if err := b.checkChannel(ch); err != nil {
		return 0, err
	}
	raw, err := b.query(ctx, "MOT", itoa(ch), "GET?")
	if err != nil {
		return 0, err
	}
	enabled, value, found := strings.Cut(raw, ":")
	if !found {
		return 0, &protocol.Error{Raw: raw, Reason: "motor reply needs 2 fields"}
	}
	if !parseBoolFlag(enabled) {
		return Coast, nil
	}
	setpoint, err := atoiField(value, raw)
	if err != nil {
		return 0, err
	}
	return mapToFloat(setpoint, -1000, 1000, -1, 1), nil
}

// Current reads a channel's current draw in amps.
func (b *MotorBoard) Current(ctx context.Context, ch int) (float64, error) {
	if err := b.checkChannel(ch); err != nil {
		return 0, err
	}
	raw, err := b.query(ctx, "MOT", itoa(ch), "I?")
	if err != nil {
		return 0, err
	}
	return parseMilli(raw)
}

// Status reads the board's health summary.
func (b *MotorBoard) Status(ctx context.Context) (MotorStatus, error) {
	raw, err := b.query(ctx, "*STATUS?")
	if err != nil {
		return MotorStatus{}, err
	}
	faults, voltage, found := strings.Cut(raw, ":")
	if !found {
		return MotorStatus{}, &protocol.Error{Raw: raw, Reason: "motor status needs 2 fields"}
	}
	var status MotorStatus
	for _, flag := range strings.Split(faults, ",") {
		status.OutputFaults = append(status.OutputFaults, parseBoolFlag(flag))
	}
	if status.InputVoltage, err = parseMilli(voltage); err != nil {
		return MotorStatus{}, &protocol.Error{Raw: raw, Reason: "bad input voltage field"}
	}
	return status, nil
}

// MakeSafe implements Board: both outputs are disabled once.
func (b *MotorBoard) MakeSafe(ctx context.Context) {
	b.safeOnce.Do(func() {
		for ch := 0; ch < MotorChannels; ch++ {
			b.safeWrite(ctx, "MOT", itoa(ch), "DISABLE")
		}
	})
}

func (b *MotorBoard) checkChannel(ch int) error {
	if ch < 0 || ch >= MotorChannels {
		return &ValueOutOfRangeError{What: "motor channel", Min: 0, Max: MotorChannels - 1, Got: float64(ch)}
	}
	return nil
}
