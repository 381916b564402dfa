package board

import (
	"context"

	"github.com/sourcebots/sbot.go/pkg/protocol"
)

// ServoChannels is the number of servo outputs per board.
const ServoChannels = 12

// Servo pulse-width limits in microseconds. The defaults cover standard
// hobby servos; extended-range servos can widen them per channel.
const (
	MinDuty      = 500
	MaxDuty      = 4000
	DefaultDutyL = 1000
	DefaultDutyH = 2000
)

// ServoBoard drives up to twelve PWM servo outputs.
type ServoBoard struct {
	core
	limits [ServoChannels]dutyLimits
}

type dutyLimits struct {
	lower int
	upper int
}

// NewServoBoard wraps a connection to an identified servo board.
func NewServoBoard(conn Conn, identity protocol.Identity) *ServoBoard {
	b := &ServoBoard{core: core{conn: conn, identity: identity}}
	for ch := range b.limits {
		b.limits[ch] = dutyLimits{lower: DefaultDutyL, upper: DefaultDutyH}
	}
	return b
}

// Type implements Board.
func (b *ServoBoard) Type() Type { return Servo }

// SetDutyLimits widens or narrows the pulse range position ±1 maps onto
// for one channel. Takes effect on the next SetPosition call.
func (b *ServoBoard) SetDutyLimits(ch, lower, upper int) error {
	if err := b.checkChannel(ch); err != nil {
		return err
	}
	if lower < MinDuty || lower > MaxDuty {
		return &ValueOutOfRangeError{What: "servo duty lower limit in µs", Min: MinDuty, Max: MaxDuty, Got: float64(lower)}
	}
	if upper < MinDuty || upper > MaxDuty {
		return &ValueOutOfRangeError{What: "servo duty upper limit in µs", Min: MinDuty, Max: MaxDuty, Got: float64(upper)}
	}
	b.limits[ch] = dutyLimits{lower: lower, upper: upper}
	return nil
}

// DutyLimits reports a channel's pulse range.
func (b *ServoBoard) DutyLimits(ch int) (lower, upper int, err error) {
	if err := b.checkChannel(ch); err != nil {
		return 0, 0, err
	}
	return b.limits[ch].lower, b.limits[ch].upper, nil
}

// SetPosition moves a channel to position in [-1, 1], scaled into the
// channel's duty limits.
func (b *ServoBoard) SetPosition(ctx context.Context, ch int, position float64) error {
	if err := b.checkChannel(ch); err != nil {
		return err
	}
	if err := boundsCheck(position, -1, 1, "servo position"); err != nil {
		return err
	}
	limits := b.limits[ch]
	setpoint := mapToInt(position, -1, 1, limits.lower, limits.upper)
	return b.write(ctx, "SERVO", itoa(ch), "SET", itoa(setpoint))
}

// Disable removes the drive signal from a channel entirely. This is
// distinct from position 0, which actively holds the centre.
func (b *ServoBoard) Disable(ctx context.Context, ch int) error {
	if err := b.checkChannel(ch); err != nil {
		return err
	}
	return b.write(ctx, "SERVO", itoa(ch), "DISABLE")
}

// Position reads back a channel's position. powered is false when the
// channel is unpowered, in which case position is meaningless.
func (b *ServoBoard) Position(ctx context.Context, ch int) (position float64, powered bool, err error) {
	if err := b.checkChannel(ch); err != nil {
		return 0, false, err
	}
	raw, err := b.query(ctx, "SERVO", itoa(ch), "GET?")
	if err != nil {
		return 0, false, err
	}
	setpoint, err := atoiField(raw, raw)
	if err != nil {
		return 0, false, err
	}
	if setpoint == 0 {
		return 0, false, nil
	}
	limits := b.limits[ch]
	return mapToFloat(setpoint, limits.lower, limits.upper, -1, 1), true, nil
}

// Current reads the whole board's servo current draw in amps.
func (b *ServoBoard) Current(ctx context.Context) (float64, error) {
	raw, err := b.query(ctx, "SERVO", "I?")
	if err != nil {
		return 0, err
	}
	return parseMilli(raw)
}

// Voltage reads the servo supply voltage in volts.
func (b *ServoBoard) Voltage(ctx context.Context) (float64, error) {
	raw, err := b.query(ctx, "SERVO", "V?")
	if err != nil {
		return 0, err
	}
	return parseMilli(raw)
}

// MakeSafe implements Board: every channel is unpowered once.
func (b *ServoBoard) MakeSafe(ctx context.Context) {
	b.safeOnce.Do(func() {
		for ch := 0; ch < ServoChannels; ch++ {
			b.safeWrite(ctx, "SERVO", itoa(ch), "DISABLE")
		}
	})
}

func (b *ServoBoard) checkChannel(ch int) error {
	if ch < 0 || ch >= ServoChannels {
		return &ValueOutOfRangeError{What: "servo channel", Min: 0, Max: ServoChannels - 1, Got: float64(ch)}
	}
	return nil
}
