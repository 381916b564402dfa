package board

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/sourcebots/sbot.go/pkg/protocol"
)

// OutputPosition names one power board output. The values match the wire
// numbering.
type OutputPosition int

const (
	H0 OutputPosition = iota
	H1
	L0
	L1
	L2
	L3
	// FiveVolt powers the brain. It is always on and cannot be switched.
	FiveVolt
)

// BrainOutput is the output the brain itself runs from.
const BrainOutput = FiveVolt

var outputNames = map[OutputPosition]string{
	H0: "H0", H1: "H1", L0: "L0", L1: "L1", L2: "L2", L3: "L3", FiveVolt: "5V",
}

func (p OutputPosition) String() string {
	if name, ok := outputNames[p]; ok {
		return name
	}
	return "OUT" + itoa(int(p))
}

// SwitchableOutputs lists the outputs user code may control, in wire order.
var SwitchableOutputs = []OutputPosition{H0, H1, L0, L1, L2, L3}

// LEDState drives one of the power board's indicator LEDs.
type LEDState string

const (
	LEDOff   LEDState = "0"
	LEDOn    LEDState = "1"
	LEDFlash LEDState = "F"
)

// Piezo tone limits enforced before anything hits the wire.
const (
	MinToneFrequency = 8
	MaxToneFrequency = 10000
)

// PowerStatus is the parsed *STATUS? reply.
type PowerStatus struct {
	Overcurrent      []bool
	TemperatureC     int
	FanRunning       bool
	RegulatorVoltage float64
}

// PowerBoard distributes battery power to the other boards, carries the
// start button, the run/error LEDs and the piezo buzzer.
type PowerBoard struct {
	core
}

// NewPowerBoard wraps a connection to an identified power board.
func NewPowerBoard(conn Conn, identity protocol.Identity) *PowerBoard {
	return &PowerBoard{core: core{conn: conn, identity: identity}}
}

// Type implements Board.
func (b *PowerBoard) Type() Type { return Power }

// SetOutput enables or disables a named output. The brain output cannot be
// switched from user code.
func (b *PowerBoard) SetOutput(ctx context.Context, pos OutputPosition, enable bool) error {
	if pos == BrainOutput {
		return ErrBrainOutput
	}
	if pos < H0 || pos > L3 {
		return &ValueOutOfRangeError{What: "output position", Min: float64(H0), Max: float64(L3), Got: float64(pos)}
	}
	state := "0"
	if enable {
		state = "1"
	}
	return b.write(ctx, "OUT", itoa(int(pos)), "SET", state)
}

// OutputEnabled reads back whether an output is switched on.
func (b *PowerBoard) OutputEnabled(ctx context.Context, pos OutputPosition) (bool, error) {
	raw, err := b.query(ctx, "OUT", itoa(int(pos)), "GET?")
	if err != nil {
		return false, err
	}
	return parseBoolFlag(raw), nil
}

// OutputCurrent reads the current draw of an output, in amps.
func (b *PowerBoard) OutputCurrent(ctx context.Context, pos OutputPosition) (float64, error) {
	raw, err := b.query(ctx, "OUT", itoa(int(pos)), "I?")
	if err != nil {
		return 0, err
	}
	return parseMilli(raw)
}

// EnableOutputs switches on every switchable output, so the motor and
// servo boards gain power.
func (b *PowerBoard) EnableOutputs(ctx context.Context) error {
	for _, pos := range SwitchableOutputs {
		if err := b.SetOutput(ctx, pos, true); err != nil {
			return err
		}
	}
	return nil
}

// DisableOutputs switches off every switchable output.
func (b *PowerBoard) DisableOutputs(ctx context.Context) error {
	for _, pos := range SwitchableOutputs {
		if err := b.SetOutput(ctx, pos, false); err != nil {
			return err
		}
	}
	return nil
}

// StartButton reports whether either start button (internal or external)
// is pressed. Reading also clears a latched press in the firmware.
func (b *PowerBoard) StartButton(ctx context.Context) (bool, error) {
	raw, err := b.query(ctx, "BTN", "START", "GET?")
	if err != nil {
		return false, err
	}
	internal, external, found := strings.Cut(raw, ":")
	if !found {
		return false, &protocol.Error{Raw: raw, Reason: "start button reply needs 2 fields"}
	}
	return parseBoolFlag(internal) || parseBoolFlag(external), nil
}

// SetRunLED drives the run indicator.
func (b *PowerBoard) SetRunLED(ctx context.Context, state LEDState) error {
	return b.write(ctx, "LED", "RUN", "SET", string(state))
}

// SetErrorLED drives the error indicator.
func (b *PowerBoard) SetErrorLED(ctx context.Context, state LEDState) error {
	return b.write(ctx, "LED", "ERR", "SET", string(state))
}

// BatteryVoltage reads the battery voltage in volts.
func (b *PowerBoard) BatteryVoltage(ctx context.Context) (float64, error) {
	raw, err := b.query(ctx, "BATT", "V?")
	if err != nil {
		return 0, err
	}
	return parseMilli(raw)
}

// BatteryCurrent reads the battery current draw in amps.
func (b *PowerBoard) BatteryCurrent(ctx context.Context) (float64, error) {
	raw, err := b.query(ctx, "BATT", "I?")
	if err != nil {
		return 0, err
	}
	return parseMilli(raw)
}

// Status reads the board's health summary.
func (b *PowerBoard) Status(ctx context.Context) (PowerStatus, error) {
	raw, err := b.query(ctx, "*STATUS?")
	if err != nil {
		return PowerStatus{}, err
	}
	fields := strings.Split(raw, ":")
	if len(fields) < 4 {
		return PowerStatus{}, &protocol.Error{Raw: raw, Reason: "power status needs 4 fields"}
	}
	var status PowerStatus
	for _, flag := range strings.Split(fields[0], ",") {
		status.Overcurrent = append(status.Overcurrent, parseBoolFlag(flag))
	}
	if status.TemperatureC, err = strconv.Atoi(fields[1]); err != nil {
		return PowerStatus{}, &protocol.Error{Raw: raw, Reason: "bad temperature field"}
	}
	status.FanRunning = parseBoolFlag(fields[2])
	if status.RegulatorVoltage, err = parseMilli(fields[3]); err != nil {
		return PowerStatus{}, &protocol.Error{Raw: raw, Reason: "bad regulator voltage field"}
	}
	return status, nil
}

// Buzz queues a tone on the piezo. Non-blocking; the firmware refuses new
// tones once its queue (about 32 entries) is full.
func (b *PowerBoard) Buzz(ctx context.Context, duration time.Duration, frequencyHz int) error {
	if err := boundsCheck(float64(frequencyHz), MinToneFrequency, MaxToneFrequency, "tone frequency in Hz"); err != nil {
		return err
	}
	ms := duration.Milliseconds()
	if ms < 0 || ms > 1<<31-1 {
		return &ValueOutOfRangeError{What: "tone duration in ms", Min: 0, Max: 1<<31 - 1, Got: float64(ms)}
	}
	return b.write(ctx, "NOTE", itoa(frequencyHz), strconv.FormatInt(ms, 10))
}

// MakeSafe implements Board: every switchable output is disabled once.
func (b *PowerBoard) MakeSafe(ctx context.Context) {
	b.safeOnce.Do(func() {
		for _, pos := range SwitchableOutputs {
			b.safeWrite(ctx, "OUT", itoa(int(pos)), "SET", "0")
		}
	})
}
