package board

import (
	"context"
	"fmt"
	"sync"

	"github.com/sourcebots/sbot.go/pkg/protocol"
)

// Pin counts on the I/O board. Pins 14 and up are the analogue-capable
// A0–A5 set.
const (
	ArduinoPins    = 20
	FirstAnalogPin = 14
)

// PinMode gates which operations are legal on a pin. The firmware only
// knows the three wire modes; AnalogInput is tracked host-side and maps
// to INPUT on the wire.
type PinMode int

const (
	DigitalInput PinMode = iota
	DigitalInputPullup
	DigitalOutput
	AnalogInput
)

func (m PinMode) String() string {
	switch m {
	case DigitalInput:
		return "INPUT"
	case DigitalInputPullup:
		return "INPUT_PULLUP"
	case DigitalOutput:
		return "OUTPUT"
	case AnalogInput:
		return "ANALOG_INPUT"
	}
	return fmt.Sprintf("PinMode(%d)", int(m))
}

func (m PinMode) wireName() string {
	if m == AnalogInput {
		return "INPUT"
	}
	return m.String()
}

// PinModeError is returned for an operation a pin's current mode does not
// permit; nothing is sent to the wire.
type PinModeError struct {
	Pin  int
	Mode PinMode
	Op   string
}

func (e *PinModeError) Error() string {
	return fmt.Sprintf("pin %d: %s is not supported in mode %s", e.Pin, e.Op, e.Mode)
}

// pinState is the host-side shadow of one pin.
type pinState struct {
	mode    PinMode
	modeSet bool
	wrote   bool // a digital high was written in DigitalOutput mode
}

// ArduinoBoard is the general-purpose I/O board.
type ArduinoBoard struct {
	core
	mu   sync.Mutex
	pins [ArduinoPins]pinState
}

// NewArduinoBoard wraps a connection to an identified I/O board.
func NewArduinoBoard(conn Conn, identity protocol.Identity) *ArduinoBoard {
	return &ArduinoBoard{core: core{conn: conn, identity: identity}}
}

// Type implements Board.
func (b *ArduinoBoard) Type() Type { return Arduino }

// SetPinMode configures a pin. AnalogInput requires an analogue-capable
// pin.
func (b *ArduinoBoard) SetPinMode(ctx context.Context, pin int, mode PinMode) error {
	if err := b.checkPin(pin); err != nil {
		return err
	}
	if mode == AnalogInput && pin < FirstAnalogPin {
		return &PinModeError{Pin: pin, Mode: mode, Op: "analog input"}
	}
	if err := b.write(ctx, "PIN", itoa(pin), "MODE", "SET", mode.wireName()); err != nil {
		return err
	}
	b.mu.Lock()
	b.pins[pin] = pinState{mode: mode, modeSet: true}
	b.mu.Unlock()
	return nil
}

// PinModeOf reports the mode a pin was last set to.
func (b *ArduinoBoard) PinModeOf(pin int) (PinMode, error) {
	if err := b.checkPin(pin); err != nil {
		return 0, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.pins[pin].modeSet {
		return 0, &PinModeError{Pin: pin, Mode: DigitalInput, Op: "mode readback before set"}
	}
	return b.pins[pin].mode, nil
}

// DigitalWrite drives an output pin high or low. Legal only in
// DigitalOutput mode.
func (b *ArduinoBoard) DigitalWrite(ctx context.Context, pin int, level bool) error {
	if err := b.requireMode(pin, "digital write", DigitalOutput); err != nil {
		return err
	}
	state := "0"
	if level {
		state = "1"
	}
	if err := b.write(ctx, "PIN", itoa(pin), "DIGITAL", "SET", state); err != nil {
		return err
	}
	b.mu.Lock()
	b.pins[pin].wrote = level
	b.mu.Unlock()
	return nil
}

// DigitalRead reads a pin's logic level. Legal in the input modes and in
// DigitalOutput (reads back the driven level).
func (b *ArduinoBoard) DigitalRead(ctx context.Context, pin int) (bool, error) {
	if err := b.requireMode(pin, "digital read", DigitalInput, DigitalInputPullup, DigitalOutput); err != nil {
		return false, err
	}
	raw, err := b.query(ctx, "PIN", itoa(pin), "DIGITAL", "GET?")
	if err != nil {
		return false, err
	}
	return parseBoolFlag(raw), nil
}

// AnalogRead reads a pin's voltage, 0–5 V. Legal only in AnalogInput mode.
func (b *ArduinoBoard) AnalogRead(ctx context.Context, pin int) (float64, error) {
	if err := b.requireMode(pin, "analog read", AnalogInput); err != nil {
		return 0, err
	}
	raw, err := b.query(ctx, "PIN", itoa(pin), "ANALOG", "GET?")
	if err != nil {
		return 0, err
	}
	v, err := atoiField(raw, raw)
	if err != nil {
		return 0, err
	}
	return mapToFloat(v, 0, 1023, 0, 5), nil
}

// UltrasoundMeasure pulses the trigger pin and times the echo, returning
// the distance in millimetres. 0 means no echo was heard within the
// firmware's window; that is a reading, not an error.
func (b *ArduinoBoard) UltrasoundMeasure(ctx context.Context, trigger, echo int) (int, error) {
	if err := b.checkPin(trigger); err != nil {
		return 0, err
	}
	if err := b.checkPin(echo); err != nil {
		return 0, err
	}
	raw, err := b.query(ctx, "ULTRASOUND", itoa(trigger), itoa(echo), "MEASURE?")
	if err != nil {
		return 0, err
	}
	return atoiField(raw, raw)
}

// MakeSafe implements Board: every pin known to have been configured as an
// output is driven low and returned to input, once.
func (b *ArduinoBoard) MakeSafe(ctx context.Context) {
	b.safeOnce.Do(func() {
		b.mu.Lock()
		var outputs []int
		for pin, state := range b.pins {
			if state.modeSet && state.mode == DigitalOutput {
				outputs = append(outputs, pin)
			}
		}
		b.mu.Unlock()
		for _, pin := range outputs {
			b.safeWrite(ctx, "PIN", itoa(pin), "DIGITAL", "SET", "0")
			b.safeWrite(ctx, "PIN", itoa(pin), "MODE", "SET", "INPUT")
		}
	})
}

func (b *ArduinoBoard) checkPin(pin int) error {
	if pin < 0 || pin >= ArduinoPins {
		return &ValueOutOfRangeError{What: "pin", Min: 0, Max: ArduinoPins - 1, Got: float64(pin)}
	}
	return nil
}

func (b *ArduinoBoard) requireMode(pin int, op string, allowed ...PinMode) error {
	if err := b.checkPin(pin); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	state := b.pins[pin]
	if !state.modeSet {
		return &PinModeError{Pin: pin, Mode: DigitalInput, Op: op + " before mode set"}
	}
	for _, mode := range allowed {
		if state.mode == mode {
			return nil
		}
	}
	return &PinModeError{Pin: pin, Mode: state.mode, Op: op}
}
