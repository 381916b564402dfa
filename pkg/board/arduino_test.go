package board

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestArduino(replies map[string]string) (*ArduinoBoard, *fakeConn) {
	conn := &fakeConn{replies: replies}
	return NewArduinoBoard(conn, ident(Arduino, "ARD123")), conn
}

func TestArduinoDigitalOutput(t *testing.T) {
	b, conn := newTestArduino(nil)
	require.NoError(t, b.SetPinMode(context.Background(), 2, DigitalOutput))
	require.NoError(t, b.DigitalWrite(context.Background(), 2, true))
	require.NoError(t, b.DigitalWrite(context.Background(), 2, false))
	require.Equal(t, []string{
		"PIN:2:MODE:SET:OUTPUT",
		"PIN:2:DIGITAL:SET:1",
		"PIN:2:DIGITAL:SET:0",
	}, conn.sent)
}

func TestArduinoWriteRequiresOutputMode(t *testing.T) {
	b, conn := newTestArduino(nil)
	var modeErr *PinModeError
	require.ErrorAs(t, b.DigitalWrite(context.Background(), 2, true), &modeErr)
	require.Empty(t, conn.sent)

	require.NoError(t, b.SetPinMode(context.Background(), 2, DigitalInput))
	require.ErrorAs(t, b.DigitalWrite(context.Background(), 2, true), &modeErr)
	require.Equal(t, []string{"PIN:2:MODE:SET:INPUT"}, conn.sent)
}

func TestArduinoDigitalRead(t *testing.T) {
	b, _ := newTestArduino(map[string]string{"PIN:3:DIGITAL:GET?": "1"})
	require.NoError(t, b.SetPinMode(context.Background(), 3, DigitalInputPullup))
	level, err := b.DigitalRead(context.Background(), 3)
	require.NoError(t, err)
	require.True(t, level)
}

func TestArduinoAnalogInput(t *testing.T) {
	b, conn := newTestArduino(map[string]string{
		"PIN:14:ANALOG:GET?": "1023",
		"PIN:15:ANALOG:GET?": "0",
	})
	require.NoError(t, b.SetPinMode(context.Background(), 14, AnalogInput))
	require.NoError(t, b.SetPinMode(context.Background(), 15, AnalogInput))
	// the analogue mode is host-side; the wire only sees INPUT
	require.Equal(t, []string{"PIN:14:MODE:SET:INPUT", "PIN:15:MODE:SET:INPUT"}, conn.sent)

	v, err := b.AnalogRead(context.Background(), 14)
	require.NoError(t, err)
	require.Equal(t, 5.0, v)
	v, err = b.AnalogRead(context.Background(), 15)
	require.NoError(t, err)
	require.Equal(t, 0.0, v)
}

func TestArduinoAnalogNeedsCapablePin(t *testing.T) {
	b, conn := newTestArduino(nil)
	var modeErr *PinModeError
	require.ErrorAs(t, b.SetPinMode(context.Background(), 3, AnalogInput), &modeErr)
	require.Empty(t, conn.sent)
}

func TestArduinoAnalogReadNeedsAnalogMode(t *testing.T) {
	b, conn := newTestArduino(nil)
	require.NoError(t, b.SetPinMode(context.Background(), 14, DigitalInput))
	var modeErr *PinModeError
	_, err := b.AnalogRead(context.Background(), 14)
	require.ErrorAs(t, err, &modeErr)
	require.Equal(t, []string{"PIN:14:MODE:SET:INPUT"}, conn.sent)
}

func TestArduinoUltrasound(t *testing.T) {
	b, _ := newTestArduino(map[string]string{
		"ULTRASOUND:4:5:MEASURE?": "1200",
		"ULTRASOUND:6:7:MEASURE?": "0",
	})
	mm, err := b.UltrasoundMeasure(context.Background(), 4, 5)
	require.NoError(t, err)
	require.Equal(t, 1200, mm)

	// no echo is a reading of zero, not an error
	mm, err = b.UltrasoundMeasure(context.Background(), 6, 7)
	require.NoError(t, err)
	require.Equal(t, 0, mm)
}

func TestArduinoMakeSafeReturnsOutputsToInput(t *testing.T) {
	b, conn := newTestArduino(nil)
	require.NoError(t, b.SetPinMode(context.Background(), 2, DigitalOutput))
	require.NoError(t, b.DigitalWrite(context.Background(), 2, true))
	require.NoError(t, b.SetPinMode(context.Background(), 3, DigitalInput))
	conn.sent = nil

	b.MakeSafe(context.Background())
	b.MakeSafe(context.Background())
	require.Equal(t, []string{
		"PIN:2:DIGITAL:SET:0",
		"PIN:2:MODE:SET:INPUT",
	}, conn.sent)
}

func TestArduinoPinBounds(t *testing.T) {
	b, conn := newTestArduino(nil)
	var rangeErr *ValueOutOfRangeError
	require.ErrorAs(t, b.SetPinMode(context.Background(), -1, DigitalInput), &rangeErr)
	require.ErrorAs(t, b.SetPinMode(context.Background(), 20, DigitalInput), &rangeErr)
	_, err := b.UltrasoundMeasure(context.Background(), 0, 20)
	require.ErrorAs(t, err, &rangeErr)
	require.Empty(t, conn.sent)
}
