package board

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestPower(replies map[string]string) (*PowerBoard, *fakeConn) {
	conn := &fakeConn{replies: replies}
	return NewPowerBoard(conn, ident(Power, "POW123")), conn
}

func TestPowerSetOutput(t *testing.T) {
	b, conn := newTestPower(nil)
	require.NoError(t, b.SetOutput(context.Background(), H0, true))
	require.NoError(t, b.SetOutput(context.Background(), L3, false))
	require.Equal(t, []string{"OUT:0:SET:1", "OUT:5:SET:0"}, conn.sent)
}

func TestPowerBrainOutputIsProtected(t *testing.T) {
	b, conn := newTestPower(nil)
	err := b.SetOutput(context.Background(), BrainOutput, false)
	require.ErrorIs(t, err, ErrBrainOutput)
	require.Empty(t, conn.sent)
}

func TestPowerEnableDisableOutputs(t *testing.T) {
	b, conn := newTestPower(nil)
	require.NoError(t, b.EnableOutputs(context.Background()))
	require.Len(t, conn.sent, len(SwitchableOutputs))
	require.Equal(t, "OUT:0:SET:1", conn.sent[0])
	require.Equal(t, "OUT:5:SET:1", conn.sent[5])
}

func TestPowerStartButton(t *testing.T) {
	for raw, want := range map[string]bool{
		"0:0": false,
		"1:0": true,
		"0:1": true,
		"1:1": true,
	} {
		b, _ := newTestPower(map[string]string{"BTN:START:GET?": raw})
		pressed, err := b.StartButton(context.Background())
		require.NoError(t, err, raw)
		require.Equal(t, want, pressed, raw)
	}
}

func TestPowerBatteryReadings(t *testing.T) {
	b, _ := newTestPower(map[string]string{
		"BATT:V?": "12240",
		"BATT:I?": "1500",
	})
	v, err := b.BatteryVoltage(context.Background())
	require.NoError(t, err)
	require.Equal(t, 12.24, v)
	i, err := b.BatteryCurrent(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1.5, i)
}

func TestPowerStatus(t *testing.T) {
	b, _ := newTestPower(map[string]string{
		"*STATUS?": "0,1,0,0,0,0:38:1:5010",
	})
	status, err := b.Status(context.Background())
	require.NoError(t, err)
	require.Equal(t, []bool{false, true, false, false, false, false}, status.Overcurrent)
	require.Equal(t, 38, status.TemperatureC)
	require.True(t, status.FanRunning)
	require.Equal(t, 5.01, status.RegulatorVoltage)
}

func TestPowerBuzz(t *testing.T) {
	b, conn := newTestPower(nil)
	require.NoError(t, b.Buzz(context.Background(), 100*time.Millisecond, 440))
	require.Equal(t, []string{"NOTE:440:100"}, conn.sent)
}

func TestPowerBuzzRejectsOutOfRange(t *testing.T) {
	b, conn := newTestPower(nil)
	var rangeErr *ValueOutOfRangeError
	require.ErrorAs(t, b.Buzz(context.Background(), time.Second, 7), &rangeErr)
	require.ErrorAs(t, b.Buzz(context.Background(), time.Second, 10001), &rangeErr)
	require.ErrorAs(t, b.Buzz(context.Background(), -time.Second, 440), &rangeErr)
	require.Empty(t, conn.sent)
}

func TestPowerMakeSafeOnce(t *testing.T) {
	b, conn := newTestPower(nil)
	b.MakeSafe(context.Background())
	b.MakeSafe(context.Background())
	require.Equal(t, []string{
		"OUT:0:SET:0", "OUT:1:SET:0", "OUT:2:SET:0",
		"OUT:3:SET:0", "OUT:4:SET:0", "OUT:5:SET:0",
	}, conn.sent)
}
