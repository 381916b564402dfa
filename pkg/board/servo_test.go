package board

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestServo(replies map[string]string) (*ServoBoard, *fakeConn) {
	conn := &fakeConn{replies: replies}
	return NewServoBoard(conn, ident(Servo, "SRV123")), conn
}

func TestServoSetPosition(t *testing.T) {
	b, conn := newTestServo(nil)
	require.NoError(t, b.SetPosition(context.Background(), 0, 0))
	require.NoError(t, b.SetPosition(context.Background(), 1, 1))
	require.NoError(t, b.SetPosition(context.Background(), 2, -1))
	require.Equal(t, []string{"SERVO:0:SET:1500", "SERVO:1:SET:2000", "SERVO:2:SET:1000"}, conn.sent)
}

func TestServoSetPositionRejectsOutOfRange(t *testing.T) {
	b, conn := newTestServo(nil)
	var rangeErr *ValueOutOfRangeError
	require.ErrorAs(t, b.SetPosition(context.Background(), 0, 1.01), &rangeErr)
	require.ErrorAs(t, b.SetPosition(context.Background(), 12, 0), &rangeErr)
	require.Empty(t, conn.sent)
}

func TestServoDutyLimits(t *testing.T) {
	b, conn := newTestServo(nil)
	require.NoError(t, b.SetDutyLimits(3, 800, 2200))
	lower, upper, err := b.DutyLimits(3)
	require.NoError(t, err)
	require.Equal(t, 800, lower)
	require.Equal(t, 2200, upper)

	// only the reconfigured channel is affected
	require.NoError(t, b.SetPosition(context.Background(), 3, 0))
	require.NoError(t, b.SetPosition(context.Background(), 4, 0))
	require.Equal(t, []string{"SERVO:3:SET:1500", "SERVO:4:SET:1500"}, conn.sent)
}

func TestServoDutyLimitsRejectOutOfRange(t *testing.T) {
	b, _ := newTestServo(nil)
	var rangeErr *ValueOutOfRangeError
	require.ErrorAs(t, b.SetDutyLimits(0, 400, 2000), &rangeErr)
	require.ErrorAs(t, b.SetDutyLimits(0, 1000, 4100), &rangeErr)
}

func TestServoPositionReadback(t *testing.T) {
	b, _ := newTestServo(map[string]string{
		"SERVO:0:GET?": "1750",
		"SERVO:1:GET?": "0",
	})
	position, powered, err := b.Position(context.Background(), 0)
	require.NoError(t, err)
	require.True(t, powered)
	require.Equal(t, 0.5, position)

	_, powered, err = b.Position(context.Background(), 1)
	require.NoError(t, err)
	require.False(t, powered)
}

func TestServoDisable(t *testing.T) {
	b, conn := newTestServo(nil)
	require.NoError(t, b.Disable(context.Background(), 7))
	require.Equal(t, []string{"SERVO:7:DISABLE"}, conn.sent)
}

func TestServoBoardReadings(t *testing.T) {
	b, _ := newTestServo(map[string]string{
		"SERVO:I?": "450",
		"SERVO:V?": "5020",
	})
	i, err := b.Current(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0.45, i)
	v, err := b.Voltage(context.Background())
	require.NoError(t, err)
	require.Equal(t, 5.02, v)
}

func TestServoMakeSafeOnce(t *testing.T) {
	b, conn := newTestServo(nil)
	b.MakeSafe(context.Background())
	b.MakeSafe(context.Background())
	require.Len(t, conn.sent, ServoChannels)
	require.Equal(t, "SERVO:0:DISABLE", conn.sent[0])
	require.Equal(t, "SERVO:11:DISABLE", conn.sent[11])
}
