package board

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistrySingularAccessors(t *testing.T) {
	power := NewPowerBoard(&fakeConn{}, ident(Power, "POW123"))
	motor := NewMotorBoard(&fakeConn{}, ident(Motor, "MOT123"))
	r := NewRegistry(power, motor)

	got, err := r.Power()
	require.NoError(t, err)
	require.Same(t, power, got)

	gotMotor, err := r.Motor()
	require.NoError(t, err)
	require.Same(t, motor, gotMotor)
}

func TestRegistryNotFound(t *testing.T) {
	r := NewRegistry(NewPowerBoard(&fakeConn{}, ident(Power, "POW123")))
	_, err := r.Servo()
	var notFound *BoardNotFoundError
	require.ErrorAs(t, err, &notFound)
	require.Equal(t, Servo, notFound.Type)
}

func TestRegistryAmbiguous(t *testing.T) {
	r := NewRegistry(
		NewMotorBoard(&fakeConn{}, ident(Motor, "MOT002")),
		NewMotorBoard(&fakeConn{}, ident(Motor, "MOT001")),
	)
	_, err := r.Motor()
	var ambiguous *AmbiguousBoardError
	require.ErrorAs(t, err, &ambiguous)
	require.Equal(t, 2, ambiguous.Count)

	// positional access stays available, ordered by asset tag
	motors := r.OfType(Motor)
	require.Len(t, motors, 2)
	require.Equal(t, "MOT001", motors[0].Identity().AssetTag)
	require.Equal(t, "MOT002", motors[1].Identity().AssetTag)
}

func TestRegistryByTag(t *testing.T) {
	motor := NewMotorBoard(&fakeConn{}, ident(Motor, "MOT123"))
	r := NewRegistry(motor)
	got, ok := r.ByTag("MOT123")
	require.True(t, ok)
	require.Same(t, motor, got)
	_, ok = r.ByTag("NOPE")
	require.False(t, ok)
}

func TestRegistryDuplicateTagKeepsFirst(t *testing.T) {
	motor := NewMotorBoard(&fakeConn{}, ident(Motor, "TAG001"))
	servo := NewServoBoard(&fakeConn{}, ident(Servo, "TAG001"))
	r := NewRegistry(motor, servo)

	// both boards stay addressable by type
	require.Len(t, r.OfType(Motor), 1)
	require.Len(t, r.OfType(Servo), 1)
	require.Equal(t, 2, r.Len())

	// the tag index keeps the first board it saw, deterministically
	got, ok := r.ByTag("TAG001")
	require.True(t, ok)
	require.Same(t, motor, got)
}

func TestMakeSafeAllOrdering(t *testing.T) {
	var order []string
	conn := func(tag string) *fakeConn {
		return &fakeConn{tag: tag, record: &order}
	}
	r := NewRegistry(
		NewPowerBoard(conn("power"), ident(Power, "POW123")),
		NewArduinoBoard(conn("arduino"), ident(Arduino, "ARD123")),
		NewServoBoard(conn("servo"), ident(Servo, "SRV123")),
		NewMotorBoard(conn("motor"), ident(Motor, "MOT123")),
	)
	r.MakeSafeAll(context.Background())

	// motors first, power last so the actuator boards stay powered while
	// they are being made safe
	require.Equal(t, "motor MOT:0:DISABLE", order[0])
	require.Equal(t, "power OUT:5:SET:0", order[len(order)-1])
}

func TestCloseAll(t *testing.T) {
	conns := []*fakeConn{{}, {}}
	r := NewRegistry(
		NewMotorBoard(conns[0], ident(Motor, "MOT123")),
		NewServoBoard(conns[1], ident(Servo, "SRV123")),
	)
	require.NoError(t, r.CloseAll())
	require.True(t, conns[0].closed)
	require.True(t, conns[1].closed)
}
