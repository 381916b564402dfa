// Package boards provides the per-board shell commands.
package boards

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/sourcebots/sbot.go/pkg/board"
	"github.com/sourcebots/sbot.go/pkg/cli/sh"
)

func atoi(c *ishell.Context, arg string) (int, bool) {
	v, err := strconv.Atoi(arg)
	if err != nil {
		c.Err(fmt.Errorf("not a number: %q", arg))
		return 0, false
	}
	return v, true
}

func atof(c *ishell.Context, arg string) (float64, bool) {
	v, err := strconv.ParseFloat(arg, 64)
	if err != nil {
		c.Err(fmt.Errorf("not a number: %q", arg))
		return 0, false
	}
	return v, true
}

func usage(c *ishell.Context) {
	c.Err(fmt.Errorf("usage: %s %s", c.Cmd.Name, c.Cmd.Help))
}

var (
	// IdnCmd prints every board's identity.
	IdnCmd = ishell.Cmd{
		Name: "idn",
		Help: "",
		Func: sh.MustBeDiscovered(func(c *ishell.Context) {
			for _, b := range sh.ShellFrom(c).Registry().All() {
				id := b.Identity()
				c.Printf("%s:%s:%s:%s\n", id.Manufacturer, id.BoardType, id.AssetTag, id.SWVersion)
			}
		}),
	}

	// OutCmd switches a power board output.
	OutCmd = ishell.Cmd{
		Name: "out",
		Help: "[TAG] POSITION on|off",
		Func: sh.MustBeDiscovered(func(c *ishell.Context) {
			args := c.Args
			registry := sh.ShellFrom(c).Registry()
			var power *board.PowerBoard
			if len(args) == 3 {
				b, ok := registry.ByTag(args[0])
				if !ok {
					c.Err(fmt.Errorf("no board with asset tag %q", args[0]))
					return
				}
				if power, ok = b.(*board.PowerBoard); !ok {
					c.Err(fmt.Errorf("%q is not a power board", args[0]))
					return
				}
				args = args[1:]
			} else {
				var err error
				if power, err = registry.Power(); err != nil {
					c.Err(err)
					return
				}
			}
			if len(args) != 2 || (args[1] != "on" && args[1] != "off") {
				usage(c)
				return
			}
			pos, ok := atoi(c, args[0])
			if !ok {
				return
			}
			if err := power.SetOutput(context.Background(), board.OutputPosition(pos), args[1] == "on"); err != nil {
				c.Err(err)
				return
			}
			c.Println("OK")
		}),
	}

	// CurrentCmd prints the power board's battery and output currents.
	CurrentCmd = ishell.Cmd{
		Name: "current",
		Help: "",
		Func: sh.MustBeDiscovered(func(c *ishell.Context) {
			power, err := sh.ShellFrom(c).Registry().Power()
			if err != nil {
				c.Err(err)
				return
			}
			ctx := context.Background()
			v, err := power.BatteryVoltage(ctx)
			if err != nil {
				c.Err(err)
				return
			}
			i, err := power.BatteryCurrent(ctx)
			if err != nil {
				c.Err(err)
				return
			}
			c.Printf("battery %.3f V %.3f A\n", v, i)
			for _, pos := range board.SwitchableOutputs {
				i, err := power.OutputCurrent(ctx, pos)
				if err != nil {
					c.Err(err)
					return
				}
				c.Printf("%-3s %.3f A\n", pos, i)
			}
		}),
	}

	// MotorCmd drives a motor channel.
	MotorCmd = ishell.Cmd{
		Name: "motor",
		Help: "CHANNEL POWER|coast|brake",
		Func: sh.MustBeDiscovered(func(c *ishell.Context) {
			if len(c.Args) != 2 {
				usage(c)
				return
			}
			motor, err := sh.ShellFrom(c).Registry().Motor()
			if err != nil {
				c.Err(err)
				return
			}
			ch, ok := atoi(c, c.Args[0])
			if !ok {
				return
			}
			var power float64
			switch c.Args[1] {
			case "coast":
				power = board.Coast
			case "brake":
				power = board.Brake
			default:
				if power, ok = atof(c, c.Args[1]); !ok {
					return
				}
			}
			if err := motor.SetPower(context.Background(), ch, power); err != nil {
				c.Err(err)
				return
			}
			c.Println("OK")
		}),
	}

	// ServoCmd positions a servo channel.
	ServoCmd = ishell.Cmd{
		Name: "servo",
		Help: "CHANNEL POSITION|off",
		Func: sh.MustBeDiscovered(func(c *ishell.Context) {
			if len(c.Args) != 2 {
				usage(c)
				return
			}
			servo, err := sh.ShellFrom(c).Registry().Servo()
			if err != nil {
				c.Err(err)
				return
			}
			ch, ok := atoi(c, c.Args[0])
			if !ok {
				return
			}
			ctx := context.Background()
			if c.Args[1] == "off" {
				err = servo.Disable(ctx, ch)
			} else {
				var position float64
				if position, ok = atof(c, c.Args[1]); !ok {
					return
				}
				err = servo.SetPosition(ctx, ch, position)
			}
			if err != nil {
				c.Err(err)
				return
			}
			c.Println("OK")
		}),
	}

	// PinCmd works a GPIO pin.
	PinCmd = ishell.Cmd{
		Name: "pin",
		Help: "PIN mode input|pullup|output|analog / read / write 0|1 / analog",
		Func: sh.MustBeDiscovered(func(c *ishell.Context) {
			if len(c.Args) < 2 {
				usage(c)
				return
			}
			arduino, err := sh.ShellFrom(c).Registry().Arduino()
			if err != nil {
				c.Err(err)
				return
			}
			pin, ok := atoi(c, c.Args[0])
			if !ok {
				return
			}
			ctx := context.Background()
			switch c.Args[1] {
			case "mode":
				if len(c.Args) != 3 {
					usage(c)
					return
				}
				modes := map[string]board.PinMode{
					"input":  board.DigitalInput,
					"pullup": board.DigitalInputPullup,
					"output": board.DigitalOutput,
					"analog": board.AnalogInput,
				}
				mode, ok := modes[c.Args[2]]
				if !ok {
					usage(c)
					return
				}
				if err := arduino.SetPinMode(ctx, pin, mode); err != nil {
					c.Err(err)
					return
				}
				c.Println("OK")
			case "read":
				level, err := arduino.DigitalRead(ctx, pin)
				if err != nil {
					c.Err(err)
					return
				}
				c.Println(level)
			case "write":
				if len(c.Args) != 3 {
					usage(c)
					return
				}
				if err := arduino.DigitalWrite(ctx, pin, c.Args[2] == "1"); err != nil {
					c.Err(err)
					return
				}
				c.Println("OK")
			case "analog":
				v, err := arduino.AnalogRead(ctx, pin)
				if err != nil {
					c.Err(err)
					return
				}
				c.Printf("%.3f V\n", v)
			default:
				usage(c)
			}
		}),
	}

	// UltrasoundCmd takes a distance measurement.
	UltrasoundCmd = ishell.Cmd{
		Name: "ultrasound",
		Help: "TRIGGER_PIN ECHO_PIN",
		Func: sh.MustBeDiscovered(func(c *ishell.Context) {
			if len(c.Args) != 2 {
				usage(c)
				return
			}
			arduino, err := sh.ShellFrom(c).Registry().Arduino()
			if err != nil {
				c.Err(err)
				return
			}
			trigger, ok := atoi(c, c.Args[0])
			if !ok {
				return
			}
			echo, ok := atoi(c, c.Args[1])
			if !ok {
				return
			}
			mm, err := arduino.UltrasoundMeasure(context.Background(), trigger, echo)
			if err != nil {
				c.Err(err)
				return
			}
			if mm == 0 {
				c.Println("no echo")
				return
			}
			c.Printf("%d mm\n", mm)
		}),
	}

	// BuzzCmd sounds the piezo.
	BuzzCmd = ishell.Cmd{
		Name: "buzz",
		Help: "FREQUENCY_HZ SECONDS",
		Func: sh.MustBeDiscovered(func(c *ishell.Context) {
			if len(c.Args) != 2 {
				usage(c)
				return
			}
			power, err := sh.ShellFrom(c).Registry().Power()
			if err != nil {
				c.Err(err)
				return
			}
			freq, ok := atoi(c, c.Args[0])
			if !ok {
				return
			}
			secs, ok := atof(c, c.Args[1])
			if !ok {
				return
			}
			duration := time.Duration(secs * float64(time.Second))
			if err := power.Buzz(context.Background(), duration, freq); err != nil {
				c.Err(err)
				return
			}
			c.Println("OK")
		}),
	}
)

func init() {
	sh.AddCmds(
		&IdnCmd,
		&OutCmd,
		&CurrentCmd,
		&MotorCmd,
		&ServoCmd,
		&PinCmd,
		&UltrasoundCmd,
		&BuzzCmd,
	)
}
