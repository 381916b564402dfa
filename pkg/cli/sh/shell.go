// Package sh is the interactive board console used on the bench: discover
// the connected boards, poke their outputs, read their sensors.
package sh

import (
	"context"
	"flag"
	"fmt"
	"log"
	"sort"

	"github.com/abiosoft/ishell"

	"github.com/sourcebots/sbot.go/pkg/board"
	"github.com/sourcebots/sbot.go/pkg/channel"
	"github.com/sourcebots/sbot.go/pkg/config"
)

// Shell provides ishell backed interactive shell over the board registry.
type Shell struct {
	Interactive bool
	Config      config.Config

	Shell    *ishell.Shell
	registry *board.Registry
}

const (
	shellKey = "$shell"
	prompt   = "sbot> "
)

var (
	// flags

	evalOnly bool

	// commands
	commands = []*ishell.Cmd{
		&DiscoverCmd,
		&BoardsCmd,
		&SafeCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
}

// AddCmds is used by other command providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(cfg config.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		Config:      cfg,
		Shell:       ishell.New(),
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(prompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeDiscovered wraps a command func that needs discovered boards.
func MustBeDiscovered(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).registry == nil {
			c.Err(fmt.Errorf("no boards; run discover first"))
			return
		}
		fn(c)
	}
}

// Registry returns the boards found by the last discover.
func (s *Shell) Registry() *board.Registry {
	return s.registry
}

// Discover probes the serial ports and replaces the registry. Previously
// held channels are closed first.
func (s *Shell) Discover() error {
	mp := s.Config.ManualPorts
	manual := make(map[board.Type][]string)
	for t, paths := range map[board.Type][]string{
		board.Power:   mp.Power,
		board.Motor:   mp.Motor,
		board.Servo:   mp.Servo,
		board.Arduino: mp.Arduino,
	} {
		if len(paths) > 0 {
			manual[t] = paths
		}
	}
	registry, err := board.Discover(context.Background(), board.DiscoverOptions{
		Channel: channel.Options{
			Timeout:  s.Config.CommandTimeout.Duration,
			Attempts: s.Config.Attempts,
		},
		Baud:        s.Config.Baud,
		ManualPorts: manual,
	})
	if err != nil {
		return err
	}
	if s.registry != nil {
		s.registry.CloseAll()
	}
	s.registry = registry
	return nil
}

// Close releases the registry's channels.
func (s *Shell) Close() {
	if s.registry != nil {
		s.registry.CloseAll()
		s.registry = nil
	}
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if err := s.Discover(); err != nil {
		log.Fatalf("discover failed: %v", err)
	}
	defer s.Close()

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

func formatBoard(b board.Board) string {
	id := b.Identity()
	return fmt.Sprintf("%-8s %-10s fw %s", b.Type(), id.AssetTag, id.SWVersion)
}

var (
	// DiscoverCmd re-probes the serial ports.
	DiscoverCmd = ishell.Cmd{
		Name:    "discover",
		Aliases: []string{"list", "l"},
		Help:    "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			if err := s.Discover(); err != nil {
				c.Err(err)
				return
			}
			c.Printf("%d board(s) found\n", s.registry.Len())
		},
	}

	// BoardsCmd lists the discovered boards.
	BoardsCmd = ishell.Cmd{
		Name:    "boards",
		Aliases: []string{"b"},
		Help:    "",
		Func: MustBeDiscovered(func(c *ishell.Context) {
			boards := ShellFrom(c).registry.All()
			if len(boards) == 0 {
				c.Println("No boards found")
				return
			}
			lines := make([]string, len(boards))
			for n, b := range boards {
				lines[n] = formatBoard(b)
			}
			sort.Strings(lines)
			for _, line := range lines {
				c.Println(line)
			}
		}),
	}

	// SafeCmd makes every board safe.
	SafeCmd = ishell.Cmd{
		Name: "safe",
		Help: "",
		Func: MustBeDiscovered(func(c *ishell.Context) {
			ShellFrom(c).registry.MakeSafeAll(context.Background())
			c.Println("OK")
		}),
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalln(err)
	}
	New(cfg).Run(flag.Args()...)
}
