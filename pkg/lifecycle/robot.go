// Package lifecycle assembles the discovered boards into a robot and
// walks it through its states: discovery, the start gate, the match and
// the guaranteed make-safe shutdown.
package lifecycle

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/golang/glog"
	"github.com/looplab/fsm"

	"github.com/sourcebots/sbot.go/pkg/board"
	"github.com/sourcebots/sbot.go/pkg/channel"
	"github.com/sourcebots/sbot.go/pkg/config"
	"github.com/sourcebots/sbot.go/pkg/metadata"
	"github.com/sourcebots/sbot.go/pkg/telemetry"
)

// Robot states.
const (
	StateInit          = "init"
	StateDiscovering   = "discovering"
	StateAwaitingStart = "awaiting_start"
	StateRunning       = "running"
	StateStopping      = "stopping"
	StateStopped       = "stopped"
)

const (
	eventDiscover = "discover"
	eventReady    = "ready"
	eventStart    = "start"
	eventStop     = "stop"
	eventStopped  = "stopped"
)

// readyBeepHz is A6, the note the robot sounds once it is ready to start.
const readyBeepHz = 1760

const defaultPollInterval = 100 * time.Millisecond

// Options configures robot construction. The zero value uses the config
// defaults and blocks at the start gate.
type Options struct {
	Config config.Config
	// SkipWaitStart returns from New without blocking at the start gate;
	// call WaitStart when ready.
	SkipWaitStart bool

	// test seams
	discover func(context.Context, board.DiscoverOptions) (*board.Registry, error)
	lock     func() (io.Closer, error)
	exit     func(int)
}

// Robot owns the boards and the match state machine.
type Robot struct {
	machine  *fsm.FSM
	registry *board.Registry
	store    metadata.Store
	clock    *MatchClock
	telem    *telemetry.Client

	lock     io.Closer
	exit     func(int)
	stopOnce sync.Once

	pollInterval time.Duration
}

// New acquires the instance lock, discovers the boards, powers them up
// and, unless opts.SkipWaitStart is set, blocks until the start signal.
func New(ctx context.Context, opts Options) (*Robot, error) {
	cfg := withDefaults(opts.Config)
	lockFn := opts.lock
	if lockFn == nil {
		lockFn = acquireInstanceLock
	}
	lock, err := lockFn()
	if err != nil {
		return nil, err
	}

	r := &Robot{
		clock:        NewMatchClock(cfg.MatchDuration.Duration),
		lock:         lock,
		exit:         opts.exit,
		pollInterval: defaultPollInterval,
	}
	if r.exit == nil {
		r.exit = os.Exit
	}
	r.machine = fsm.NewFSM(StateInit, fsm.Events{
		{Name: eventDiscover, Src: []string{StateInit}, Dst: StateDiscovering},
		{Name: eventReady, Src: []string{StateDiscovering}, Dst: StateAwaitingStart},
		{Name: eventStart, Src: []string{StateAwaitingStart}, Dst: StateRunning},
		{Name: eventStop, Src: []string{StateInit, StateDiscovering, StateAwaitingStart, StateRunning}, Dst: StateStopping},
		{Name: eventStopped, Src: []string{StateStopping}, Dst: StateStopped},
	}, fsm.Callbacks{
		"enter_state": func(_ context.Context, e *fsm.Event) {
			glog.V(1).Infof("lifecycle: %s -> %s", e.Src, e.Dst)
		},
	})

	if r.telem, err = telemetry.New(cfg.BrokerURL); err != nil {
		glog.Warningf("lifecycle: telemetry disabled: %v", err)
		r.telem = nil
	}
	if err := r.telem.Connect(); err != nil {
		// telemetry never blocks the robot
		glog.Warningf("lifecycle: telemetry connect: %v", err)
		r.telem = nil
	}

	// a failed construction must not leave the lock held or channels open
	fail := func(err error) (*Robot, error) {
		if r.registry != nil {
			r.registry.CloseAll()
		}
		r.telem.Close()
		lock.Close()
		return nil, err
	}

	if err := r.machine.Event(ctx, eventDiscover); err != nil {
		return fail(err)
	}
	discover := opts.discover
	if discover == nil {
		discover = board.Discover
	}
	r.registry, err = discover(ctx, board.DiscoverOptions{
		Channel: channel.Options{
			Timeout:  cfg.CommandTimeout.Duration,
			Attempts: cfg.Attempts,
		},
		Baud:        cfg.Baud,
		ManualPorts: manualPorts(cfg.ManualPorts),
	})
	if err != nil {
		return fail(err)
	}
	glog.Infof("lifecycle: %d board(s) found", r.registry.Len())
	r.telem.Publish("discovered", map[string]any{"boards": r.registry.Len()})

	r.powerUp(ctx)
	if err := r.machine.Event(ctx, eventReady); err != nil {
		return fail(err)
	}
	if opts.SkipWaitStart {
		return r, nil
	}
	if err := r.WaitStart(ctx); err != nil {
		return fail(err)
	}
	return r, nil
}

// withDefaults fills unset tunables without touching the fields the
// caller did set.
func withDefaults(cfg config.Config) config.Config {
	def := config.Default()
	if cfg.CommandTimeout.Duration == 0 {
		cfg.CommandTimeout = def.CommandTimeout
	}
	if cfg.Attempts == 0 {
		cfg.Attempts = def.Attempts
	}
	if cfg.Baud == 0 {
		cfg.Baud = def.Baud
	}
	if cfg.MatchDuration.Duration == 0 {
		cfg.MatchDuration = def.MatchDuration
	}
	return cfg
}

func manualPorts(mp config.ManualPorts) map[board.Type][]string {
	ports := make(map[board.Type][]string)
	for t, paths := range map[board.Type][]string{
		board.Power:   mp.Power,
		board.Motor:   mp.Motor,
		board.Servo:   mp.Servo,
		board.Arduino: mp.Arduino,
	} {
		if len(paths) > 0 {
			ports[t] = paths
		}
	}
	return ports
}

// powerBoards lists every discovered power board. The lifecycle drives
// all of them; the singular accessor is for user code.
func (r *Robot) powerBoards() []*board.PowerBoard {
	var powers []*board.PowerBoard
	for _, b := range r.registry.OfType(board.Power) {
		powers = append(powers, b.(*board.PowerBoard))
	}
	return powers
}

// powerUp enables the outputs and sets the run LED flashing on every
// power board, and sounds the ready beep. Failures are logged; a robot
// without a power board still runs its other boards.
func (r *Robot) powerUp(ctx context.Context) {
	powers := r.powerBoards()
	if len(powers) == 0 {
		glog.Warning("lifecycle: no power board")
		return
	}
	for _, power := range powers {
		if err := power.EnableOutputs(ctx); err != nil {
			glog.Errorf("lifecycle: enable outputs: %v", err)
		}
		if err := power.SetRunLED(ctx, board.LEDFlash); err != nil {
			glog.Warningf("lifecycle: run LED: %v", err)
		}
	}
	if err := powers[0].Buzz(ctx, 100*time.Millisecond, readyBeepHz); err != nil {
		glog.Warningf("lifecycle: ready beep: %v", err)
	}
}

// Boards exposes the discovered boards.
func (r *Robot) Boards() *board.Registry { return r.registry }

// State reports the current lifecycle state.
func (r *Robot) State() string { return r.machine.Current() }

// MatchClock reports match timing; unstarted before the start signal.
func (r *Robot) MatchClock() *MatchClock { return r.clock }

// Metadata returns the match metadata, or metadata.ErrNotReady before the
// start signal.
func (r *Robot) Metadata() (metadata.Metadata, error) { return r.store.Get() }

// WaitStart blocks until a start button press (physical or remote), then
// loads the match metadata and latches the match clock. In competition
// mode it also arms the match timer, which forces shutdown and process
// exit when it expires regardless of what user code is doing.
func (r *Robot) WaitStart(ctx context.Context) error {
	if r.State() != StateAwaitingStart {
		return fmt.Errorf("lifecycle: cannot wait for start in state %s", r.State())
	}
	powers := r.powerBoards()
	if len(powers) == 0 {
		glog.Warning("lifecycle: no physical start button")
	}

	// clear presses latched before the gate
	for _, power := range powers {
		if _, err := power.StartButton(ctx); err != nil {
			glog.Warningf("lifecycle: start button: %v", err)
		}
	}
	r.telem.StartPressed()

	glog.Info("lifecycle: waiting for start signal")
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()
	for !r.startSignalled(ctx, powers) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}

	for _, power := range powers {
		if err := power.SetRunLED(ctx, board.LEDOn); err != nil {
			glog.Warningf("lifecycle: run LED: %v", err)
		}
	}
	md, err := metadata.Load()
	if err != nil {
		return err
	}
	r.store.Set(md)
	r.clock.Start()
	if md.IsCompetition {
		r.armMatchTimer()
	}
	r.telem.Publish("start", map[string]any{
		"competition": md.IsCompetition,
		"zone":        md.Zone,
	})
	glog.Infof("lifecycle: match started (competition=%v zone=%d)", md.IsCompetition, md.Zone)
	return r.machine.Event(ctx, eventStart)
}

func (r *Robot) startSignalled(ctx context.Context, powers []*board.PowerBoard) bool {
	if r.telem.StartPressed() {
		return true
	}
	for _, power := range powers {
		pressed, err := power.StartButton(ctx)
		if err != nil {
			glog.Warningf("lifecycle: start button: %v", err)
			continue
		}
		if pressed {
			return true
		}
	}
	return false
}

// armMatchTimer schedules the forced end of the match. It never depends
// on user code observing anything: when it fires the boards are made safe
// and the process exits.
func (r *Robot) armMatchTimer() {
	duration := r.clock.Duration()
	time.AfterFunc(duration, func() {
		glog.Infof("lifecycle: match over after %v", duration)
		r.Shutdown()
		r.exit(0)
	})
}

// Shutdown makes every board safe, actuators first and the power board
// last, then releases everything. It is idempotent and never fails; all
// teardown errors are aggregated and logged.
func (r *Robot) Shutdown() {
	r.stopOnce.Do(func() {
		ctx := context.Background()
		if err := r.machine.Event(ctx, eventStop); err != nil {
			glog.V(1).Infof("lifecycle: %v", err)
		}
		glog.Info("lifecycle: making boards safe")
		r.registry.MakeSafeAll(ctx)

		var errs TeardownError
		errs.add(r.registry.CloseAll())
		r.telem.Publish("stop", nil)
		errs.add(r.telem.Close())
		errs.add(r.lock.Close())
		if err := errs.orNil(); err != nil {
			glog.Errorf("lifecycle: shutdown: %v", err)
		}
		if err := r.machine.Event(ctx, eventStopped); err != nil {
			glog.V(1).Infof("lifecycle: %v", err)
		}
		glog.Info("lifecycle: stopped")
	})
}

// HandleSignals routes SIGINT/SIGTERM into Shutdown. A second signal
// forces exit without waiting for teardown.
func (r *Robot) HandleSignals() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		glog.Info("lifecycle: stop requested")
		go func() {
			r.Shutdown()
			r.exit(0)
		}()
		<-sigCh
		glog.Error("lifecycle: stop requested again, force exit")
		r.exit(1)
	}()
}
