// Package config loads the optional robot.toml tuning file. Every field
// has a default, so robots without a config file run unchanged.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/golang/glog"
)

// EnvPath names the config file to load. Unset means defaults only.
const EnvPath = "SBOT_CONFIG"

// Duration parses TOML strings like "500ms" or "2m".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// ManualPorts names serial devices to probe in addition to USB
// enumeration, for boards behind adapters the enumerator cannot classify.
type ManualPorts struct {
	Power   []string `toml:"power"`
	Motor   []string `toml:"motor"`
	Servo   []string `toml:"servo"`
	Arduino []string `toml:"arduino"`
}

// Config is the robot's tuning surface.
type Config struct {
	// CommandTimeout bounds each serial exchange.
	CommandTimeout Duration `toml:"command_timeout"`
	// Attempts is the total number of tries per command, first included.
	Attempts int `toml:"attempts"`
	// Baud applies to every board's serial port.
	Baud int `toml:"baud"`
	// MatchDuration is how long a competition match runs before the
	// robot is forcibly stopped.
	MatchDuration Duration `toml:"match_duration"`
	// BrokerURL enables telemetry when non-empty, e.g. "tcp://host:1883".
	BrokerURL string `toml:"broker_url"`

	ManualPorts ManualPorts `toml:"manual_ports"`
}

// Default returns the values competition robots run with.
func Default() Config {
	return Config{
		CommandTimeout: Duration{500 * time.Millisecond},
		Attempts:       3,
		Baud:           115200,
		MatchDuration:  Duration{120 * time.Second},
	}
}

// Load overlays the TOML file at path on the defaults. A named file that
// does not exist is an error; only the env var being unset is optional.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("config: %s: unknown key %q", path, undecoded[0].String())
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// FromEnv loads the file named by EnvPath, or the defaults when unset.
func FromEnv() (Config, error) {
	path, ok := os.LookupEnv(EnvPath)
	if !ok || path == "" {
		return Default(), nil
	}
	glog.V(1).Infof("config: loading %s", path)
	return Load(path)
}

func (c Config) validate() error {
	if c.CommandTimeout.Duration <= 0 {
		return errors.New("command_timeout must be positive")
	}
	if c.Attempts < 1 {
		return errors.New("attempts must be at least 1")
	}
	if c.Baud <= 0 {
		return errors.New("baud must be positive")
	}
	if c.MatchDuration.Duration <= 0 {
		return errors.New("match_duration must be positive")
	}
	return nil
}
