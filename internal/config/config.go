// Package config loads the tool's on-disk YAML configuration: per-host
// connection settings and the sweep/quota-watch tuning parameters.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so it can be written as "1h30m" in YAML
// instead of a raw nanosecond count.
type Duration time.Duration

// UnmarshalYAML accepts either a duration string ("1h") or a bare number
// of nanoseconds.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		if ns, err := strconv.ParseInt(s, 10, 64); err == nil {
			*d = Duration(ns)
			return nil
		}
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("parse duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var ns int64
	if err := value.Decode(&ns); err != nil {
		return fmt.Errorf("duration must be a string or number: %w", err)
	}
	*d = Duration(ns)
	return nil
}

// HostEntry is one configured remote host.
type HostEntry struct {
	Alias   string `yaml:"alias"`
	Address string `yaml:"address"`
	User    string `yaml:"user,omitempty"`
	Port    int    `yaml:"port,omitempty"`
	KeyPath string `yaml:"key_path,omitempty"`
}

// Sweep holds the reconciliation engine's tuning knobs.
type Sweep struct {
	Interval         Duration `yaml:"interval"`
	Threshold        float64  `yaml:"threshold"`
	ExpectedWalltime Duration `yaml:"expected_walltime"`
	SafeBuffer       float64  `yaml:"safe_buffer"`
	ContinueOnRerun  bool     `yaml:"continue_on_rerun"`
}

// Quota holds the storage-quota watcher's tuning knobs.
type Quota struct {
	Interval  Duration `yaml:"interval"`
	Threshold float64  `yaml:"threshold"`
}

// Config holds application configuration.
type Config struct {
	// DefaultCommand is the command to run when no arguments are provided.
	DefaultCommand string `yaml:"default_command"`

	// DefaultHost is read from the config file but no command consults it:
	// every scheduler-talking command still requires --host.
	DefaultHost string `yaml:"default_host"`

	Hosts []HostEntry `yaml:"hosts"`
	Sweep Sweep       `yaml:"sweep"`
	Quota Quota       `yaml:"quota"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		DefaultCommand: "status",
		Sweep: Sweep{
			Interval:         Duration(time.Hour),
			Threshold:        95,
			ExpectedWalltime: Duration(72 * time.Hour),
			SafeBuffer:       1.5,
		},
		Quota: Quota{
			Interval:  Duration(6 * time.Hour),
			Threshold: 85,
		},
	}
}

// Host looks up a configured host by alias.
func (c *Config) Host(alias string) (HostEntry, bool) {
	for _, h := range c.Hosts {
		if h.Alias == alias {
			return h, true
		}
	}
	return HostEntry{}, false
}

var configPath string

func init() {
	home, err := os.UserHomeDir()
	if err != nil {
		return
	}
	configPath = filepath.Join(home, ".config", "remote-jobs", "config.yaml")
}

// ConfigPath returns the path to the config file.
func ConfigPath() string {
	return configPath
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	if configPath == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", configPath, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", configPath, err)
	}

	return cfg, nil
}
