package config

import (
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestDurationUnmarshalString(t *testing.T) {
	var cfg struct {
		D Duration `yaml:"d"`
	}
	if err := yaml.Unmarshal([]byte("d: 90m"), &cfg); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if time.Duration(cfg.D) != 90*time.Minute {
		t.Errorf("D = %v, want 90m", time.Duration(cfg.D))
	}
}

func TestDurationUnmarshalInvalid(t *testing.T) {
	var cfg struct {
		D Duration `yaml:"d"`
	}
	if err := yaml.Unmarshal([]byte("d: not-a-duration"), &cfg); err == nil {
		t.Fatal("expected error for invalid duration string")
	}
}

func TestConfigHostLookup(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Hosts = []HostEntry{{Alias: "hx", Address: "login.hx.ic.ac.uk"}}
	h, ok := cfg.Host("hx")
	if !ok {
		t.Fatal("expected host hx to be found")
	}
	if h.Address != "login.hx.ic.ac.uk" {
		t.Errorf("Address = %q", h.Address)
	}
	if _, ok := cfg.Host("missing"); ok {
		t.Error("expected missing host lookup to fail")
	}
}

func TestDefaultConfigSweepValues(t *testing.T) {
	cfg := DefaultConfig()
	if time.Duration(cfg.Sweep.Interval) != time.Hour {
		t.Errorf("Sweep.Interval = %v, want 1h", time.Duration(cfg.Sweep.Interval))
	}
	if cfg.Sweep.Threshold != 95 {
		t.Errorf("Sweep.Threshold = %v, want 95", cfg.Sweep.Threshold)
	}
}
