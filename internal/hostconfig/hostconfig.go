// Package hostconfig resolves a cluster alias into a dialable SSH endpoint
// and credential set, reading the user's `~/.ssh/config` the way an
// interactive `ssh` invocation would, and is reusable by every component
// that needs a channel.Channel over SSH.
package hostconfig

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/kevinburke/ssh_config"
)

// Host is a fully-resolved SSH endpoint, ready to dial.
type Host struct {
	Alias      string
	Address    string
	Port       int
	User       string
	KeyPath    string
	ForcePassword bool
}

// EnvSSHConfig overrides the default `~/.ssh/config` path when set.
const EnvSSHConfig = "SSH_CONFIG"

// Resolve builds a Host by looking up alias in the user's SSH config,
// honoring the URL form `ssh://user@host[:port]` as a shortcut that
// bypasses config lookup entirely.
func Resolve(alias string) (Host, error) {
	if strings.HasPrefix(alias, "ssh://") {
		return resolveURL(alias)
	}

	cfg, err := loadConfig()
	if err != nil {
		return Host{}, fmt.Errorf("resolve host %q: %w", alias, err)
	}

	get := func(key string) string {
		if cfg != nil {
			if v, err := cfg.Get(alias, key); err == nil {
				return v
			}
			return ""
		}
		return ssh_config.Get(alias, key)
	}

	host := Host{Alias: alias}
	host.Address = get("HostName")
	if host.Address == "" {
		host.Address = alias
	}
	host.User = get("User")
	if host.User == "" {
		if u, err := currentUser(); err == nil {
			host.User = u
		}
	}
	host.Port = 22
	if p := get("Port"); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			host.Port = n
		}
	}
	if k := get("IdentityFile"); k != "" {
		host.KeyPath = expandTilde(k)
	}
	return host, nil
}

func resolveURL(raw string) (Host, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Host{}, fmt.Errorf("parse ssh url %q: %w", raw, err)
	}
	host := Host{Alias: u.Host, Address: u.Hostname(), Port: 22}
	if u.Port() != "" {
		if n, err := strconv.Atoi(u.Port()); err == nil {
			host.Port = n
		}
	}
	if u.User != nil {
		host.User = u.User.Username()
		if pw, ok := u.User.Password(); ok {
			_ = pw // URL-embedded passwords are accepted but never logged.
			host.ForcePassword = true
		}
	}
	return host, nil
}

func loadConfig() (*ssh_config.Config, error) {
	path := os.Getenv(EnvSSHConfig)
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	cfg, err := ssh_config.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func expandTilde(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return home + strings.TrimPrefix(path, "~")
}

func currentUser() (string, error) {
	if u := os.Getenv("USER"); u != "" {
		return u, nil
	}
	return "", fmt.Errorf("USER not set")
}

// Addr returns the host:port dial target.
func (h Host) Addr() string {
	return fmt.Sprintf("%s:%d", h.Address, h.Port)
}
