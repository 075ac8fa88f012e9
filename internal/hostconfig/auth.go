package hostconfig

import (
	"fmt"
	"net"
	"os"
	"path/filepath"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
	"golang.org/x/term"
)

// AuthMethods builds the ordered list of auth methods to try for h: an
// SSH agent when SSH_AUTH_SOCK is set, then a private key file if one is
// configured, falling back to an interactive password prompt unless
// disallowPassword is set (e.g. non-interactive service contexts).
func AuthMethods(h Host, disallowPassword bool) ([]ssh.AuthMethod, error) {
	var methods []ssh.AuthMethod

	if sock := os.Getenv("SSH_AUTH_SOCK"); sock != "" {
		if conn, err := net.Dial("unix", sock); err == nil {
			methods = append(methods, ssh.PublicKeysCallback(agent.NewClient(conn).Signers))
		}
	}

	if h.KeyPath != "" {
		if key, err := os.ReadFile(h.KeyPath); err == nil {
			if signer, err := ssh.ParsePrivateKey(key); err == nil {
				methods = append(methods, ssh.PublicKeys(signer))
			}
		}
	}

	if !disallowPassword {
		methods = append(methods, ssh.PasswordCallback(func() (string, error) {
			return promptPassword(h)
		}))
	}

	if len(methods) == 0 {
		return nil, fmt.Errorf("no usable auth method for host %q (no agent, no key, password disallowed)", h.Alias)
	}
	return methods, nil
}

func promptPassword(h Host) (string, error) {
	fmt.Printf("Password for %s@%s: ", h.User, h.Address)
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(pw), nil
}

// HostKeyCallback builds a host-key verification callback against the
// user's known_hosts file. insecure bypasses verification entirely, for
// explicit first-contact opt-outs; it must never be the default.
func HostKeyCallback(insecure bool) (ssh.HostKeyCallback, error) {
	if insecure {
		return ssh.InsecureIgnoreHostKey(), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve known_hosts: %w", err)
	}
	path := filepath.Join(home, ".ssh", "known_hosts")
	cb, err := knownhosts.New(path)
	if err != nil {
		return nil, fmt.Errorf("load known_hosts %s: %w", path, err)
	}
	return cb, nil
}
