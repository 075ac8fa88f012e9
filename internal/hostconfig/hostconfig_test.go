package hostconfig

import "testing"

func TestResolveURLForm(t *testing.T) {
	host, err := Resolve("ssh://alice@login.cx3.hpc.ic.ac.uk:2222")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if host.User != "alice" {
		t.Errorf("User = %q, want alice", host.User)
	}
	if host.Address != "login.cx3.hpc.ic.ac.uk" {
		t.Errorf("Address = %q", host.Address)
	}
	if host.Port != 2222 {
		t.Errorf("Port = %d, want 2222", host.Port)
	}
	if host.Addr() != "login.cx3.hpc.ic.ac.uk:2222" {
		t.Errorf("Addr() = %q", host.Addr())
	}
}

func TestIsConnectionError(t *testing.T) {
	cases := []struct {
		msg  string
		want bool
	}{
		{"dial tcp: connection refused", true},
		{"dial tcp: i/o timeout", true},
		{"ssh: handshake failed: no route to host", true},
		{"ssh: handshake failed: permission denied", false},
		{"ssh: unable to authenticate", false},
	}
	for _, tc := range cases {
		if got := IsConnectionError(tc.msg); got != tc.want {
			t.Errorf("IsConnectionError(%q) = %v, want %v", tc.msg, got, tc.want)
		}
	}
}

func TestExpandTilde(t *testing.T) {
	if got := expandTilde("/abs/path"); got != "/abs/path" {
		t.Errorf("expandTilde(abs) = %q", got)
	}
	home := expandTilde("~/foo")
	if home == "~/foo" {
		t.Error("expected ~ to be expanded")
	}
}
