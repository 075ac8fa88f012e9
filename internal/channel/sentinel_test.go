package channel

import (
	"reflect"
	"testing"
)

func TestParseSentinelOutputSuccess(t *testing.T) {
	cmd := "ls /tmp"
	lines := []string{
		"user@host$ ls /tmp",
		"ls /tmp",
		"a.txt",
		"b.txt",
		"end of stdOUT buffer. finished with exit status 0",
	}

	stdout, stderr, exit, err := parseSentinelOutput(lines, cmd)
	if err != nil {
		t.Fatalf("parseSentinelOutput: %v", err)
	}
	if exit != 0 {
		t.Errorf("exit = %d, want 0", exit)
	}
	if stderr != nil {
		t.Errorf("expected nil stderr on success, got %v", stderr)
	}
	want := []string{"a.txt", "b.txt"}
	if !reflect.DeepEqual(stdout, want) {
		t.Errorf("stdout = %v, want %v", stdout, want)
	}
}

func TestParseSentinelOutputNonZeroExitSwapsStreams(t *testing.T) {
	cmd := "false-cmd"
	lines := []string{
		"false-cmd",
		"some error text",
		"end of stdOUT buffer. finished with exit status 1",
	}

	stdout, stderr, exit, err := parseSentinelOutput(lines, cmd)
	if err != nil {
		t.Fatalf("parseSentinelOutput: %v", err)
	}
	if exit != 1 {
		t.Errorf("exit = %d, want 1", exit)
	}
	if stdout != nil {
		t.Errorf("expected nil stdout on failure, got %v", stdout)
	}
	want := []string{"some error text"}
	if !reflect.DeepEqual(stderr, want) {
		t.Errorf("stderr = %v, want %v", stderr, want)
	}
}

func TestParseSentinelOutputMissingSentinel(t *testing.T) {
	lines := []string{"cmd", "some output, no fencing line"}
	if _, _, _, err := parseSentinelOutput(lines, "cmd"); err == nil {
		t.Error("expected error when sentinel line is absent")
	}
}

func TestExtractExitCode(t *testing.T) {
	tests := []struct {
		line    string
		want    int
		wantErr bool
	}{
		{"end of stdOUT buffer. finished with exit status 0", 0, false},
		{"end of stdOUT buffer. finished with exit status 159", 159, false},
		{"end of stdOUT buffer. finished with exit status 38", 38, false},
		{"", 0, true},
		{"garbage with no number at all here", 0, true},
	}
	for _, tt := range tests {
		got, err := extractExitCode(tt.line)
		if (err != nil) != tt.wantErr {
			t.Errorf("extractExitCode(%q) error = %v, wantErr %v", tt.line, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("extractExitCode(%q) = %d, want %d", tt.line, got, tt.want)
		}
	}
}

func TestExecuteRejectsEmptyCommand(t *testing.T) {
	c := NewLocalChannel(nil, nopLogger())
	if _, err := c.Execute(nil, ""); err == nil { //nolint:staticcheck // nil ctx fine pre-exec check
		t.Error("expected error for empty command")
	}
}
