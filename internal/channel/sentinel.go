package channel

import (
	"fmt"
	"strconv"
	"strings"
)

// sentinelMarker is the literal string the interactive shell fencing looks
// for. It is deliberately unlikely to appear in ordinary command output.
const sentinelMarker = "end of stdOUT buffer. finished with exit status"

// sentinelEcho is the command written after the caller's command to fence
// its output and recover its exit status from an interactive, non-scripted
// shell that otherwise gives no reliable end-of-output signal.
func sentinelEcho() string {
	return fmt.Sprintf(`echo "%s" $?`, sentinelMarker)
}

// parseSentinelOutput splits raw lines captured from an interactive shell
// session into (stdout lines, exit code), per the fencing contract in
// §4.1: lines up to and including the first echo of cmd are prompt junk and
// are discarded; the line containing sentinelMarker carries the exit code
// and is not itself output; stdout lines after that are reinterpreted as
// stderr whenever the exit code is non-zero, since an interactive channel
// does not expose stderr as a separate stream.
func parseSentinelOutput(lines []string, cmd string) (stdout, stderr []string, exit int, err error) {
	// Skip leading prompt/echo junk: anything up to and including the first
	// line that is exactly the echoed command.
	start := 0
	for i, line := range lines {
		if strings.TrimSpace(line) == strings.TrimSpace(cmd) {
			start = i + 1
			break
		}
	}

	sentinelIdx := -1
	for i := start; i < len(lines); i++ {
		if strings.Contains(lines[i], sentinelMarker) {
			sentinelIdx = i
			break
		}
	}
	if sentinelIdx == -1 {
		return nil, nil, 0, fmt.Errorf("parse sentinel output: sentinel not found in captured output")
	}

	exit, err = extractExitCode(lines[sentinelIdx])
	if err != nil {
		return nil, nil, 0, err
	}

	body := lines[start:sentinelIdx]
	if exit != 0 {
		return nil, body, exit, nil
	}
	return body, nil, exit, nil
}

// extractExitCode pulls the trailing "$?" value off the sentinel echo line,
// which looks like: `end of stdOUT buffer. finished with exit status 0`.
func extractExitCode(sentinelLine string) (int, error) {
	fields := strings.Fields(sentinelLine)
	if len(fields) == 0 {
		return 0, fmt.Errorf("extract exit code: empty sentinel line")
	}
	last := fields[len(fields)-1]
	code, err := strconv.Atoi(last)
	if err != nil {
		return 0, fmt.Errorf("extract exit code from %q: %w", sentinelLine, err)
	}
	return code, nil
}
