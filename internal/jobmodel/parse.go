package jobmodel

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var memoryPattern = regexp.MustCompile(`^(\d+)([kmg]?b)?$`)

var memoryScale = map[string]int64{
	"":   1,
	"b":  1,
	"kb": 1_000,
	"mb": 1_000_000,
	"gb": 1_000_000_000,
}

// ParseMemory parses a PBS-style memory quantity such as "1000kb" or
// "1000mb" into a byte count. A bare number is taken as bytes. Unrecognized
// input is an error.
func ParseMemory(s string) (int64, error) {
	m := memoryPattern.FindStringSubmatch(strings.ToLower(strings.TrimSpace(s)))
	if m == nil {
		return 0, fmt.Errorf("parse memory %q: unrecognized format", s)
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse memory %q: %w", s, err)
	}
	scale, ok := memoryScale[m[2]]
	if !ok {
		return 0, fmt.Errorf("parse memory %q: unrecognized unit %q", s, m[2])
	}
	return n * scale, nil
}

// ParseWalltime parses a PBS-style "HH:MM:SS" duration.
func ParseWalltime(s string) (time.Duration, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("parse walltime %q: expected HH:MM:SS", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("parse walltime %q: %w", s, err)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("parse walltime %q: %w", s, err)
	}
	sec, err := strconv.Atoi(parts[2])
	if err != nil {
		return 0, fmt.Errorf("parse walltime %q: %w", s, err)
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(sec)*time.Second, nil
}

// ctimeLayout matches PBS's ctime-style timestamps, e.g.
// "Mon Jan 2 15:04:05 2006" ("%a %b %d %H:%M:%S %Y").
const ctimeLayout = "Mon Jan 2 15:04:05 2006"

// ParseDateTime accepts either ISO-8601 (RFC3339 and the bare
// "2006-01-02T15:04:05" form) or PBS's ctime-style layout, matching the
// two formats the original source's parse_datetime tries in order.
func ParseDateTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(ctimeLayout, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("parse datetime %q: unrecognized format", s)
}
