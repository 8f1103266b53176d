// Package timeparse normalizes user-supplied check-in times. Input is
// either a strict 24-hour clock time or a relative interval which is
// resolved against the supplied wall-clock time.
package timeparse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/kylemclaren/devcoach/internal/errs"
)

const usage = "use <HH:MM> or an interval like 30m, 2h or 1h 30m"

var (
	clockRe    = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)$`)
	intervalRe = regexp.MustCompile(`^(?:(\d+)h)?\s*(?:(\d+)m)?$`)
)

// Parse converts input into a canonical zero-padded "HH:MM" time of
// day. A valid "HH:MM" passes through unchanged; intervals ("2h",
// "30m", "1h 30m") are added to now and wrap across midnight. The
// returned error is always a validation error.
func Parse(input string, now time.Time) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", errs.Validationf("time input is required; %s", usage)
	}

	if clockRe.MatchString(input) {
		return input, nil
	}

	m := intervalRe.FindStringSubmatch(input)
	if m == nil || (m[1] == "" && m[2] == "") {
		return "", errs.Validationf("invalid time %q; %s", input, usage)
	}

	hours, err := atoiDefault(m[1])
	if err != nil {
		return "", errs.Validationf("invalid hours in %q; %s", input, usage)
	}
	minutes, err := atoiDefault(m[2])
	if err != nil {
		return "", errs.Validationf("invalid minutes in %q; %s", input, usage)
	}

	if hours == 0 && minutes == 0 {
		return "", errs.Validationf("interval must be greater than zero; %s", usage)
	}
	if hours > 24 {
		return "", errs.Validationf("hours must be 24 or less, got %d", hours)
	}
	if minutes > 59 {
		return "", errs.Validationf("minutes must be 59 or less, got %d", minutes)
	}

	at := now.Add(time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute)
	return fmt.Sprintf("%02d:%02d", at.Hour(), at.Minute()), nil
}

// Components splits a canonical "HH:MM" string into hour and minute.
func Components(canonical string) (hour, minute int, err error) {
	m := clockRe.FindStringSubmatch(canonical)
	if m == nil {
		return 0, 0, errs.Validationf("invalid canonical time %q", canonical)
	}
	hour, _ = strconv.Atoi(m[1])
	minute, _ = strconv.Atoi(m[2])
	return hour, minute, nil
}

func atoiDefault(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
