package ics

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var errBadDuration = errors.New("malformed duration")

// icsDuration is a DURATION value. Days and weeks are nominal (calendar
// days, which keep the wall clock across DST switches); the time part is
// exact.
type icsDuration struct {
	negative bool
	days     int
	clock    time.Duration
}

func (d icsDuration) addTo(t time.Time) time.Time {
	if d.negative {
		return t.AddDate(0, 0, -d.days).Add(-d.clock)
	}
	return t.AddDate(0, 0, d.days).Add(d.clock)
}

// parseICSDuration reads values such as P1W, P2D, PT1H30M, -PT15M or
// P1DT12H.
func parseICSDuration(s string) (icsDuration, error) {
	var d icsDuration
	v := strings.ToUpper(strings.TrimSpace(s))
	switch {
	case strings.HasPrefix(v, "-"):
		d.negative = true
		v = v[1:]
	case strings.HasPrefix(v, "+"):
		v = v[1:]
	}
	if !strings.HasPrefix(v, "P") || len(v) == 1 {
		return d, fmt.Errorf("%w: %q", errBadDuration, s)
	}
	v = v[1:]

	inTime, seen := false, false
	for len(v) > 0 {
		if v[0] == 'T' {
			if inTime || len(v) == 1 {
				return d, fmt.Errorf("%w: %q", errBadDuration, s)
			}
			inTime = true
			v = v[1:]
			continue
		}
		i := 0
		for i < len(v) && v[i] >= '0' && v[i] <= '9' {
			i++
		}
		if i == 0 || i == len(v) {
			return d, fmt.Errorf("%w: %q", errBadDuration, s)
		}
		n, err := strconv.Atoi(v[:i])
		if err != nil {
			return d, fmt.Errorf("%w: %q", errBadDuration, s)
		}
		unit := v[i]
		v = v[i+1:]
		seen = true

		switch {
		case !inTime && unit == 'W':
			d.days += 7 * n
		case !inTime && unit == 'D':
			d.days += n
		case inTime && unit == 'H':
			d.clock += time.Duration(n) * time.Hour
		case inTime && unit == 'M':
			d.clock += time.Duration(n) * time.Minute
		case inTime && unit == 'S':
			d.clock += time.Duration(n) * time.Second
		default:
			return d, fmt.Errorf("%w: %q", errBadDuration, s)
		}
	}
	if !seen {
		return d, fmt.Errorf("%w: %q", errBadDuration, s)
	}
	return d, nil
}
