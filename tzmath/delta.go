package tzmath

import (
	"fmt"
	"strconv"
	"time"
)

// Delta is a fixed elapsed length of time with no calendar meaning: a day is
// always 24 hours of elapsed time, even when added across a DST transition
// (what that does to the local clock depends on how the Delta is applied; see
// Add). The components are summed; they may have mixed signs.
type Delta struct {
	Days    int64
	Seconds int64
	Micros  int64
}

// Weeks returns a Delta of n 7-day weeks.
func Weeks(n int64) Delta { return Delta{Days: n * 7} }

// Days returns a Delta of n 24-hour days.
func Days(n int64) Delta { return Delta{Days: n} }

// Hours returns a Delta of n hours.
func Hours(n int64) Delta { return Delta{Seconds: n * 3600} }

// Minutes returns a Delta of n minutes.
func Minutes(n int64) Delta { return Delta{Seconds: n * 60} }

// Seconds returns a Delta of n seconds.
func Seconds(n int64) Delta { return Delta{Seconds: n} }

// FromDuration converts a time.Duration, truncating to microseconds.
func FromDuration(d time.Duration) Delta {
	return Delta{Micros: d.Microseconds()}
}

// ParseDelta parses a delta string: an optional leading sign followed by one
// or more integer components with units "w", "d", "h", "m", "s", "ms" or
// "us", e.g. "2w", "14d", "1d2h30m", "-90s".
func ParseDelta(s string) (Delta, error) {
	orig := s
	neg := false
	if len(s) > 0 && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		s = s[1:]
	}
	if len(s) == 0 {
		return Delta{}, fmt.Errorf("%w: empty delta %q", ErrDeltaRange, orig)
	}
	var d Delta
	for len(s) > 0 {
		i := 0
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
		if i == 0 {
			return Delta{}, fmt.Errorf("%w: expected digit in delta %q", ErrDeltaRange, orig)
		}
		n, err := strconv.ParseInt(s[:i], 10, 64)
		if err != nil {
			return Delta{}, fmt.Errorf("%w: delta %q: %v", ErrDeltaRange, orig, err)
		}
		s = s[i:]
		j := 0
		for j < len(s) && (s[j] < '0' || s[j] > '9') {
			j++
		}
		unit := s[:j]
		s = s[j:]
		switch unit {
		case "w":
			d.Days += n * 7
		case "d":
			d.Days += n
		case "h":
			d.Seconds += n * 3600
		case "m":
			d.Seconds += n * 60
		case "s":
			d.Seconds += n
		case "ms":
			d.Micros += n * 1000
		case "us":
			d.Micros += n
		default:
			return Delta{}, fmt.Errorf("%w: unknown unit %q in delta %q", ErrDeltaRange, unit, orig)
		}
	}
	if neg {
		d.Days, d.Seconds, d.Micros = -d.Days, -d.Seconds, -d.Micros
	}
	return d, nil
}

// IsZero reports whether the delta is zero elapsed time.
func (d Delta) IsZero() bool {
	us, err := d.micros()
	return err == nil && us == 0
}

// Sign returns -1, 0, or 1 by the sign of the total elapsed time.
func (d Delta) Sign() int {
	us, err := d.micros()
	switch {
	case err != nil:
		// saturated; the components cannot cancel to a different sign
		if d.Days < 0 || d.Seconds < 0 || d.Micros < 0 {
			return -1
		}
		return 1
	case us < 0:
		return -1
	case us > 0:
		return 1
	}
	return 0
}

func (d Delta) String() string {
	us, err := d.micros()
	if err != nil {
		return fmt.Sprintf("{%dd %ds %dus}", d.Days, d.Seconds, d.Micros)
	}
	if us == 0 {
		return "0s"
	}
	var b []byte
	if us < 0 {
		b = append(b, '-')
		us = -us
	}
	for _, p := range []struct {
		unit string
		size int64
	}{
		{"w", 7 * 24 * 3600 * 1e6},
		{"d", 24 * 3600 * 1e6},
		{"h", 3600 * 1e6},
		{"m", 60 * 1e6},
		{"s", 1e6},
		{"ms", 1e3},
		{"us", 1},
	} {
		if n := us / p.size; n != 0 {
			b = strconv.AppendInt(b, n, 10)
			b = append(b, p.unit...)
			us %= p.size
		}
	}
	return string(b)
}

// micros totals the components in microseconds, or fails with ErrDeltaRange
// if the total does not fit in an int64.
func (d Delta) micros() (int64, error) {
	secs, ok := mulExact(d.Days, 24*3600)
	if ok {
		secs, ok = addExact(secs, d.Seconds)
	}
	var us int64
	if ok {
		us, ok = mulExact(secs, 1e6)
	}
	if ok {
		us, ok = addExact(us, d.Micros)
	}
	if !ok {
		return 0, fmt.Errorf("%w: delta exceeds the representable range", ErrDeltaRange)
	}
	return us, nil
}

func addExact(a, b int64) (int64, bool) {
	s := a + b
	if (b > 0 && s < a) || (b < 0 && s > a) {
		return 0, false
	}
	return s, true
}

func mulExact(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	p := a * b
	if p/b != a {
		return 0, false
	}
	return p, true
}
