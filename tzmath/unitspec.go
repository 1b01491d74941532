package tzmath

import (
	"fmt"
	"strconv"
	"strings"
)

// UnitSpec selects the calendar boundaries Floor and Ceil snap to. Each
// nonzero field is a stride of that unit: Month 3 means every third month of
// the year (quarter starts), Minute 15 means every quarter hour. Zero means
// the unit is not specified.
//
// Week is special: it may only be 1, it snaps to Monday midnight, and it
// cannot be combined with any other unit. For units whose period is fixed,
// the stride must divide the period evenly (Month divides 12, Hour 24,
// Minute and Second 60, Micro 1e6); Year and Day have no such constraint.
type UnitSpec struct {
	Year   int
	Month  int
	Week   int
	Day    int
	Hour   int
	Minute int
	Second int
	Micro  int
}

// ParseUnitSpec parses a comma-separated list of unit:stride pairs, e.g.
// "month:3,day:1" or "week:1". A bare unit name means stride 1.
func ParseUnitSpec(s string) (UnitSpec, error) {
	var spec UnitSpec
	if strings.TrimSpace(s) == "" {
		return UnitSpec{}, fmt.Errorf("%w: empty spec", ErrUnitSpec)
	}
	for _, part := range strings.Split(s, ",") {
		name, stride := strings.TrimSpace(part), 1
		if u, v, ok := strings.Cut(name, ":"); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return UnitSpec{}, fmt.Errorf("%w: stride %q: %v", ErrUnitSpec, v, err)
			}
			if n < 1 {
				return UnitSpec{}, fmt.Errorf("%w: stride %d is not positive", ErrUnitSpec, n)
			}
			name, stride = strings.TrimSpace(u), n
		}
		var f *int
		switch name {
		case "year":
			f = &spec.Year
		case "month":
			f = &spec.Month
		case "week":
			f = &spec.Week
		case "day":
			f = &spec.Day
		case "hour":
			f = &spec.Hour
		case "minute":
			f = &spec.Minute
		case "second":
			f = &spec.Second
		case "microsecond", "micro":
			f = &spec.Micro
		default:
			return UnitSpec{}, fmt.Errorf("%w: unknown unit %q", ErrUnitSpec, name)
		}
		if *f != 0 {
			return UnitSpec{}, fmt.Errorf("%w: unit %q specified twice", ErrUnitSpec, name)
		}
		*f = stride
	}
	if err := spec.Validate(); err != nil {
		return UnitSpec{}, err
	}
	return spec, nil
}

// IsZero reports whether no unit is specified.
func (s UnitSpec) IsZero() bool {
	return s == UnitSpec{}
}

// Validate checks the stride invariants described on UnitSpec.
func (s UnitSpec) Validate() error {
	for _, u := range []struct {
		name   string
		stride int
		period int // 0 if the period is unbounded or varies
	}{
		{"year", s.Year, 0},
		{"month", s.Month, 12},
		{"week", s.Week, 0},
		{"day", s.Day, 0},
		{"hour", s.Hour, 24},
		{"minute", s.Minute, 60},
		{"second", s.Second, 60},
		{"microsecond", s.Micro, 1e6},
	} {
		if u.stride < 0 {
			return fmt.Errorf("%w: %s stride %d is negative", ErrUnitSpec, u.name, u.stride)
		}
		if u.stride != 0 && u.period != 0 && u.period%u.stride != 0 {
			return fmt.Errorf("%w: %s stride %d does not divide %d", ErrUnitSpec, u.name, u.stride, u.period)
		}
	}
	if s.Week != 0 {
		if s.Week != 1 {
			return fmt.Errorf("%w: week stride must be 1, not %d", ErrUnitSpec, s.Week)
		}
		if s != (UnitSpec{Week: 1}) {
			return fmt.Errorf("%w: week cannot be combined with other units", ErrUnitSpec)
		}
	}
	return nil
}

// coarsest returns a spec reduced to the coarsest specified unit, which is
// the unit Ceil rounds on.
func (s UnitSpec) coarsest() UnitSpec {
	switch {
	case s.Year != 0:
		return UnitSpec{Year: s.Year}
	case s.Month != 0:
		return UnitSpec{Month: s.Month}
	case s.Week != 0:
		return UnitSpec{Week: s.Week}
	case s.Day != 0:
		return UnitSpec{Day: s.Day}
	case s.Hour != 0:
		return UnitSpec{Hour: s.Hour}
	case s.Minute != 0:
		return UnitSpec{Minute: s.Minute}
	case s.Second != 0:
		return UnitSpec{Second: s.Second}
	case s.Micro != 0:
		return UnitSpec{Micro: s.Micro}
	}
	return UnitSpec{}
}

func (s UnitSpec) String() string {
	var parts []string
	for _, u := range []struct {
		name   string
		stride int
	}{
		{"year", s.Year},
		{"month", s.Month},
		{"week", s.Week},
		{"day", s.Day},
		{"hour", s.Hour},
		{"minute", s.Minute},
		{"second", s.Second},
		{"microsecond", s.Micro},
	} {
		if u.stride != 0 {
			parts = append(parts, u.name+":"+strconv.Itoa(u.stride))
		}
	}
	return strings.Join(parts, ",")
}
