package tzmath

import (
	"time"

	"github.com/pgaskin/timezone-math/civil"
	"github.com/pgaskin/timezone-math/tzdb"
)

// Floor rounds in down to the boundary selected by spec, computed on local
// wall-clock fields: in within's local fields if within is nonempty, else in
// in's own zone (or the naive fields directly). The result is re-expressed in
// in's original zone-attached or naive form, with the offset re-resolved for
// the new local time, so it may differ from in's offset when the floor
// crossed a DST border.
func Floor(r tzdb.Resolver, in Instant, spec UnitSpec, within string) (Instant, error) {
	if err := spec.Validate(); err != nil {
		return Instant{}, err
	}
	return boundary(r, in, spec, within, false)
}

// Ceil rounds in up to the next boundary of the coarsest unit in spec,
// returning in unchanged if it already lies exactly on the boundary. Finer
// units in spec are validated but clamped to the start of the rounded coarse
// period rather than rounded independently (ceiling to the next duomonth
// necessarily lands on the first day of it).
func Ceil(r tzdb.Resolver, in Instant, spec UnitSpec, within string) (Instant, error) {
	if err := spec.Validate(); err != nil {
		return Instant{}, err
	}
	return boundary(r, in, spec.coarsest(), within, true)
}

func boundary(r tzdb.Resolver, in Instant, spec UnitSpec, within string, up bool) (Instant, error) {
	loc := in
	if within != "" {
		var err error
		if loc, err = Convert(r, in, within, false); err != nil {
			return Instant{}, err
		}
	}
	dt := floorFields(loc.DateTime, spec)
	if up && dt != loc.DateTime {
		dt = nextBoundary(dt, spec)
	}

	// naive computation in naive form needs no zone resolution
	if loc.Zone == "" {
		return Naive(dt), nil
	}

	// re-resolve the offset for the new local fields; DST gaps and overlaps
	// resolve per tzdb.ResolveLocal
	utc, err := tzdb.ResolveLocal(r, loc.Zone, dt.UnixMicros())
	if err != nil {
		return Instant{}, err
	}
	res, err := FromUnix(r, utc, loc.Zone)
	if err != nil {
		return Instant{}, err
	}
	return toOriginal(r, res, in)
}

// floorFields rounds wall-clock fields down per spec. Units coarser than the
// coarsest specified one pass through unchanged; units finer than the finest
// specified one reset to their period start.
func floorFields(dt civil.DateTime, spec UnitSpec) civil.DateTime {
	if spec.Week != 0 {
		// most recent Monday at midnight
		sinceMonday := (int(dt.Date.Weekday()) + 6) % 7
		return civil.DateTime{
			Date: dt.Date.AddDays(-sinceMonday),
		}
	}
	var (
		y, mo, d     = dt.Year, int(dt.Month), dt.Day
		h, mi, s, us = dt.Hour, dt.Minute, dt.Second, dt.Micro
		seen         = false
	)
	clamp := func(v *int, start, stride int) {
		if stride == 0 {
			if seen {
				*v = start
			}
			return
		}
		seen = true
		*v -= (*v - start) % stride
	}
	clamp(&y, 0, spec.Year)
	clamp(&mo, 1, spec.Month)
	clamp(&d, 1, spec.Day)
	clamp(&h, 0, spec.Hour)
	clamp(&mi, 0, spec.Minute)
	clamp(&s, 0, spec.Second)
	clamp(&us, 0, spec.Micro)
	return civil.DateTime{
		Date: civil.Date{Year: y, Month: time.Month(mo), Day: d},
		Time: civil.Time{Hour: h, Minute: mi, Second: s, Micro: us},
	}
}

// nextBoundary advances floored wall-clock fields by one stride of the single
// unit in spec (spec has already been reduced to its coarsest unit).
func nextBoundary(dt civil.DateTime, spec UnitSpec) civil.DateTime {
	switch {
	case spec.Year != 0:
		dt.Year += spec.Year
		return dt
	case spec.Month != 0:
		return dt.AddMonths(spec.Month)
	case spec.Week != 0:
		return dt.AddDays(7)
	case spec.Day != 0:
		return dt.AddDays(spec.Day)
	case spec.Hour != 0:
		return dt.AddMicros(int64(spec.Hour) * 3600 * 1e6)
	case spec.Minute != 0:
		return dt.AddMicros(int64(spec.Minute) * 60 * 1e6)
	case spec.Second != 0:
		return dt.AddMicros(int64(spec.Second) * 1e6)
	case spec.Micro != 0:
		return dt.AddMicros(int64(spec.Micro))
	}
	return dt
}
