package tzmath

import (
	"fmt"

	"github.com/pgaskin/timezone-math/civil"
	"github.com/pgaskin/timezone-math/tzdb"
)

// Add adds a fixed delta to in.
//
// Without a relative zone (within == ""), this is pure elapsed-time addition
// on the UTC-equivalent instant: the result is always exactly d later in
// absolute terms, re-expressed in in's original form.
//
// With a relative zone, the delta is added to the local wall clock of within:
// adding two weeks always lands 14 days later at the same local time of day
// in within, even across a DST border where the absolute elapsed time is
// 14 days plus or minus an hour. The result is then re-expressed in in's
// original form. Landing on a nonexistent or ambiguous local time resolves
// per tzdb.ResolveLocal.
//
// Overflow of the microsecond timestamp range fails with ErrDeltaRange.
func Add(r tzdb.Resolver, in Instant, d Delta, within string) (Instant, error) {
	us, err := d.micros()
	if err != nil {
		return Instant{}, err
	}

	if within == "" {
		utc, ok := addExact(in.UTC(), us)
		if !ok {
			return Instant{}, fmt.Errorf("%w: addition overflows the timestamp range", ErrDeltaRange)
		}
		if in.Zone == "" {
			return Naive(civil.FromUnixMicros(utc)), nil
		}
		return FromUnix(r, utc, in.Zone)
	}

	loc, err := Convert(r, in, within, false)
	if err != nil {
		return Instant{}, err
	}
	wall, ok := addExact(loc.DateTime.UnixMicros(), us)
	if !ok {
		return Instant{}, fmt.Errorf("%w: addition overflows the timestamp range", ErrDeltaRange)
	}
	utc, err := tzdb.ResolveLocal(r, within, wall)
	if err != nil {
		return Instant{}, err
	}
	res, err := FromUnix(r, utc, within)
	if err != nil {
		return Instant{}, err
	}
	return toOriginal(r, res, in)
}

// Unix converts in to a unix timestamp in seconds. If within is nonempty the
// timestamp is shifted by within's offset at the instant, yielding the value
// a naive reading of within's local clock would produce.
func Unix(r tzdb.Resolver, in Instant, within string) (int64, error) {
	if within == "" {
		return in.Unix(), nil
	}
	off, _, err := r.Offset(within, in.UTC())
	if err != nil {
		return 0, err
	}
	return in.Unix() + int64(off), nil
}
