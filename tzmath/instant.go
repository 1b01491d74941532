package tzmath

import (
	"github.com/pgaskin/timezone-math/civil"
	"github.com/pgaskin/timezone-math/tzdb"
)

// Instant is a timestamp with an optional attached zone. The wall-clock
// fields are the local fields in Zone; Offset is the seconds east of UTC
// those fields are displaced by. A naive Instant (Zone == "") has no
// attached zone and is treated as UTC by all arithmetic.
//
// The zone determines how an Instant is displayed, never how it is ordered:
// comparison is always by the equivalent UTC instant.
type Instant struct {
	civil.DateTime
	Zone   string
	Offset int // seconds east of UTC; always 0 when naive
}

// Naive returns dt as a naive Instant.
func Naive(dt civil.DateTime) Instant {
	return Instant{DateTime: dt}
}

// At interprets dt as local wall-clock fields in zone, resolving the offset
// through r. An empty zone yields a naive Instant. Nonexistent or ambiguous
// local times resolve per tzdb.ResolveLocal, so the returned fields may
// differ from dt when dt falls in a DST gap.
func At(r tzdb.Resolver, dt civil.DateTime, zone string) (Instant, error) {
	if zone == "" {
		return Naive(dt), nil
	}
	utc, err := tzdb.ResolveLocal(r, zone, dt.UnixMicros())
	if err != nil {
		return Instant{}, err
	}
	return FromUnix(r, utc, zone)
}

// FromUnix returns the Instant at utc microseconds since the Unix epoch,
// attached to zone (or naive if zone is empty).
func FromUnix(r tzdb.Resolver, utc int64, zone string) (Instant, error) {
	if zone == "" {
		return Naive(civil.FromUnixMicros(utc)), nil
	}
	off, _, err := r.Offset(zone, utc)
	if err != nil {
		return Instant{}, err
	}
	return Instant{
		DateTime: civil.FromUnixMicros(utc + int64(off)*1e6),
		Zone:     zone,
		Offset:   off,
	}, nil
}

// IsNaive reports whether no zone is attached.
func (v Instant) IsNaive() bool {
	return v.Zone == ""
}

// UTC returns the equivalent UTC instant in microseconds since the Unix
// epoch.
func (v Instant) UTC() int64 {
	return v.DateTime.UnixMicros() - int64(v.Offset)*1e6
}

// Unix returns the equivalent UTC instant in seconds since the Unix epoch,
// rounded toward the past.
func (v Instant) Unix() int64 {
	us := v.UTC()
	s := us / 1e6
	if us%1e6 < 0 {
		s--
	}
	return s
}

// Equal reports whether v and x are the same UTC instant, regardless of the
// zone they are displayed in.
func (v Instant) Equal(x Instant) bool {
	return v.UTC() == x.UTC()
}

func (v Instant) Less(x Instant) bool {
	return v.UTC() < x.UTC()
}

func (v Instant) Compare(x Instant) int {
	a, b := v.UTC(), x.UTC()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (v Instant) String() string {
	if v.Zone == "" {
		return v.DateTime.String()
	}
	return v.DateTime.String() + " " + string(appendOffset(nil, v.Offset)) + " " + v.Zone
}

func appendOffset(b []byte, secs int) []byte {
	zone := secs / 60
	if zone < 0 {
		b = append(b, '-')
		zone = -zone
	} else {
		b = append(b, '+')
	}
	b = append(b, '0'+byte(zone/60/10%10))
	b = append(b, '0'+byte(zone/60%10))
	b = append(b, '0'+byte(zone%60/10%10))
	b = append(b, '0'+byte(zone%60%10))
	return b
}
