// Package tzdb resolves timezone offsets for the calendar arithmetic in
// tzmath. A Resolver answers one question: what is the UTC offset (and DST
// state) of a zone at a given UTC instant. Locations answers it from the
// system or embedded IANA database, and TZMap from POSIX TZ rule strings,
// which is useful for tests with hand-crafted transition tables.
package tzdb

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrUnknownZone is wrapped by resolvers when a zone identifier cannot be
// resolved. This is a configuration error; it is never silently defaulted.
var ErrUnknownZone = errors.New("unknown timezone")

// Resolver resolves the state of a timezone at a UTC instant.
//
// Implementations must be deterministic for a given (zone, utc) pair and safe
// for concurrent use.
type Resolver interface {
	// Offset returns the offset in seconds east of UTC and the DST state of
	// zone at utc microseconds since the Unix epoch.
	Offset(zone string, utc int64) (offset int, dst bool, err error)
}

// Locations resolves zones using time.LoadLocation, caching loaded locations.
// Zone names are IANA identifiers such as "America/Toronto", plus "UTC" and
// "Local". The zero value is ready to use.
type Locations struct {
	mu    sync.Mutex
	cache map[string]*time.Location
}

func (l *Locations) location(zone string) (*time.Location, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if loc, ok := l.cache[zone]; ok {
		return loc, nil
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrUnknownZone, zone, err)
	}
	if l.cache == nil {
		l.cache = map[string]*time.Location{}
	}
	l.cache[zone] = loc
	return loc, nil
}

func (l *Locations) Offset(zone string, utc int64) (int, bool, error) {
	loc, err := l.location(zone)
	if err != nil {
		return 0, false, err
	}
	t := time.UnixMicro(utc).In(loc)
	_, offset := t.Zone()
	return offset, t.IsDST(), nil
}

// resolveLocalProbe is how far on either side of a wall-clock time offsets
// are sampled when inverting it to UTC. It must exceed the largest offset
// magnitude in the tz database (currently UTC+14).
const resolveLocalProbe = 16 * 60 * 60 * 1e6

// ResolveLocal inverts wall-clock fields to a UTC instant: given wall as the
// microseconds read off a local clock in zone (i.e., the UnixMicros of its
// civil fields), it returns the UTC instant at which that local time occurs.
//
// Local times made ambiguous by an offset decrease (a "fall back" DST
// transition) resolve to the earlier of the two matching UTC instants. Local
// times that do not exist because of an offset increase ("spring forward")
// resolve to the UTC instant reached by interpreting them with the
// pre-transition offset, i.e. the real time smaller than one transition gap
// forward of the requested one.
//
// The result assumes at most one transition within resolveLocalProbe of the
// wall time, which holds for every real timezone.
func ResolveLocal(r Resolver, zone string, wall int64) (int64, error) {
	before, _, err := r.Offset(zone, wall-resolveLocalProbe)
	if err != nil {
		return 0, err
	}
	after, _, err := r.Offset(zone, wall+resolveLocalProbe)
	if err != nil {
		return 0, err
	}
	utcBefore := wall - int64(before)*1e6
	if before == after {
		return utcBefore, nil
	}
	utcAfter := wall - int64(after)*1e6
	okBefore, err := offsetHolds(r, zone, utcBefore, before)
	if err != nil {
		return 0, err
	}
	okAfter, err := offsetHolds(r, zone, utcAfter, after)
	if err != nil {
		return 0, err
	}
	switch {
	case okBefore && okAfter:
		// ambiguous; earlier UTC instant wins
		if utcBefore < utcAfter {
			return utcBefore, nil
		}
		return utcAfter, nil
	case okBefore:
		return utcBefore, nil
	case okAfter:
		return utcAfter, nil
	default:
		// nonexistent; the pre-transition offset lands just past the gap
		return utcBefore, nil
	}
}

func offsetHolds(r Resolver, zone string, utc int64, offset int) (bool, error) {
	o, _, err := r.Offset(zone, utc)
	if err != nil {
		return false, err
	}
	return o == offset, nil
}
