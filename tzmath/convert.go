package tzmath

import (
	"fmt"

	"github.com/pgaskin/timezone-math/civil"
	"github.com/pgaskin/timezone-math/tzdb"
)

// Convert re-expresses in as the same UTC instant in zone. A naive input is
// interpreted as UTC. If naive is true, the result keeps the converted
// wall-clock fields but has no zone attached (so converting to "UTC" with
// naive set strips the zone without moving the instant).
func Convert(r tzdb.Resolver, in Instant, zone string, naive bool) (Instant, error) {
	utc := in.UTC()
	off, _, err := r.Offset(zone, utc)
	if err != nil {
		return Instant{}, fmt.Errorf("convert: %w", err)
	}
	dt := civil.FromUnixMicros(utc + int64(off)*1e6)
	if naive {
		return Naive(dt), nil
	}
	return Instant{DateTime: dt, Zone: zone, Offset: off}, nil
}

// toOriginal re-expresses res in the representation of in: naive if in is
// naive, otherwise attached to in's zone.
func toOriginal(r tzdb.Resolver, res, in Instant) (Instant, error) {
	if in.Zone == "" {
		return Naive(civil.FromUnixMicros(res.UTC())), nil
	}
	if in.Zone == res.Zone {
		return res, nil
	}
	return Convert(r, res, in.Zone, false)
}
