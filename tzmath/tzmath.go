// Package tzmath implements timezone-aware calendar arithmetic that stays
// correct across DST transitions: converting instants between zones, flooring
// and ceiling them to compound calendar boundaries, adding fixed deltas as
// experienced on a zone's local wall clock, and lazily iterating evenly
// spaced instants.
//
// All operations are pure functions of their inputs plus a tzdb.Resolver,
// which is the only external capability they consume. Values are immutable;
// nothing in this package holds state between calls.
package tzmath

import "errors"

// ErrUnitSpec is wrapped by errors about malformed unit specs: an out-of-range
// stride, a stride that does not divide its unit's period, or a week stride
// combined with another unit.
var ErrUnitSpec = errors.New("invalid unit spec")

// ErrDeltaRange is wrapped by errors about unusable deltas: a non-positive
// sequence step, or a delta whose addition overflows the microsecond
// timestamp range.
var ErrDeltaRange = errors.New("invalid delta")
