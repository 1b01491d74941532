package tzmath

import (
	"fmt"

	"github.com/pgaskin/timezone-math/tzdb"
)

// Interval describes a lazy sequence of evenly spaced instants: Start,
// Start+Step, Start+2*Step, and so on, each produced by Add (so a nonempty
// Within makes the spacing zone-relative, keeping elements at the same local
// wall-clock time across DST borders).
//
// Termination, checked before each element: if Stop is set, the sequence ends
// at the first candidate at or past Stop (past Stop if StopInclusive, so the
// element equal to Stop is included only then), and Count is ignored. Else if
// Count is non-negative, exactly Count elements are produced. Else the
// sequence is unbounded and the consumer decides how many elements to draw.
type Interval struct {
	Start         Instant
	Step          Delta
	Within        string
	Stop          *Instant
	StopInclusive bool
	Count         int // negative: no count limit
}

// Sequence validates iv and returns an iterator over its elements. The step
// must be a positive length of time. Iterating the same Interval again from a
// fresh Sequence is deterministic.
func Sequence(r tzdb.Resolver, iv Interval) (*Iter, error) {
	if iv.Step.Sign() <= 0 {
		return nil, fmt.Errorf("%w: sequence step must be positive, not %s", ErrDeltaRange, iv.Step)
	}
	if _, err := iv.Step.micros(); err != nil {
		return nil, err
	}
	return &Iter{r: r, iv: iv, cur: iv.Start}, nil
}

// Iter lazily produces the elements of an Interval. It holds only the next
// candidate and the interval; elements are computed one per Next call.
type Iter struct {
	r       tzdb.Resolver
	iv      Interval
	cur     Instant
	n       int
	started bool
	done    bool
	err     error
}

// Next returns the next element of the sequence. It returns false when the
// sequence is exhausted or iteration failed; check Err to distinguish.
func (it *Iter) Next() (Instant, bool) {
	if it.done {
		return Instant{}, false
	}
	if it.started {
		next, err := Add(it.r, it.cur, it.iv.Step, it.iv.Within)
		if err != nil {
			it.err = err
			it.done = true
			return Instant{}, false
		}
		it.cur = next
	}
	it.started = true

	if stop := it.iv.Stop; stop != nil {
		end := stop.UTC()
		if cur := it.cur.UTC(); cur > end || (cur == end && !it.iv.StopInclusive) {
			it.done = true
			return Instant{}, false
		}
	} else if it.iv.Count >= 0 && it.n >= it.iv.Count {
		it.done = true
		return Instant{}, false
	}
	it.n++
	return it.cur, true
}

// Err returns the error that ended iteration early, if any.
func (it *Iter) Err() error {
	return it.err
}

// Collect draws up to max elements into a slice. A negative max draws until
// the sequence ends on its own, which never happens for an unbounded
// Interval.
func (it *Iter) Collect(max int) ([]Instant, error) {
	var out []Instant
	for max < 0 || len(out) < max {
		v, ok := it.Next()
		if !ok {
			break
		}
		out = append(out, v)
	}
	return out, it.err
}
