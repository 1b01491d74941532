package tzmath

import (
	"errors"
	"testing"

	"github.com/pgaskin/timezone-math/civil"
	"github.com/pgaskin/timezone-math/tzdb"
)

// testZones is a rule-based resolver so the operation tests do not depend on
// the host tz database. The US/Eastern rules match America/New_York for the
// years tested.
var testZones = tzdb.TZMap{
	"US/Eastern":   "EST5EDT,M3.2.0,M11.1.0",
	"Asia/Kolkata": "IST-5:30",
	"UTC":          "UTC0",
}

func dt(t *testing.T, s string) civil.DateTime {
	t.Helper()
	v, ok := civil.ParseDateTime(s)
	if !ok {
		t.Fatalf("bad datetime %q", s)
	}
	return v
}

func naive(t *testing.T, s string) Instant {
	t.Helper()
	return Naive(dt(t, s))
}

func at(t *testing.T, s, zone string) Instant {
	t.Helper()
	v, err := At(testZones, dt(t, s), zone)
	if err != nil {
		t.Fatalf("at %q %q: %v", s, zone, err)
	}
	return v
}

func TestConvert(t *testing.T) {
	for _, tc := range []struct {
		Name   string
		In     Instant
		Zone   string
		Naive  bool
		Time   string
		Offset int
	}{
		{"naive to eastern winter", naive(t, "2013-02-03T05:00:00"), "US/Eastern", false, "2013-02-03 00:00:00", -18000},
		{"naive to eastern summer", naive(t, "2013-07-01T05:00:00"), "US/Eastern", false, "2013-07-01 01:00:00", -14400},
		{"naive to kolkata", naive(t, "2013-02-03T05:00:00"), "Asia/Kolkata", false, "2013-02-03 10:30:00", 19800},
		{"zoned to zoned", at(t, "2013-02-03 00:00:00", "US/Eastern"), "Asia/Kolkata", false, "2013-02-03 10:30:00", 19800},
		{"zoned to naive utc", at(t, "2013-02-03 00:00:00", "US/Eastern"), "UTC", true, "2013-02-03 05:00:00", 0},
	} {
		t.Run(tc.Name, func(t *testing.T) {
			out, err := Convert(testZones, tc.In, tc.Zone, tc.Naive)
			if err != nil {
				t.Fatal(err)
			}
			if out.DateTime != dt(t, tc.Time) || out.Offset != tc.Offset {
				t.Errorf("expected %s offset %d, got %s offset %d", tc.Time, tc.Offset, out.DateTime, out.Offset)
			}
			if tc.Naive {
				if !out.IsNaive() {
					t.Errorf("expected a naive result, got zone %q", out.Zone)
				}
			} else if out.Zone != tc.Zone {
				t.Errorf("expected zone %q, got %q", tc.Zone, out.Zone)
			}
			if !out.Equal(tc.In) {
				t.Errorf("conversion moved the instant: %d != %d", out.UTC(), tc.In.UTC())
			}
		})
	}
}

func TestConvertRoundTrip(t *testing.T) {
	in := naive(t, "2013-03-10T06:30:00")
	mid, err := Convert(testZones, in, "US/Eastern", false)
	if err != nil {
		t.Fatal(err)
	}
	out, err := Convert(testZones, mid, "UTC", true)
	if err != nil {
		t.Fatal(err)
	}
	if out != in {
		t.Errorf("expected %v, got %v", in, out)
	}
}

func TestConvertUnknownZone(t *testing.T) {
	if _, err := Convert(testZones, naive(t, "2013-01-01T00:00:00"), "Not/A_Zone", false); !errors.Is(err, tzdb.ErrUnknownZone) {
		t.Errorf("expected ErrUnknownZone, got %v", err)
	}
}

func TestAtDST(t *testing.T) {
	// 01:30 occurs twice on 2013-11-03; the earlier interpretation (EDT) wins
	amb := at(t, "2013-11-03 01:30:00", "US/Eastern")
	if amb.Offset != -14400 {
		t.Errorf("ambiguous: expected EDT offset, got %d", amb.Offset)
	}
	if want := dt(t, "2013-11-03T05:30:00").UnixMicros(); amb.UTC() != want {
		t.Errorf("ambiguous: expected utc %d, got %d", want, amb.UTC())
	}

	// 02:30 does not occur on 2013-03-10; it resolves one gap length forward
	gap := at(t, "2013-03-10 02:30:00", "US/Eastern")
	if gap.DateTime != dt(t, "2013-03-10T03:30:00") || gap.Offset != -14400 {
		t.Errorf("nonexistent: expected 03:30 EDT, got %s offset %d", gap.DateTime, gap.Offset)
	}
}

func TestFloor(t *testing.T) {
	for _, tc := range []struct {
		Name   string
		In     Instant
		Units  string
		Within string
		Out    string
	}{
		{"week of sunday", naive(t, "2013-03-03T05:00:00"), "week:1", "", "2013-02-25 00:00:00"},
		{"week midweek", naive(t, "2013-03-06T12:34:56.789"), "week:1", "", "2013-03-04 00:00:00"},
		{"month", naive(t, "2013-03-03T05:00:00"), "month:1", "", "2013-03-01 00:00:00"},
		{"quarter", naive(t, "2013-05-15T10:20:30"), "month:3", "", "2013-04-01 00:00:00"},
		{"year", naive(t, "2013-05-15T10:20:30"), "year:1", "", "2013-01-01 00:00:00"},
		{"decade", naive(t, "2013-05-15T10:20:30"), "year:10", "", "2010-01-01 00:00:00"},
		{"day", naive(t, "2013-03-03T05:00:00"), "day:1", "", "2013-03-03 00:00:00"},
		{"quarter hour", naive(t, "2013-03-03T05:38:12"), "minute:15", "", "2013-03-03 05:30:00"},
		// day is left untouched by a time-only spec
		{"hour only", naive(t, "2013-03-03T05:38:12"), "hour:1", "", "2013-03-03 05:00:00"},
		// coarser units pass through, finer ones reset
		{"combined", naive(t, "2013-05-15T10:20:30"), "month:2,day:2", "", "2013-05-15 00:00:00"},
		{"combined reset", naive(t, "2013-05-16T10:20:30"), "month:2,day:2", "", "2013-05-15 00:00:00"},
	} {
		t.Run(tc.Name, func(t *testing.T) {
			spec, err := ParseUnitSpec(tc.Units)
			if err != nil {
				t.Fatal(err)
			}
			out, err := Floor(testZones, tc.In, spec, tc.Within)
			if err != nil {
				t.Fatal(err)
			}
			if out.DateTime != dt(t, tc.Out) {
				t.Errorf("expected %s, got %s", tc.Out, out.DateTime)
			}
			if out.UTC() > tc.In.UTC() {
				t.Errorf("floor moved forward: %d > %d", out.UTC(), tc.In.UTC())
			}
			again, err := Floor(testZones, out, spec, tc.Within)
			if err != nil {
				t.Fatal(err)
			}
			if !again.Equal(out) {
				t.Errorf("floor is not idempotent: %s != %s", again.DateTime, out.DateTime)
			}
		})
	}
}

func TestFloorWeekOfSunday(t *testing.T) {
	// 2013-03-03 is a Sunday; the week starts the previous Monday
	out, err := Floor(testZones, naive(t, "2013-03-03T05:00:00"), UnitSpec{Week: 1}, "")
	if err != nil {
		t.Fatal(err)
	}
	if want := dt(t, "2013-02-25T00:00:00"); out.DateTime != want {
		t.Errorf("expected %s, got %s", want, out.DateTime)
	}
}

func TestFloorWithin(t *testing.T) {
	// flooring a UTC instant to an Eastern day lands on the Eastern midnight
	out, err := Floor(testZones, naive(t, "2013-03-04T12:30:00"), UnitSpec{Day: 1}, "US/Eastern")
	if err != nil {
		t.Fatal(err)
	}
	if want := dt(t, "2013-03-04T05:00:00"); out.DateTime != want {
		t.Errorf("expected %s, got %s", want, out.DateTime)
	}
	if !out.IsNaive() {
		t.Errorf("expected a naive result, got zone %q", out.Zone)
	}
}

func TestFloorZoned(t *testing.T) {
	// a zoned instant floors on its own local fields
	out, err := Floor(testZones, at(t, "2013-03-04 22:30:00", "US/Eastern"), UnitSpec{Day: 1}, "")
	if err != nil {
		t.Fatal(err)
	}
	if want := dt(t, "2013-03-04T00:00:00"); out.DateTime != want || out.Zone != "US/Eastern" {
		t.Errorf("expected %s in US/Eastern, got %s in %q", want, out.DateTime, out.Zone)
	}
}

func TestFloorAcrossTransition(t *testing.T) {
	// flooring a summer instant to the month crosses into standard time; the
	// offset is re-resolved for the result
	in := at(t, "2013-03-20 12:00:00", "US/Eastern")
	if in.Offset != -14400 {
		t.Fatalf("expected EDT input, got offset %d", in.Offset)
	}
	out, err := Floor(testZones, in, UnitSpec{Month: 1}, "")
	if err != nil {
		t.Fatal(err)
	}
	if want := dt(t, "2013-03-01T00:00:00"); out.DateTime != want || out.Offset != -18000 {
		t.Errorf("expected %s offset -18000, got %s offset %d", want, out.DateTime, out.Offset)
	}
}

func TestCeil(t *testing.T) {
	for _, tc := range []struct {
		Name  string
		In    Instant
		Units string
		Out   string
	}{
		{"month", naive(t, "2013-03-03T05:00:00"), "month:1", "2013-04-01 00:00:00"},
		{"day", naive(t, "2013-03-03T05:00:00"), "day:1", "2013-03-04 00:00:00"},
		{"week", naive(t, "2013-03-03T05:00:00"), "week:1", "2013-03-04 00:00:00"},
		{"year", naive(t, "2013-03-03T05:00:00"), "year:1", "2014-01-01 00:00:00"},
		{"quarter hour", naive(t, "2013-03-03T05:38:12"), "minute:15", "2013-03-03 05:45:00"},
		// already on the boundary; unchanged
		{"boundary", naive(t, "2013-04-01T00:00:00"), "month:1", "2013-04-01 00:00:00"},
		{"boundary week", naive(t, "2013-03-04T00:00:00"), "week:1", "2013-03-04 00:00:00"},
		// finer units clamp to the start of the rounded coarse period
		{"combined", naive(t, "2013-03-03T05:00:00"), "month:2,day:2", "2013-05-01 00:00:00"},
	} {
		t.Run(tc.Name, func(t *testing.T) {
			spec, err := ParseUnitSpec(tc.Units)
			if err != nil {
				t.Fatal(err)
			}
			out, err := Ceil(testZones, tc.In, spec, "")
			if err != nil {
				t.Fatal(err)
			}
			if out.DateTime != dt(t, tc.Out) {
				t.Errorf("expected %s, got %s", tc.Out, out.DateTime)
			}
			if out.UTC() < tc.In.UTC() {
				t.Errorf("ceil moved backward: %d < %d", out.UTC(), tc.In.UTC())
			}
			again, err := Ceil(testZones, out, spec, "")
			if err != nil {
				t.Fatal(err)
			}
			if !again.Equal(out) {
				t.Errorf("ceil is not idempotent on its result: %s != %s", again.DateTime, out.DateTime)
			}
		})
	}
}

func TestFloorCeilBracket(t *testing.T) {
	in := naive(t, "2013-05-15T10:20:30.123456")
	for _, units := range []string{"year:1", "month:1", "week:1", "day:1", "hour:1", "minute:1", "second:1"} {
		spec, err := ParseUnitSpec(units)
		if err != nil {
			t.Fatal(err)
		}
		lo, err := Floor(testZones, in, spec, "")
		if err != nil {
			t.Fatal(err)
		}
		hi, err := Ceil(testZones, in, spec, "")
		if err != nil {
			t.Fatal(err)
		}
		if lo.UTC() > in.UTC() || in.UTC() > hi.UTC() {
			t.Errorf("%s: %s and %s do not bracket %s", units, lo.DateTime, hi.DateTime, in.DateTime)
		}
	}
}

func TestAdd(t *testing.T) {
	t.Run("elapsed naive", func(t *testing.T) {
		out, err := Add(testZones, naive(t, "2013-03-01T05:00:00"), Days(1), "")
		if err != nil {
			t.Fatal(err)
		}
		if want := dt(t, "2013-03-02T05:00:00"); out.DateTime != want || !out.IsNaive() {
			t.Errorf("expected naive %s, got %s in %q", want, out.DateTime, out.Zone)
		}
	})

	t.Run("elapsed zoned across transition", func(t *testing.T) {
		// 24 elapsed hours from Eastern noon the day before the spring-forward
		// transition lands at 13:00 local
		out, err := Add(testZones, at(t, "2013-03-09 12:00:00", "US/Eastern"), Hours(24), "")
		if err != nil {
			t.Fatal(err)
		}
		if want := dt(t, "2013-03-10T13:00:00"); out.DateTime != want || out.Offset != -14400 {
			t.Errorf("expected %s EDT, got %s offset %d", want, out.DateTime, out.Offset)
		}
	})

	t.Run("within across transition", func(t *testing.T) {
		// two weeks relative to Eastern stays at the same local time, so the
		// elapsed time is an hour short
		in := naive(t, "2013-03-01T05:00:00") // midnight Eastern
		out, err := Add(testZones, in, Weeks(2), "US/Eastern")
		if err != nil {
			t.Fatal(err)
		}
		if want := dt(t, "2013-03-15T04:00:00"); out.DateTime != want || !out.IsNaive() {
			t.Errorf("expected naive %s, got %s in %q", want, out.DateTime, out.Zone)
		}
	})

	t.Run("within zoned day", func(t *testing.T) {
		out, err := Add(testZones, at(t, "2013-03-09 12:00:00", "US/Eastern"), Days(1), "US/Eastern")
		if err != nil {
			t.Fatal(err)
		}
		if want := dt(t, "2013-03-10T12:00:00"); out.DateTime != want || out.Offset != -14400 {
			t.Errorf("expected %s EDT, got %s offset %d", want, out.DateTime, out.Offset)
		}
	})

	t.Run("within fall back", func(t *testing.T) {
		in := naive(t, "2013-11-01T04:00:00") // midnight EDT
		out, err := Add(testZones, in, Weeks(1), "US/Eastern")
		if err != nil {
			t.Fatal(err)
		}
		if want := dt(t, "2013-11-08T05:00:00"); out.DateTime != want {
			t.Errorf("expected %s, got %s", want, out.DateTime)
		}
	})

	t.Run("negative", func(t *testing.T) {
		out, err := Add(testZones, naive(t, "2013-03-01T00:00:00"), Seconds(-1), "")
		if err != nil {
			t.Fatal(err)
		}
		if want := dt(t, "2013-02-28T23:59:59"); out.DateTime != want {
			t.Errorf("expected %s, got %s", want, out.DateTime)
		}
	})

	t.Run("overflow", func(t *testing.T) {
		if _, err := Add(testZones, naive(t, "2013-03-01T00:00:00"), Delta{Days: 1 << 50}, ""); !errors.Is(err, ErrDeltaRange) {
			t.Errorf("expected ErrDeltaRange, got %v", err)
		}
	})
}

func TestUnix(t *testing.T) {
	in := naive(t, "2013-03-03T05:00:00")
	if u, err := Unix(testZones, in, ""); err != nil || u != 1362286800 {
		t.Errorf("expected 1362286800, got %d (%v)", u, err)
	}
	// shifted by the zone offset at the instant
	if u, err := Unix(testZones, in, "US/Eastern"); err != nil || u != 1362286800-5*3600 {
		t.Errorf("expected %d, got %d (%v)", 1362286800-5*3600, u, err)
	}
	if _, err := Unix(testZones, in, "Not/A_Zone"); !errors.Is(err, tzdb.ErrUnknownZone) {
		t.Errorf("expected ErrUnknownZone, got %v", err)
	}
}

func TestSequenceWithin(t *testing.T) {
	// daily steps relative to Eastern stay at local midnight across the
	// spring-forward transition on 2013-03-10
	it, err := Sequence(testZones, Interval{
		Start:  at(t, "2013-03-09 00:00:00", "US/Eastern"),
		Step:   Days(1),
		Within: "US/Eastern",
		Count:  5,
	})
	if err != nil {
		t.Fatal(err)
	}
	elems, err := it.Collect(-1)
	if err != nil {
		t.Fatal(err)
	}
	want := []struct {
		Time   string
		Offset int
	}{
		{"2013-03-09 00:00:00", -18000},
		{"2013-03-10 00:00:00", -18000},
		{"2013-03-11 00:00:00", -14400},
		{"2013-03-12 00:00:00", -14400},
		{"2013-03-13 00:00:00", -14400},
	}
	if len(elems) != len(want) {
		t.Fatalf("expected %d elements, got %d", len(want), len(elems))
	}
	for i, w := range want {
		if elems[i].DateTime != dt(t, w.Time) || elems[i].Offset != w.Offset {
			t.Errorf("elem %d: expected %s offset %d, got %s offset %d", i, w.Time, w.Offset, elems[i].DateTime, elems[i].Offset)
		}
	}
	// the elapsed spacing absorbs the transition
	if d := elems[2].UTC() - elems[1].UTC(); d != 23*3600*1e6 {
		t.Errorf("expected a 23h elapsed step across the transition, got %dus", d)
	}
}

func TestSequenceElapsed(t *testing.T) {
	it, err := Sequence(testZones, Interval{
		Start: naive(t, "2013-01-01T00:00:00"),
		Step:  Hours(1),
		Count: 4,
	})
	if err != nil {
		t.Fatal(err)
	}
	elems, err := it.Collect(-1)
	if err != nil {
		t.Fatal(err)
	}
	if len(elems) != 4 {
		t.Fatalf("expected 4 elements, got %d", len(elems))
	}
	for i := 1; i < len(elems); i++ {
		if d := elems[i].UTC() - elems[i-1].UTC(); d != 3600*1e6 {
			t.Errorf("elem %d: expected exact 1h spacing, got %dus", i, d)
		}
	}
}

func TestSequenceStop(t *testing.T) {
	collect := func(t *testing.T, iv Interval) []Instant {
		t.Helper()
		it, err := Sequence(testZones, iv)
		if err != nil {
			t.Fatal(err)
		}
		elems, err := it.Collect(-1)
		if err != nil {
			t.Fatal(err)
		}
		return elems
	}

	start := naive(t, "2013-01-01T00:00:00")
	stop := naive(t, "2013-01-04T00:00:00")

	t.Run("exclusive", func(t *testing.T) {
		elems := collect(t, Interval{Start: start, Step: Days(1), Stop: &stop, Count: -1})
		if len(elems) != 3 {
			t.Errorf("expected 3 elements, got %d", len(elems))
		}
	})
	t.Run("inclusive", func(t *testing.T) {
		elems := collect(t, Interval{Start: start, Step: Days(1), Stop: &stop, StopInclusive: true, Count: -1})
		if len(elems) != 4 {
			t.Errorf("expected 4 elements, got %d", len(elems))
		}
	})
	t.Run("stop overrides count", func(t *testing.T) {
		elems := collect(t, Interval{Start: start, Step: Days(1), Stop: &stop, Count: 10})
		if len(elems) != 3 {
			t.Errorf("expected 3 elements, got %d", len(elems))
		}
	})
	t.Run("stop before start", func(t *testing.T) {
		before := naive(t, "2012-12-31T00:00:00")
		elems := collect(t, Interval{Start: start, Step: Days(1), Stop: &before, Count: -1})
		if len(elems) != 0 {
			t.Errorf("expected no elements, got %d", len(elems))
		}
	})
}

func TestSequenceCount(t *testing.T) {
	start := naive(t, "2013-01-01T00:00:00")

	it, err := Sequence(testZones, Interval{Start: start, Step: Days(1), Count: 0})
	if err != nil {
		t.Fatal(err)
	}
	if elems, _ := it.Collect(-1); len(elems) != 0 {
		t.Errorf("expected no elements for count 0, got %d", len(elems))
	}

	// unbounded; the consumer limits
	it, err = Sequence(testZones, Interval{Start: start, Step: Days(1), Count: -1})
	if err != nil {
		t.Fatal(err)
	}
	elems, err := it.Collect(3)
	if err != nil {
		t.Fatal(err)
	}
	if len(elems) != 3 {
		t.Fatalf("expected 3 elements, got %d", len(elems))
	}
	if elems[0] != start {
		t.Errorf("expected the first element to be the start, got %v", elems[0])
	}
	if v, ok := it.Next(); !ok || v.DateTime != dt(t, "2013-01-04T00:00:00") {
		t.Errorf("expected iteration to continue past Collect, got (%v, %t)", v, ok)
	}
}

func TestSequenceStepErrors(t *testing.T) {
	start := naive(t, "2013-01-01T00:00:00")
	for _, step := range []Delta{{}, {Seconds: -1}, {Days: 1, Seconds: -24 * 3600}} {
		if _, err := Sequence(testZones, Interval{Start: start, Step: step, Count: 1}); !errors.Is(err, ErrDeltaRange) {
			t.Errorf("step %+v: expected ErrDeltaRange, got %v", step, err)
		}
	}
}

func TestInstantString(t *testing.T) {
	if s := at(t, "2013-02-03 00:00:00", "US/Eastern").String(); s != "2013-02-03 00:00:00 -0500 US/Eastern" {
		t.Errorf("got %q", s)
	}
	if s := at(t, "2013-06-03 00:00:00", "Asia/Kolkata").String(); s != "2013-06-03 00:00:00 +0530 Asia/Kolkata" {
		t.Errorf("got %q", s)
	}
	if s := naive(t, "2013-02-03T00:00:00").String(); s != "2013-02-03 00:00:00" {
		t.Errorf("got %q", s)
	}
}
