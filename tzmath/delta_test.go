package tzmath

import (
	"errors"
	"testing"
	"time"
)

func TestParseDelta(t *testing.T) {
	for _, tc := range []struct {
		In  string
		Out Delta
		Err bool
	}{
		{"2w", Delta{Days: 14}, false},
		{"14d", Delta{Days: 14}, false},
		{"1d2h30m", Delta{Days: 1, Seconds: 2*3600 + 30*60}, false},
		{"-90s", Delta{Seconds: -90}, false},
		{"+1h", Delta{Seconds: 3600}, false},
		{"500ms", Delta{Micros: 500000}, false},
		{"1us", Delta{Micros: 1}, false},
		{"", Delta{}, true},
		{"-", Delta{}, true},
		{"5", Delta{}, true},
		{"d", Delta{}, true},
		{"1x", Delta{}, true},
	} {
		out, err := ParseDelta(tc.In)
		if tc.Err {
			if !errors.Is(err, ErrDeltaRange) {
				t.Errorf("parse %q: expected ErrDeltaRange, got %v", tc.In, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("parse %q: %v", tc.In, err)
		} else if out != tc.Out {
			t.Errorf("parse %q: expected %+v, got %+v", tc.In, tc.Out, out)
		}
	}
}

func TestDeltaString(t *testing.T) {
	for _, tc := range []struct {
		Delta Delta
		Out   string
	}{
		{Delta{}, "0s"},
		{Delta{Days: 14}, "2w"},
		{Delta{Days: 1, Seconds: 2*3600 + 30*60}, "1d2h30m"},
		{Delta{Seconds: -90}, "-1m30s"},
		{Delta{Micros: 500001}, "500ms1us"},
	} {
		if s := tc.Delta.String(); s != tc.Out {
			t.Errorf("%+v: expected %q, got %q", tc.Delta, tc.Out, s)
		}
	}
}

func TestDeltaSign(t *testing.T) {
	if s := (Delta{}).Sign(); s != 0 {
		t.Errorf("expected 0, got %d", s)
	}
	if s := (Delta{Days: 1, Seconds: -24 * 3600}).Sign(); s != 0 {
		t.Errorf("expected 0 for cancelling components, got %d", s)
	}
	if s := (Delta{Seconds: -1}).Sign(); s != -1 {
		t.Errorf("expected -1, got %d", s)
	}
	if s := (Delta{Days: 1 << 50}).Sign(); s != 1 {
		t.Errorf("expected 1 for a saturated delta, got %d", s)
	}
}

func TestFromDuration(t *testing.T) {
	if d := FromDuration(90 * time.Minute); d != (Delta{Micros: 90 * 60 * 1e6}) {
		t.Errorf("got %+v", d)
	}
}

func TestDeltaConstructors(t *testing.T) {
	if Weeks(2) != (Delta{Days: 14}) || Days(3) != (Delta{Days: 3}) ||
		Hours(2) != (Delta{Seconds: 7200}) || Minutes(5) != (Delta{Seconds: 300}) ||
		Seconds(30) != (Delta{Seconds: 30}) {
		t.Error("constructor mismatch")
	}
}
