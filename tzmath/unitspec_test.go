package tzmath

import (
	"errors"
	"testing"
)

func TestParseUnitSpec(t *testing.T) {
	for _, tc := range []struct {
		In  string
		Out UnitSpec
		Err bool
	}{
		{"month", UnitSpec{Month: 1}, false},
		{"month:3", UnitSpec{Month: 3}, false},
		{"month:3,day:1", UnitSpec{Month: 3, Day: 1}, false},
		{"week:1", UnitSpec{Week: 1}, false},
		{"week", UnitSpec{Week: 1}, false},
		{"year:10, minute:15", UnitSpec{Year: 10, Minute: 15}, false},
		{"microsecond:500", UnitSpec{Micro: 500}, false},
		{"micro:500", UnitSpec{Micro: 500}, false},
		{"", UnitSpec{}, true},
		{"fortnight", UnitSpec{}, true},
		{"day:x", UnitSpec{}, true},
		{"day:0", UnitSpec{}, true},
		{"day:1,day:2", UnitSpec{}, true},
		{"week:2", UnitSpec{}, true},
		{"week:1,day:1", UnitSpec{}, true},
		{"month:5", UnitSpec{}, true},
		{"hour:7", UnitSpec{}, true},
		{"minute:-15", UnitSpec{}, true},
	} {
		out, err := ParseUnitSpec(tc.In)
		if tc.Err {
			if !errors.Is(err, ErrUnitSpec) {
				t.Errorf("parse %q: expected ErrUnitSpec, got %v", tc.In, err)
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

func TestUnitSpecValidate(t *testing.T) {
	for _, tc := range []struct {
		Spec UnitSpec
		Err  bool
	}{
		{UnitSpec{Month: 6}, false},
		{UnitSpec{Day: 5}, false}, // day strides have no divisibility constraint
		{UnitSpec{Year: 100}, false},
		{UnitSpec{Hour: 6, Minute: 30}, false},
		{UnitSpec{Micro: 250000}, false},
		{UnitSpec{Month: 5}, true},
		{UnitSpec{Hour: 5}, true},
		{UnitSpec{Minute: 7}, true},
		{UnitSpec{Second: 45}, true},
		{UnitSpec{Micro: 300000}, true},
		{UnitSpec{Week: 2}, true},
		{UnitSpec{Week: 1, Hour: 1}, true},
		{UnitSpec{Day: -1}, true},
	} {
		err := tc.Spec.Validate()
		if tc.Err && !errors.Is(err, ErrUnitSpec) {
			t.Errorf("%+v: expected ErrUnitSpec, got %v", tc.Spec, err)
		} else if !tc.Err && err != nil {
			t.Errorf("%+v: %v", tc.Spec, err)
		}
	}
}

func TestUnitSpecString(t *testing.T) {
	spec, err := ParseUnitSpec("month:3,day:1,minute:15")
	if err != nil {
		t.Fatal(err)
	}
	if s := spec.String(); s != "month:3,day:1,minute:15" {
		t.Errorf("got %q", s)
	}
}
