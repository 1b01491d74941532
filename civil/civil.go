// Package civil provides immutable wall-clock date and time value types with
// microsecond resolution on the proleptic Gregorian calendar. The types carry
// no timezone; they are the local fields an observer reads off a clock, and
// they convert losslessly to and from microseconds since the Unix epoch when
// interpreted as UTC.
package civil

import (
	"fmt"
	"strconv"
	"time"
)

// MicrosPerDay is the length of a civil day in microseconds. Civil days are
// uniform; timezone offset changes are not this package's concern.
const MicrosPerDay = 24 * 60 * 60 * 1e6

// DateTime combines Date and Time.
type DateTime struct {
	Date
	Time
}

// ParseDateTime parses a datetime in the form "YYYY-MM-DD HH:MM:SS" or
// "YYYY-MM-DDTHH:MM:SS", optionally with a fractional second of up to six
// digits.
func ParseDateTime(s string) (datetime DateTime, ok bool) {
	for i, r := range s {
		if r == 'T' || r == ' ' {
			if datetime.Date, ok = ParseDate(s[:i]); ok {
				if ok = i+1 < len(s); ok {
					datetime.Time, ok = ParseTime(s[i+1:])
				}
			}
			break
		}
	}
	if !ok {
		datetime = DateTime{}
	}
	return
}

// GoDateTime extracts the wall-clock fields of t in its location.
func GoDateTime(t time.Time) DateTime {
	var (
		y, m, d    = t.Date()
		hh, mm, ss = t.Clock()
	)
	return DateTime{
		Date: Date{y, m, d},
		Time: Time{hh, mm, ss, t.Nanosecond() / 1e3},
	}
}

// FromUnixMicros converts microseconds since the Unix epoch into the
// wall-clock fields of that instant in UTC.
func FromUnixMicros(us int64) DateTime {
	days := us / MicrosPerDay
	rem := us % MicrosPerDay
	if rem < 0 {
		days--
		rem += MicrosPerDay
	}
	y, m, d := civilFromDays(int(days))
	return DateTime{
		Date: Date{y, m, d},
		Time: Time{
			Hour:   int(rem / (60 * 60 * 1e6)),
			Minute: int(rem / (60 * 1e6) % 60),
			Second: int(rem / 1e6 % 60),
			Micro:  int(rem % 1e6),
		},
	}
}

// UnixMicros returns the microseconds elapsed since the Unix epoch if the
// wall-clock fields are interpreted as UTC.
func (v DateTime) UnixMicros() int64 {
	days := int64(daysFromCivil(v.Year, v.Month, v.Day))
	secs := int64(v.Hour)*3600 + int64(v.Minute)*60 + int64(v.Second)
	return days*MicrosPerDay + secs*1e6 + int64(v.Micro)
}

func (v DateTime) String() string {
	return v.Date.String() + " " + v.Time.String()
}

// In interprets the wall-clock fields in loc. Nonexistent or ambiguous local
// times are resolved by the time package's own rules, which differ from the
// ones used by the tzdb package.
func (v DateTime) In(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Date(v.Year, v.Month, v.Day, v.Hour, v.Minute, v.Second, v.Micro*1e3, loc)
}

func (v DateTime) Less(x DateTime) bool {
	if v.Date == x.Date {
		return v.Time.Less(x.Time)
	}
	return v.Date.Less(x.Date)
}

func (v DateTime) Compare(x DateTime) int {
	if v == x {
		return 0
	}
	if v.Less(x) {
		return -1
	}
	return 1
}

func (v DateTime) AddDays(d int) DateTime {
	return DateTime{v.Date.AddDays(d), v.Time}
}

// AddMonths shifts the date by m calendar months, clamping the day to the
// last day of the resulting month (e.g., Jan 31 + 1 month = Feb 28/29).
func (v DateTime) AddMonths(m int) DateTime {
	return DateTime{v.Date.AddMonths(m), v.Time}
}

// AddMicros adds a fixed number of microseconds to the wall-clock fields,
// carrying into the date as needed.
func (v DateTime) AddMicros(us int64) DateTime {
	return FromUnixMicros(v.UnixMicros() + us)
}

// Date is a wall-clock date.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses a date in the form "YYYY-MM-DD".
func ParseDate(s string) (date Date, ok bool) {
	if len(s) == len("YYYY-MM-DD") {
		if s[4] == '-' && s[7] == '-' {
			if y, e := strconv.ParseInt(s[0:4], 10, 64); e == nil && y > 0 {
				if m, e := strconv.ParseInt(s[5:7], 10, 64); e == nil && 1 <= m && m <= 12 {
					if d, e := strconv.ParseInt(s[8:10], 10, 64); e == nil && 1 <= d && d <= 31 {
						date.Year = int(y)
						date.Month = time.Month(m)
						date.Day = int(d)
						ok = true
					}
				}
			}
		}
	}
	return
}

func (v Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", v.Year, v.Month, v.Day)
}

func (v Date) WithTime(t Time) DateTime {
	return DateTime{v, t}
}

func (v Date) Less(x Date) bool {
	if v.Year == x.Year {
		if v.Month == x.Month {
			return v.Day < x.Day
		}
		return v.Month < x.Month
	}
	return v.Year < x.Year
}

func (v Date) Compare(x Date) int {
	if v == x {
		return 0
	}
	if v.Less(x) {
		return -1
	}
	return 1
}

func (v Date) Date() (year int, month time.Month, day int) {
	return v.Year, v.Month, v.Day
}

// Weekday returns the day of the week, valid for any year.
func (v Date) Weekday() time.Weekday {
	// 1970-01-01 was a Thursday.
	return time.Weekday((daysFromCivil(v.Year, v.Month, v.Day)%7 + 11) % 7)
}

func (v Date) AddDays(d int) Date {
	y, m, d := civilFromDays(daysFromCivil(v.Year, v.Month, v.Day) + d)
	return Date{y, m, d}
}

// AddMonths shifts the date by m calendar months, clamping the day to the
// last day of the resulting month.
func (v Date) AddMonths(m int) Date {
	mo := int(v.Month) - 1 + m
	y := v.Year + mo/12
	mo %= 12
	if mo < 0 {
		mo += 12
		y--
	}
	d := Date{y, time.Month(mo + 1), v.Day}
	if n := DaysIn(d.Month, d.Year); d.Day > n {
		d.Day = n
	}
	return d
}

// IsLeap reports whether year is a Gregorian leap year.
func IsLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DaysIn returns the number of days in month m of year.
func DaysIn(m time.Month, year int) int {
	if m == time.February && IsLeap(year) {
		return 29
	}
	return int(daysBefore[m] - daysBefore[m-1])
}

// daysBefore[m] counts the days in a non-leap year before month m+1 begins.
var daysBefore = [...]int{
	0,
	31,
	31 + 28,
	31 + 28 + 31,
	31 + 28 + 31 + 30,
	31 + 28 + 31 + 30 + 31,
	31 + 28 + 31 + 30 + 31 + 30,
	31 + 28 + 31 + 30 + 31 + 30 + 31,
	31 + 28 + 31 + 30 + 31 + 30 + 31 + 31,
	31 + 28 + 31 + 30 + 31 + 30 + 31 + 31 + 30,
	31 + 28 + 31 + 30 + 31 + 30 + 31 + 31 + 30 + 31,
	31 + 28 + 31 + 30 + 31 + 30 + 31 + 31 + 30 + 31 + 30,
	31 + 28 + 31 + 30 + 31 + 30 + 31 + 31 + 30 + 31 + 30 + 31,
}

// http://howardhinnant.github.io/date_algorithms.html#days_from_civil
func daysFromCivil(y int, m time.Month, d int) int {
	if m < 3 {
		y--
	}
	var era int
	if y >= 0 {
		era = y
	} else {
		era = y - 399
	}
	era /= 400
	yoe := uint(y - era*400)
	var doy uint
	if m > 2 {
		doy = uint(m) - 3
	} else {
		doy = uint(m) + 9
	}
	doy = (153*doy+2)/5 + uint(d) - 1
	doe := yoe*365 + yoe/4 - yoe/100 + doy
	return era*146097 + int(doe) - 719468
}

// http://howardhinnant.github.io/date_algorithms.html#civil_from_days
func civilFromDays(z int) (y int, m time.Month, d int) {
	z += 719468
	var era int
	if z >= 0 {
		era = z
	} else {
		era = z - 146096
	}
	era /= 146097
	doe := uint(z - era*146097)
	yoe := (doe - doe/1460 + doe/36524 - doe/146096) / 365
	y = int(yoe) + era*400
	doy := doe - (365*yoe + yoe/4 - yoe/100)
	mp := (5*doy + 2) / 153
	d = int(doy - (153*mp+2)/5 + 1)
	if mp < 10 {
		m = time.Month(mp + 3)
	} else {
		m = time.Month(mp - 9)
	}
	if m < 3 {
		y++
	}
	return
}

// Time is a wall-clock time with microsecond resolution.
type Time struct {
	Hour   int
	Minute int
	Second int
	Micro  int
}

// ParseTime parses a time in the form "HH:MM:SS", optionally followed by a
// fractional second of up to six digits (e.g., "05:30:00.25").
func ParseTime(s string) (t Time, ok bool) {
	if len(s) < len("HH:MM:SS") || s[2] != ':' || s[5] != ':' {
		return
	}
	if h, e := strconv.ParseInt(s[0:2], 10, 64); e == nil && 0 <= h && h < 24 {
		if m, e := strconv.ParseInt(s[3:5], 10, 64); e == nil && 0 <= m && m < 60 {
			if v, e := strconv.ParseInt(s[6:8], 10, 64); e == nil && 0 <= v && v < 60 {
				t.Hour = int(h)
				t.Minute = int(m)
				t.Second = int(v)
				ok = true
			}
		}
	}
	if ok && len(s) > len("HH:MM:SS") {
		f := s[8:]
		if ok = len(f) >= 2 && f[0] == '.' && len(f) <= len(".ffffff"); ok {
			us := 0
			for _, r := range f[1:] {
				if r < '0' || r > '9' {
					return Time{}, false
				}
				us = us*10 + int(r-'0')
			}
			for i := len(f) - 1; i < 6; i++ {
				us *= 10
			}
			t.Micro = us
		}
	}
	if !ok {
		t = Time{}
	}
	return
}

func (v Time) String() string {
	if v.Micro == 0 {
		return fmt.Sprintf("%02d:%02d:%02d", v.Hour, v.Minute, v.Second)
	}
	return fmt.Sprintf("%02d:%02d:%02d.%06d", v.Hour, v.Minute, v.Second, v.Micro)
}

func (v Time) WithDate(d Date) DateTime {
	return DateTime{d, v}
}

func (v Time) Less(x Time) bool {
	if v.Hour == x.Hour {
		if v.Minute == x.Minute {
			if v.Second == x.Second {
				return v.Micro < x.Micro
			}
			return v.Second < x.Second
		}
		return v.Minute < x.Minute
	}
	return v.Hour < x.Hour
}

func (v Time) Compare(x Time) int {
	if v == x {
		return 0
	}
	if v.Less(x) {
		return -1
	}
	return 1
}
