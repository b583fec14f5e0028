// Package date provides packed, comparable representations of the
// DateTime, Date, and Time-of-day values used by the value and interp
// packages.
//
// The representations here trade slower conversion to/from time.Time for
// cheap comparison and hashing, which matters because value.Value uses
// these types directly as group keys and sort keys.
package date

import (
	"fmt"
	"time"
)

// A Time represents a date and time with a nanosecond component, always
// normalized to UTC.
//
// This representation cannot store years below 0 or above 16,383. Years
// falling outside that range are truncated to fit within that range.
type Time struct {
	ts uint64
	ns uint32
}

// NewTime constructs a Time from components. Values of month, day,
// hour, min, sec, and ns outside their usual ranges are normalized.
// Values for year outside of the range [0, 16383] are truncated to fit
// within that range.
func NewTime(year, month, day, hour, min, sec, ns int) Time {
	sec, ns = norm(sec, ns, 1e9)
	min, sec = norm(min, sec, 60)
	hour, min = norm(hour, min, 60)
	day, hour = norm(day, hour, 24)
	year, month, day = normdate(year, month, day)
	return date(year, month, day, hour, min, sec, ns)
}

func date(year, month, day, hour, min, sec, ns int) Time {
	if year < 0 {
		year = 0
	} else if year > (1<<14)-1 {
		year = (1 << 14) - 1
	}
	ts := (uint64(year) & 0xffff << 40) |
		(uint64(month-1) & 0xff << 32) |
		(uint64(day-1) & 0xff << 24) |
		(uint64(hour) & 0xff << 16) |
		(uint64(min) & 0xff << 8) |
		(uint64(sec) & 0xff)
	return Time{ts: ts, ns: uint32(ns)}
}

// FromTime returns a Time equivalent to t.
func FromTime(t time.Time) Time {
	t = t.UTC()
	year, month, day := t.Year(), int(t.Month()), t.Day()
	hour, min, sec := t.Hour(), t.Minute(), t.Second()
	return date(year, month, day, hour, min, sec, t.Nanosecond())
}

// Now returns the current time, truncated to UTC.
func Now() Time {
	return FromTime(time.Now())
}

// Parse parses an RFC3339 (optionally with nanoseconds) timestamp. It
// returns the zero Time and false if s is not a recognized timestamp.
func Parse(s string) (Time, bool) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return FromTime(t), true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return FromTime(t), true
	}
	return Time{}, false
}

// Time returns t as a time.Time in UTC.
func (t Time) Time() time.Time {
	year, month, day := t.Year(), time.Month(t.Month()), t.Day()
	hour, min, sec := t.Hour(), t.Minute(), t.Second()
	return time.Date(year, month, day, hour, min, sec, int(t.ns), time.UTC)
}

// Year returns the year component of t.
func (t Time) Year() int { return int(t.ts & 0xffff0000000000 >> 40) }

// Month returns the month component of t, in the range [1, 12].
func (t Time) Month() int { return int(t.ts&0xff00000000>>32) + 1 }

// Day returns the day-of-month component of t.
func (t Time) Day() int { return int(t.ts&0xff000000>>24) + 1 }

// Hour returns the hour component of t, in the range [0, 23].
func (t Time) Hour() int { return int(t.ts & 0xff0000 >> 16) }

// Minute returns the minute component of t.
func (t Time) Minute() int { return int(t.ts & 0xff00 >> 8) }

// Second returns the second component of t.
func (t Time) Second() int { return int(t.ts & 0xff) }

// Nanosecond returns the nanosecond component of t.
func (t Time) Nanosecond() int { return int(t.ns) }

// Weekday returns the day of the week, 0 (Sunday) through 6 (Saturday).
func (t Time) Weekday() int { return int(t.Time().Weekday()) }

// Date returns the calendar-date part of t.
func (t Time) Date() Date { return Date{pk: t.ts & 0xffffffff000000} }

// Clock returns the time-of-day part of t.
func (t Time) Clock() Clock {
	return Clock{pk: t.ts & 0xffffff, ns: t.ns}
}

// Cmp returns -1, 0, or 1 as t is less than, equal to, or greater than
// t2. This gives Time a total order, as required of any value used as a
// value.Value group key.
func (t Time) Cmp(t2 Time) int {
	switch {
	case t.ts < t2.ts:
		return -1
	case t.ts > t2.ts:
		return 1
	case t.ns < t2.ns:
		return -1
	case t.ns > t2.ns:
		return 1
	default:
		return 0
	}
}

// Equal returns whether t == t2.
func (t Time) Equal(t2 Time) bool { return t == t2 }

// IsZero returns whether t is the zero value, January 1st of year zero.
func (t Time) IsZero() bool { return t == Time{} }

// String formats t as an RFC3339-like string for debugging and coercion
// to value.String.
func (t Time) String() string {
	y, mo, d := t.Year(), t.Month(), t.Day()
	h, mi, s := t.Hour(), t.Minute(), t.Second()
	if t.ns == 0 {
		return fmt.Sprintf("%04d-%02d-%02dT%02d:%02d:%02dZ", y, mo, d, h, mi, s)
	}
	return fmt.Sprintf("%04d-%02d-%02dT%02d:%02d:%02d.%09dZ", y, mo, d, h, mi, s, t.ns)
}

var monthdays = [12]int{
	31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31,
}

func isleap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

func daysin(y, m int) int {
	d := monthdays[m-1]
	if m == 2 && isleap(y) {
		d++
	}
	return d
}

func norm(hi, lo, base int) (nhi, nlo int) {
	if lo < 0 {
		n := (-lo-1)/base + 1
		hi -= n
		lo += n * base
	}
	if lo >= base {
		n := lo / base
		hi += n
		lo -= n * base
	}
	return hi, lo
}

func normdate(y, m, d int) (year, month, day int) {
	y, m = norm(y, m-1, 12)
	m++
	md := daysin(y, m)
	if d >= 1 && d <= md {
		return y, m, d
	}
	for d < 1 {
		if m--; m < 1 {
			y, m = y-1, 12
		}
		md = daysin(y, m)
		d += md
	}
	for ; d > md; md = daysin(y, m) {
		d -= md
		if m++; m > 12 {
			y, m = y+1, 1
		}
	}
	return y, m, d
}
