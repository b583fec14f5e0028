package date

import "fmt"

// Date represents a calendar date with no time-of-day component, packing
// year/month/day the same way Time does so the two remain bit-compatible
// via Time.Date and CombineDate.
type Date struct {
	pk uint64
}

// NewDate constructs a Date from components, normalizing out-of-range
// month/day values the same way NewTime(...) does for Time.
func NewDate(year, month, day int) Date {
	return NewTime(year, month, day, 0, 0, 0, 0).Date()
}

// Year returns the year component.
func (d Date) Year() int { return int(d.pk & 0xffff0000000000 >> 40) }

// Month returns the month component, in the range [1, 12].
func (d Date) Month() int { return int(d.pk&0xff00000000>>32) + 1 }

// Day returns the day-of-month component.
func (d Date) Day() int { return int(d.pk&0xff000000>>24) + 1 }

// Cmp gives Date a total order.
func (d Date) Cmp(d2 Date) int {
	switch {
	case d.pk < d2.pk:
		return -1
	case d.pk > d2.pk:
		return 1
	default:
		return 0
	}
}

// Equal reports whether d == d2.
func (d Date) Equal(d2 Date) bool { return d == d2 }

// String renders d as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year(), d.Month(), d.Day())
}

// Clock represents a time-of-day with nanosecond precision and no
// calendar component.
type Clock struct {
	pk uint64 // hour<<16 | min<<8 | sec
	ns uint32
}

// NewClock constructs a Clock from components, normalizing seconds and
// nanoseconds that overflow like NewTime(...) does.
func NewClock(hour, min, sec, ns int) Clock {
	return NewTime(0, 1, 1, hour, min, sec, ns).Clock()
}

// Hour returns the hour component, in the range [0, 23].
func (c Clock) Hour() int { return int(c.pk & 0xff0000 >> 16) }

// Minute returns the minute component.
func (c Clock) Minute() int { return int(c.pk & 0xff00 >> 8) }

// Second returns the second component.
func (c Clock) Second() int { return int(c.pk & 0xff) }

// Nanosecond returns the nanosecond component.
func (c Clock) Nanosecond() int { return int(c.ns) }

// Cmp gives Clock a total order.
func (c Clock) Cmp(c2 Clock) int {
	switch {
	case c.pk < c2.pk:
		return -1
	case c.pk > c2.pk:
		return 1
	case c.ns < c2.ns:
		return -1
	case c.ns > c2.ns:
		return 1
	default:
		return 0
	}
}

// Equal reports whether c == c2.
func (c Clock) Equal(c2 Clock) bool { return c == c2 }

// String renders c as HH:MM:SS[.nnnnnnnnn].
func (c Clock) String() string {
	if c.ns == 0 {
		return fmt.Sprintf("%02d:%02d:%02d", c.Hour(), c.Minute(), c.Second())
	}
	return fmt.Sprintf("%02d:%02d:%02d.%09d", c.Hour(), c.Minute(), c.Second(), c.ns)
}

// CombineDate returns a Time built from d's calendar components and the
// zero time-of-day, used by the weekday built-in on a Date value.
func CombineDate(d Date) Time {
	return NewTime(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0)
}
