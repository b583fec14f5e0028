// Package value implements the polymorphic Value type shared by the
// interp and query packages: a tagged union of Null, String, Number,
// Bool, Record, Array, DateTime, Date, and Time, per spec.md §3.
//
// Value is deliberately a single owned Go struct (no arena or borrowed
// byte-slice backing, see SPEC_FULL.md §4) so it can be freely copied,
// compared, and used as a group key.
package value

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/exp/slices"

	"github.com/YoEight/eventdb/date"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindRecord
	KindArray
	KindDateTime
	KindDate
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindRecord:
		return "record"
	case KindArray:
		return "array"
	case KindDateTime:
		return "datetime"
	case KindDate:
		return "date"
	case KindTime:
		return "time"
	default:
		return "invalid"
	}
}

// Field is a single name/value pair within a Record.
type Field struct {
	Name  string
	Value Value
}

// Value is a polymorphic, immutable value produced and consumed by the
// interp and query packages.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	rec  []Field
	arr  []Value
	dt   date.Time
	d    date.Date
	tm   date.Clock
}

// Null is the singular Null value.
var Null = Value{kind: KindNull}

// String returns a Value wrapping s.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number returns a Value wrapping f.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Bool returns a Value wrapping b.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// DateTime returns a Value wrapping t.
func DateTime(t date.Time) Value { return Value{kind: KindDateTime, dt: t} }

// Date returns a Value wrapping d.
func Date(d date.Date) Value { return Value{kind: KindDate, d: d} }

// Time returns a Value wrapping the time-of-day c.
func Time(c date.Clock) Value { return Value{kind: KindTime, tm: c} }

// Record returns a Value wrapping fields, canonicalized into
// lexicographic key order per spec.md §3.
func Record(fields []Field) Value {
	sorted := slices.Clone(fields)
	slices.SortFunc(sorted, func(a, b Field) int { return strings.Compare(a.Name, b.Name) })
	return Value{kind: KindRecord, rec: sorted}
}

// Array returns a Value wrapping items in order.
func Array(items []Value) Value {
	return Value{kind: KindArray, arr: slices.Clone(items)}
}

// Kind returns v's variant tag.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is Null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsString returns v's string payload, if v is a String.
func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

// AsNumber returns v's numeric payload, if v is a Number.
func (v Value) AsNumber() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// AsBool returns v's boolean payload, if v is a Bool.
func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// AsRecord returns v's fields, if v is a Record. The returned slice is
// shared and must not be mutated.
func (v Value) AsRecord() ([]Field, bool) {
	if v.kind != KindRecord {
		return nil, false
	}
	return v.rec, true
}

// AsArray returns v's elements, if v is an Array. The returned slice is
// shared and must not be mutated.
func (v Value) AsArray() ([]Value, bool) {
	if v.kind != KindArray {
		return nil, false
	}
	return v.arr, true
}

// AsDateTime returns v's instant, if v is a DateTime.
func (v Value) AsDateTime() (date.Time, bool) {
	if v.kind != KindDateTime {
		return date.Time{}, false
	}
	return v.dt, true
}

// AsDate returns v's calendar date, if v is a Date.
func (v Value) AsDate() (date.Date, bool) {
	if v.kind != KindDate {
		return date.Date{}, false
	}
	return v.d, true
}

// AsTime returns v's time-of-day, if v is a Time.
func (v Value) AsTime() (date.Clock, bool) {
	if v.kind != KindTime {
		return date.Clock{}, false
	}
	return v.tm, true
}

// Field returns the value of the named field if v is a Record and has
// that field, or Null otherwise, per spec.md §4.2 "Missing field yields
// Null".
func (v Value) Field(name string) Value {
	if v.kind != KindRecord {
		return Null
	}
	i, ok := slices.BinarySearchFunc(v.rec, name, func(f Field, name string) int {
		return strings.Compare(f.Name, name)
	})
	if !ok {
		return Null
	}
	return v.rec[i].Value
}

// totalCmpFloat orders floats the way the spec requires: NaN forms a
// single equivalence class greater than all finite values (and equal to
// other NaNs), otherwise standard numeric order.
func totalCmpFloat(a, b float64) int {
	an, bn := math.IsNaN(a), math.IsNaN(b)
	switch {
	case an && bn:
		return 0
	case an:
		return 1
	case bn:
		return -1
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Compare gives Value a total order across all kinds, so it can serve as
// a sort key (ORDER BY) and a group key (GROUP BY), per spec.md §3's
// "Value must be totally orderable and hashable" invariant. Values of
// different kinds are ordered by Kind first.
func Compare(a, b Value) int {
	if a.kind != b.kind {
		if a.kind < b.kind {
			return -1
		}
		return 1
	}
	switch a.kind {
	case KindNull:
		return 0
	case KindString:
		return strings.Compare(a.str, b.str)
	case KindNumber:
		return totalCmpFloat(a.num, b.num)
	case KindBool:
		if a.b == b.b {
			return 0
		}
		if !a.b {
			return -1
		}
		return 1
	case KindDateTime:
		return a.dt.Cmp(b.dt)
	case KindDate:
		return a.d.Cmp(b.d)
	case KindTime:
		return a.tm.Cmp(b.tm)
	case KindRecord:
		return compareRecords(a.rec, b.rec)
	case KindArray:
		return compareArrays(a.arr, b.arr)
	default:
		return 0
	}
}

func compareRecords(a, b []Field) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if c := strings.Compare(a[i].Name, b[i].Name); c != 0 {
			return c
		}
		if c := Compare(a[i].Value, b[i].Value); c != 0 {
			return c
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

func compareArrays(a, b []Value) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if c := Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

// Equal implements the `=` operator's equality semantics, which differ
// from Compare()==0 in one respect: two NaN Numbers are equal under
// Compare (needed for a total order) but spec.md §4.2 only defines `=`
// on identical-type pairs with ordinary equality, and leaves NaN
// equality to follow IEEE-754 (NaN != NaN). Equal therefore special
// cases Number explicitly rather than delegating to Compare.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindString:
		return a.str == b.str
	case KindNumber:
		return a.num == b.num
	case KindBool:
		return a.b == b.b
	case KindDateTime:
		return a.dt.Equal(b.dt)
	case KindDate:
		return a.d.Equal(b.d)
	case KindTime:
		return a.tm.Equal(b.tm)
	case KindRecord:
		return recordEqual(a.rec, b.rec)
	case KindArray:
		return arrayEqual(a.arr, b.arr)
	default:
		return false
	}
}

// recordEqual implements textbook elementwise equality: every field in a
// must have a same-named, equal-valued counterpart in b, and the two
// must have the same number of fields. spec.md §9(a) notes a candidate
// implementation of this routine inverts the condition on an *equal*
// field, short-circuiting to false; that bug is intentionally not
// reproduced here (see DESIGN.md Open Question (a)).
func recordEqual(a, b []Field) bool {
	if len(a) != len(b) {
		return false
	}
	// a and b are both kept in sorted-by-name order by Record(), so a
	// straight positional walk is sufficient.
	for i := range a {
		if a[i].Name != b[i].Name {
			return false
		}
		if !Equal(a[i].Value, b[i].Value) {
			return false
		}
	}
	return true
}

func arrayEqual(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// Key returns a canonical string encoding of v suitable for use as a Go
// map key when grouping rows by value (GROUP BY), so that Key(a) ==
// Key(b) iff Compare(a, b) == 0. Like Compare (and unlike Equal), it
// puts every NaN in one group.
func Key(v Value) string {
	var sb strings.Builder
	writeKey(&sb, v)
	return sb.String()
}

func writeKey(sb *strings.Builder, v Value) {
	switch v.kind {
	case KindNull:
		sb.WriteString("n:")
	case KindString:
		fmt.Fprintf(sb, "s:%q", v.str)
	case KindNumber:
		switch {
		case math.IsNaN(v.num):
			sb.WriteString("f:NaN")
		case v.num == 0:
			sb.WriteString("f:0") // -0 and 0 compare equal
		default:
			fmt.Fprintf(sb, "f:%v", v.num)
		}
	case KindBool:
		fmt.Fprintf(sb, "b:%v", v.b)
	case KindDateTime:
		fmt.Fprintf(sb, "dt:%s", v.dt.String())
	case KindDate:
		fmt.Fprintf(sb, "d:%s", v.d.String())
	case KindTime:
		fmt.Fprintf(sb, "t:%s", v.tm.String())
	case KindRecord:
		sb.WriteString("r{")
		for i, f := range v.rec {
			if i > 0 {
				sb.WriteByte(',')
			}
			fmt.Fprintf(sb, "%q=", f.Name)
			writeKey(sb, f.Value)
		}
		sb.WriteByte('}')
	case KindArray:
		sb.WriteString("a[")
		for i, e := range v.arr {
			if i > 0 {
				sb.WriteByte(',')
			}
			writeKey(sb, e)
		}
		sb.WriteByte(']')
	}
}

// String renders v for debugging and diagnostics (not the `AS string`
// coercion, see interp.Coerce).
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindString:
		return v.str
	case KindNumber:
		return fmt.Sprintf("%v", v.num)
	case KindBool:
		return fmt.Sprintf("%v", v.b)
	case KindDateTime:
		return v.dt.String()
	case KindDate:
		return v.d.String()
	case KindTime:
		return v.tm.String()
	case KindRecord:
		var sb strings.Builder
		sb.WriteByte('{')
		for i, f := range v.rec {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%s: %s", f.Name, f.Value.String())
		}
		sb.WriteByte('}')
		return sb.String()
	case KindArray:
		var sb strings.Builder
		sb.WriteByte('[')
		for i, e := range v.arr {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(e.String())
		}
		sb.WriteByte(']')
		return sb.String()
	default:
		return "<invalid>"
	}
}
