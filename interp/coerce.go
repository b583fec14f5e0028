package interp

import (
	"strconv"

	"github.com/YoEight/eventdb/value"
)

// Coerce implements the `x AS T` operator per spec.md §4.2's exhaustive
// coercion table. Any combination not listed there raises a runtime
// error; Record and Array can never be coerced.
func Coerce(v value.Value, target value.Kind) (value.Value, error) {
	if v.IsNull() {
		return value.Null, nil
	}
	switch v.Kind() {
	case value.KindString:
		if target == value.KindString {
			return v, nil
		}
	case value.KindNumber:
		switch target {
		case value.KindNumber:
			return v, nil
		case value.KindString:
			n, _ := v.AsNumber()
			return value.String(strconv.FormatFloat(n, 'g', -1, 64)), nil
		}
	case value.KindBool:
		switch target {
		case value.KindBool:
			return v, nil
		case value.KindString:
			b, _ := v.AsBool()
			return value.String(strconv.FormatBool(b)), nil
		}
	case value.KindDateTime:
		dt, _ := v.AsDateTime()
		switch target {
		case value.KindDateTime:
			return v, nil
		case value.KindDate:
			return value.Date(dt.Date()), nil
		case value.KindTime:
			return value.Time(dt.Clock()), nil
		case value.KindString:
			return value.String(dt.String()), nil
		}
	case value.KindDate:
		d, _ := v.AsDate()
		switch target {
		case value.KindDate:
			return v, nil
		case value.KindString:
			return value.String(d.String()), nil
		}
	case value.KindTime:
		c, _ := v.AsTime()
		switch target {
		case value.KindTime:
			return v, nil
		case value.KindString:
			return value.String(c.String()), nil
		}
	}
	return value.Null, runtimeErrorf("cannot coerce %s to %s", v.Kind(), target)
}
