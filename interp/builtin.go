package interp

import (
	"math"
	"math/rand"
	"strings"

	"github.com/YoEight/eventdb/date"
	"github.com/YoEight/eventdb/value"
)

// builtin is the signature every built-in function implements, taking
// its already-evaluated argument values (spec.md §4.2's "if(cond, then,
// else) — both branches evaluate eagerly" applies to every built-in,
// not only if, since Eval evaluates all App arguments before dispatch).
type builtin func(args []value.Value) (value.Value, error)

// builtins is the case-insensitive dispatch table of spec.md §4.2's
// fixed built-in function library, modeled on the teacher's
// name-to-behavior lookup in expr/builtin.go (binfo{check, ...}), here
// collapsed to one arity+type-checking closure per function since this
// package has no separate static-check phase.
var builtins = map[string]builtin{
	// numeric
	"abs":   numeric1(math.Abs),
	"ceil":  numeric1(math.Ceil),
	"floor": numeric1(math.Floor),
	"round": numeric1(math.Round),
	"cos":   numeric1(math.Cos),
	"sin":   numeric1(math.Sin),
	"tan":   numeric1(math.Tan),
	"exp":   numeric1(math.Exp),
	"sqrt":  numeric1(math.Sqrt),
	"pow":   biPow,
	"rand":  biRand,
	"pi":    biPi,

	// string
	"lower":      str1(strings.ToLower),
	"upper":      str1(strings.ToUpper),
	"trim":       str1(strings.TrimSpace),
	"ltrim":      str1(func(s string) string { return strings.TrimLeft(s, " \t\n\r") }),
	"rtrim":      str1(func(s string) string { return strings.TrimRight(s, " \t\n\r") }),
	"len":        biLen,
	"instr":      biInstr,
	"substring":  biSubstring,
	"replace":    biReplace,
	"startswith": biStartsWith,
	"endswith":   biEndsWith,

	// date/time
	"now":     biNow,
	"year":    biYear,
	"month":   biMonth,
	"day":     biDay,
	"hour":    biHour,
	"minute":  biMinute,
	"weekday": biWeekday,

	// conditional
	"if": biIf,
}

// CallBuiltin dispatches a built-in function call by name
// (case-insensitively) with already-evaluated arguments. An unknown
// function name, or arguments that don't type-check for the matched
// function, raise the runtime error specified in spec.md §4.2.
func CallBuiltin(name string, args []value.Value) (value.Value, error) {
	fn, ok := builtins[strings.ToLower(name)]
	if !ok {
		return value.Null, runtimeErrorf("unknown function or invalid arguments: %s", name)
	}
	v, err := fn(args)
	if err != nil {
		return value.Null, runtimeErrorf("unknown function or invalid arguments: %s", name)
	}
	return v, nil
}

func numeric1(f func(float64) float64) builtin {
	return func(args []value.Value) (value.Value, error) {
		if len(args) != 1 {
			return value.Null, runtimeErrorf("wrong arity")
		}
		n, ok := args[0].AsNumber()
		if !ok {
			return value.Null, runtimeErrorf("not a number")
		}
		return value.Number(f(n)), nil
	}
}

func str1(f func(string) string) builtin {
	return func(args []value.Value) (value.Value, error) {
		if len(args) != 1 {
			return value.Null, runtimeErrorf("wrong arity")
		}
		s, ok := args[0].AsString()
		if !ok {
			return value.Null, runtimeErrorf("not a string")
		}
		return value.String(f(s)), nil
	}
}

func biPow(args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return value.Null, runtimeErrorf("wrong arity")
	}
	x, ok1 := args[0].AsNumber()
	y, ok2 := args[1].AsNumber()
	if !ok1 || !ok2 {
		return value.Null, runtimeErrorf("not numbers")
	}
	return value.Number(math.Pow(x, float64(int64(y)))), nil
}

func biRand(args []value.Value) (value.Value, error) {
	if len(args) != 0 {
		return value.Null, runtimeErrorf("wrong arity")
	}
	return value.Number(rand.Float64()), nil
}

func biPi(args []value.Value) (value.Value, error) {
	if len(args) != 0 {
		return value.Null, runtimeErrorf("wrong arity")
	}
	return value.Number(math.Pi), nil
}

// biLen returns the byte length of a string, per spec.md §4.2 "len
// (byte length)".
func biLen(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Null, runtimeErrorf("wrong arity")
	}
	s, ok := args[0].AsString()
	if !ok {
		return value.Null, runtimeErrorf("not a string")
	}
	return value.Number(float64(len(s))), nil
}

// biInstr returns the 1-based index of needle within haystack, or 0 if
// not found, per spec.md §4.2.
func biInstr(args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return value.Null, runtimeErrorf("wrong arity")
	}
	haystack, ok1 := args[0].AsString()
	needle, ok2 := args[1].AsString()
	if !ok1 || !ok2 {
		return value.Null, runtimeErrorf("not strings")
	}
	idx := strings.Index(haystack, needle)
	if idx < 0 {
		return value.Number(0), nil
	}
	return value.Number(float64(idx + 1)), nil
}

// biSubstring implements substring(s, start, length) using 1-based,
// character (rune) indices per spec.md §4.2.
func biSubstring(args []value.Value) (value.Value, error) {
	if len(args) != 3 {
		return value.Null, runtimeErrorf("wrong arity")
	}
	s, ok1 := args[0].AsString()
	startF, ok2 := args[1].AsNumber()
	lenF, ok3 := args[2].AsNumber()
	if !ok1 || !ok2 || !ok3 {
		return value.Null, runtimeErrorf("bad argument types")
	}
	runes := []rune(s)
	start := int(startF) - 1
	length := int(lenF)
	if start < 0 {
		start = 0
	}
	if start > len(runes) {
		start = len(runes)
	}
	end := start + length
	if length < 0 || end > len(runes) {
		end = len(runes)
	}
	if end < start {
		end = start
	}
	return value.String(string(runes[start:end])), nil
}

func biReplace(args []value.Value) (value.Value, error) {
	if len(args) != 3 {
		return value.Null, runtimeErrorf("wrong arity")
	}
	s, ok1 := args[0].AsString()
	from, ok2 := args[1].AsString()
	to, ok3 := args[2].AsString()
	if !ok1 || !ok2 || !ok3 {
		return value.Null, runtimeErrorf("bad argument types")
	}
	return value.String(strings.ReplaceAll(s, from, to)), nil
}

func biStartsWith(args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return value.Null, runtimeErrorf("wrong arity")
	}
	s, ok1 := args[0].AsString()
	prefix, ok2 := args[1].AsString()
	if !ok1 || !ok2 {
		return value.Null, runtimeErrorf("not strings")
	}
	return value.Bool(strings.HasPrefix(s, prefix)), nil
}

func biEndsWith(args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return value.Null, runtimeErrorf("wrong arity")
	}
	s, ok1 := args[0].AsString()
	suffix, ok2 := args[1].AsString()
	if !ok1 || !ok2 {
		return value.Null, runtimeErrorf("not strings")
	}
	return value.Bool(strings.HasSuffix(s, suffix)), nil
}

func biNow(args []value.Value) (value.Value, error) {
	if len(args) != 0 {
		return value.Null, runtimeErrorf("wrong arity")
	}
	return value.DateTime(date.Now()), nil
}

// dateTimeOrDate extracts a date.Date from either a DateTime or a Date
// value, per spec.md §4.2 "year, month, day (DateTime or Date)".
func dateTimeOrDate(v value.Value) (date.Date, bool) {
	if dt, ok := v.AsDateTime(); ok {
		return dt.Date(), true
	}
	if d, ok := v.AsDate(); ok {
		return d, true
	}
	return date.Date{}, false
}

// dateTimeOrClock extracts a date.Clock from either a DateTime or a
// Time value, per spec.md §4.2 "hour, minute (DateTime or Time)".
func dateTimeOrClock(v value.Value) (date.Clock, bool) {
	if dt, ok := v.AsDateTime(); ok {
		return dt.Clock(), true
	}
	if c, ok := v.AsTime(); ok {
		return c, true
	}
	return date.Clock{}, false
}

func biYear(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Null, runtimeErrorf("wrong arity")
	}
	d, ok := dateTimeOrDate(args[0])
	if !ok {
		return value.Null, runtimeErrorf("requires DateTime or Date")
	}
	return value.Number(float64(d.Year())), nil
}

func biMonth(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Null, runtimeErrorf("wrong arity")
	}
	d, ok := dateTimeOrDate(args[0])
	if !ok {
		return value.Null, runtimeErrorf("requires DateTime or Date")
	}
	return value.Number(float64(d.Month())), nil
}

func biDay(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Null, runtimeErrorf("wrong arity")
	}
	d, ok := dateTimeOrDate(args[0])
	if !ok {
		return value.Null, runtimeErrorf("requires DateTime or Date")
	}
	return value.Number(float64(d.Day())), nil
}

func biHour(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Null, runtimeErrorf("wrong arity")
	}
	c, ok := dateTimeOrClock(args[0])
	if !ok {
		return value.Null, runtimeErrorf("requires DateTime or Time")
	}
	return value.Number(float64(c.Hour())), nil
}

func biMinute(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Null, runtimeErrorf("wrong arity")
	}
	c, ok := dateTimeOrClock(args[0])
	if !ok {
		return value.Null, runtimeErrorf("requires DateTime or Time")
	}
	return value.Number(float64(c.Minute())), nil
}

// biWeekday returns 0 (Sunday) through 6 (Saturday), per spec.md §4.2.
func biWeekday(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Null, runtimeErrorf("wrong arity")
	}
	if dt, ok := args[0].AsDateTime(); ok {
		return value.Number(float64(dt.Weekday())), nil
	}
	if d, ok := args[0].AsDate(); ok {
		return value.Number(float64(date.CombineDate(d).Weekday())), nil
	}
	return value.Null, runtimeErrorf("requires DateTime or Date")
}

// biIf implements if(cond, then, else); both branches have already been
// evaluated eagerly by the caller (Eval), per spec.md §4.2.
func biIf(args []value.Value) (value.Value, error) {
	if len(args) != 3 {
		return value.Null, runtimeErrorf("wrong arity")
	}
	cond, ok := args[0].AsBool()
	if !ok {
		return value.Null, runtimeErrorf("condition is not a Bool")
	}
	if cond {
		return args[1], nil
	}
	return args[2], nil
}
