package interp

import (
	"github.com/YoEight/eventdb/ql"
	"github.com/YoEight/eventdb/value"
)

// EvalBinary implements the binary operators of spec.md §4.2: arithmetic
// on (Number, Number); comparisons on identical-type pairs of
// String/Number/Bool/DateTime/Date/Time, plus `=`/`<>` on Record and
// Array via elementwise equality; AND/OR/XOR on (Bool, Bool); CONTAINS
// on (Array, T). Unsupported combinations raise a runtime error.
func EvalBinary(op ql.BinOp, lhs, rhs value.Value) (value.Value, error) {
	switch op {
	case ql.Add, ql.Sub, ql.Mul, ql.Div:
		return evalArith(op, lhs, rhs)
	case ql.Eq:
		return evalEq(lhs, rhs, true)
	case ql.Neq:
		return evalEq(lhs, rhs, false)
	case ql.Lt, ql.Le, ql.Gt, ql.Ge:
		return evalCompareOrder(op, lhs, rhs)
	case ql.And, ql.Or, ql.Xor:
		return evalBoolOp(op, lhs, rhs)
	case ql.Contains:
		return evalContains(lhs, rhs)
	default:
		return value.Null, runtimeErrorf("unsupported binary operator")
	}
}

func evalArith(op ql.BinOp, lhs, rhs value.Value) (value.Value, error) {
	a, aok := lhs.AsNumber()
	b, bok := rhs.AsNumber()
	if !aok || !bok {
		return value.Null, runtimeErrorf("arithmetic operator requires (Number, Number), got (%s, %s)", lhs.Kind(), rhs.Kind())
	}
	switch op {
	case ql.Add:
		return value.Number(a + b), nil
	case ql.Sub:
		return value.Number(a - b), nil
	case ql.Mul:
		return value.Number(a * b), nil
	case ql.Div:
		return value.Number(a / b), nil
	default:
		panic("unreachable")
	}
}

func evalEq(lhs, rhs value.Value, want bool) (value.Value, error) {
	if !sameEqualityClass(lhs, rhs) {
		return value.Null, runtimeErrorf("= / <> require identical-type operands (or Record/Array), got (%s, %s)", lhs.Kind(), rhs.Kind())
	}
	eq := value.Equal(lhs, rhs)
	return value.Bool(eq == want), nil
}

func sameEqualityClass(lhs, rhs value.Value) bool {
	if lhs.Kind() != rhs.Kind() {
		return false
	}
	switch lhs.Kind() {
	case value.KindString, value.KindNumber, value.KindBool,
		value.KindDateTime, value.KindDate, value.KindTime,
		value.KindRecord, value.KindArray:
		return true
	default:
		return false
	}
}

func evalCompareOrder(op ql.BinOp, lhs, rhs value.Value) (value.Value, error) {
	switch lhs.Kind() {
	case value.KindString, value.KindNumber, value.KindBool,
		value.KindDateTime, value.KindDate, value.KindTime:
	default:
		return value.Null, runtimeErrorf("ordering comparisons require identical scalar-type operands, got (%s, %s)", lhs.Kind(), rhs.Kind())
	}
	if lhs.Kind() != rhs.Kind() {
		return value.Null, runtimeErrorf("ordering comparisons require identical-type operands, got (%s, %s)", lhs.Kind(), rhs.Kind())
	}
	c := value.Compare(lhs, rhs)
	switch op {
	case ql.Lt:
		return value.Bool(c < 0), nil
	case ql.Le:
		return value.Bool(c <= 0), nil
	case ql.Gt:
		return value.Bool(c > 0), nil
	case ql.Ge:
		return value.Bool(c >= 0), nil
	default:
		panic("unreachable")
	}
}

func evalBoolOp(op ql.BinOp, lhs, rhs value.Value) (value.Value, error) {
	a, aok := lhs.AsBool()
	b, bok := rhs.AsBool()
	if !aok || !bok {
		return value.Null, runtimeErrorf("%s requires (Bool, Bool), got (%s, %s)", op, lhs.Kind(), rhs.Kind())
	}
	switch op {
	case ql.And:
		return value.Bool(a && b), nil
	case ql.Or:
		return value.Bool(a || b), nil
	case ql.Xor:
		return value.Bool(a != b), nil
	default:
		panic("unreachable")
	}
}

func evalContains(lhs, rhs value.Value) (value.Value, error) {
	items, ok := lhs.AsArray()
	if !ok {
		return value.Null, runtimeErrorf("CONTAINS requires (Array, T), got (%s, %s)", lhs.Kind(), rhs.Kind())
	}
	for _, it := range items {
		if sameEqualityClass(it, rhs) && value.Equal(it, rhs) {
			return value.Bool(true), nil
		}
	}
	return value.Bool(false), nil
}
