package interp

import (
	"github.com/YoEight/eventdb/ql"
	"github.com/YoEight/eventdb/value"
)

// EvalUnary implements the unary operators of spec.md §4.2: `+`/`-`
// require Number, `!` requires Bool. Any other operator, or a mismatched
// operand, raises a runtime error.
func EvalUnary(op ql.UnOp, operand value.Value) (value.Value, error) {
	switch op {
	case ql.Pos, ql.Neg:
		n, ok := operand.AsNumber()
		if !ok {
			return value.Null, runtimeErrorf("unary %s requires Number, got %s", op, operand.Kind())
		}
		if op == ql.Neg {
			return value.Number(-n), nil
		}
		return value.Number(n), nil
	case ql.Not:
		b, ok := operand.AsBool()
		if !ok {
			return value.Null, runtimeErrorf("unary ! requires Bool, got %s", operand.Kind())
		}
		return value.Bool(!b), nil
	default:
		return value.Null, runtimeErrorf("unsupported unary operator")
	}
}
