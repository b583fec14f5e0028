package interp

import (
	"github.com/YoEight/eventdb/ql"
	"github.com/YoEight/eventdb/value"
)

// Eval evaluates the expression referenced by ref within arena against
// env, returning a polymorphic value.Value or a runtime EvalError, per
// spec.md §4.2. It is a pure function of (arena, env, ref): nothing here
// mutates the arena or env.
func Eval(arena *ql.Arena, env Env, ref ql.ExprRef) (value.Value, error) {
	if ref == ql.NoExpr {
		return value.Null, runtimeErrorf("no expression to evaluate")
	}
	switch arena.Kind(ref) {
	case ql.KLit:
		return arena.LitValue(ref), nil

	case ql.KIdent:
		return env.Lookup(arena.IdentName(ref))

	case ql.KBinary:
		op, lref, rref := arena.BinaryParts(ref)
		lhs, err := Eval(arena, env, lref)
		if err != nil {
			return value.Null, err
		}
		rhs, err := Eval(arena, env, rref)
		if err != nil {
			return value.Null, err
		}
		return EvalBinary(op, lhs, rhs)

	case ql.KUnary:
		op, oref := arena.UnaryParts(ref)
		operand, err := Eval(arena, env, oref)
		if err != nil {
			return value.Null, err
		}
		return EvalUnary(op, operand)

	case ql.KApp:
		name, argRefs := arena.AppParts(ref)
		args := make([]value.Value, len(argRefs))
		for i, aref := range argRefs {
			v, err := Eval(arena, env, aref)
			if err != nil {
				return value.Null, err
			}
			args[i] = v
		}
		return CallBuiltin(name, args)

	case ql.KField:
		baseRef, name := arena.FieldParts(ref)
		base, err := Eval(arena, env, baseRef)
		if err != nil {
			return value.Null, err
		}
		if base.Kind() != value.KindRecord {
			return value.Null, runtimeErrorf("field access on non-record value: %s", base.Kind())
		}
		return base.Field(name), nil

	case ql.KIndex:
		baseRef, atRef := arena.IndexParts(ref)
		base, err := Eval(arena, env, baseRef)
		if err != nil {
			return value.Null, err
		}
		items, ok := base.AsArray()
		if !ok {
			return value.Null, runtimeErrorf("index access on non-array value: %s", base.Kind())
		}
		at, err := Eval(arena, env, atRef)
		if err != nil {
			return value.Null, err
		}
		idxF, ok := at.AsNumber()
		if !ok {
			return value.Null, runtimeErrorf("array index must be a Number, got %s", at.Kind())
		}
		idx := int(idxF)
		if idx < 0 || idx >= len(items) {
			return value.Null, nil
		}
		return items[idx], nil

	case ql.KRecord:
		fieldRefs := arena.RecordFields(ref)
		fields := make([]value.Field, len(fieldRefs))
		for i, f := range fieldRefs {
			v, err := Eval(arena, env, f.Value)
			if err != nil {
				return value.Null, err
			}
			fields[i] = value.Field{Name: f.Name, Value: v}
		}
		return value.Record(fields), nil

	case ql.KArray:
		itemRefs := arena.ArrayItems(ref)
		items := make([]value.Value, len(itemRefs))
		for i, iref := range itemRefs {
			v, err := Eval(arena, env, iref)
			if err != nil {
				return value.Null, err
			}
			items[i] = v
		}
		return value.Array(items), nil

	case ql.KCoerce:
		innerRef, target := arena.CoerceParts(ref)
		v, err := Eval(arena, env, innerRef)
		if err != nil {
			return value.Null, err
		}
		return Coerce(v, target)

	case ql.KGroup:
		return Eval(arena, env, arena.GroupInner(ref))

	default:
		return value.Null, runtimeErrorf("unrecognized expression node")
	}
}

// EvalPredicate evaluates ref and requires the result to be a Bool,
// as used for WHERE and HAVING clauses.
func EvalPredicate(arena *ql.Arena, env Env, ref ql.ExprRef) (bool, error) {
	v, err := Eval(arena, env, ref)
	if err != nil {
		return false, err
	}
	b, ok := v.AsBool()
	if !ok {
		return false, runtimeErrorf("predicate did not evaluate to Bool, got %s", v.Kind())
	}
	return b, nil
}
