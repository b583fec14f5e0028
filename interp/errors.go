// Package interp implements the tree-walking expression evaluator of
// spec.md §4.2: Eval, EvalBinary, EvalUnary, EvalPredicate, coercion,
// and the built-in function library. It operates purely over a
// (*ql.Arena, Env, ql.ExprRef) triple with no dependency on anything
// above the value and ql packages, per spec.md §2's layering.
package interp

import "fmt"

// EvalError is the single runtime-error surface for expression
// evaluation, per spec.md §7 "EvalError::Runtime(message)". It carries a
// human-readable message and never crashes the process.
type EvalError struct {
	Msg string
}

func (e *EvalError) Error() string { return e.Msg }

func runtimeErrorf(format string, args ...any) error {
	return &EvalError{Msg: fmt.Sprintf(format, args...)}
}
