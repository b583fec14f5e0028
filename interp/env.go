package interp

import "github.com/YoEight/eventdb/value"

// Env maps binding identifiers to the Value they are currently bound to
// for one row of evaluation. Source bindings (FROM events AS e) are
// represented as plain Env entries; GROUP BY keys are not bound here.
type Env map[string]value.Value

// Lookup resolves name, returning an EvalError per spec.md §4.2 "an
// undefined identifier raises Runtime(...)" if it is not bound.
func (e Env) Lookup(name string) (value.Value, error) {
	v, ok := e[name]
	if !ok {
		return value.Null, runtimeErrorf("undefined identifier: %s", name)
	}
	return v, nil
}
