package query

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/YoEight/eventdb/interp"
	"github.com/YoEight/eventdb/ql"
	"github.com/YoEight/eventdb/value"
)

// Accumulator folds a stream of per-row argument values into a running
// state and produces a final Value, per spec.md §4.3's aggregate
// protocol.
type Accumulator interface {
	Fold(args []value.Value) error
	Complete() value.Value
}

var aggregateNames = map[string]bool{
	"count": true, "avg": true, "unique": true,
	"sum": true, "min": true, "max": true,
	"median": true, "stddev": true, "variance": true,
}

func isAggregateName(name string) bool {
	return aggregateNames[strings.ToLower(name)]
}

func newAccumulator(name string) (Accumulator, error) {
	switch strings.ToLower(name) {
	case "count":
		return &countAcc{}, nil
	case "avg":
		return &avgAcc{}, nil
	case "unique":
		return &uniqueAcc{}, nil
	case "sum":
		return &sumAcc{}, nil
	case "min":
		return &extremeAcc{wantMin: true}, nil
	case "max":
		return &extremeAcc{wantMin: false}, nil
	case "median":
		return &medianAcc{}, nil
	case "stddev":
		return &spreadAcc{stddev: true}, nil
	case "variance":
		return &spreadAcc{stddev: false}, nil
	default:
		return nil, fmt.Errorf("query: unknown aggregate function %q", name)
	}
}

// countAcc implements spec.md §4.3's "count() (no-arg counts rows;
// one-arg counts rows where v is true)", and the Open Question (b)
// resolution: a non-Bool argument does not increment.
type countAcc struct{ n int }

func (a *countAcc) Fold(args []value.Value) error {
	if len(args) == 0 {
		a.n++
		return nil
	}
	if b, ok := args[0].AsBool(); ok && b {
		a.n++
	}
	return nil
}

func (a *countAcc) Complete() value.Value { return value.Number(float64(a.n)) }

// avgAcc folds a number into (count, sum); a non-number argument
// poisons the accumulator to NaN, per spec.md §4.3.
type avgAcc struct {
	count    int
	sum      float64
	poisoned bool
}

func (a *avgAcc) Fold(args []value.Value) error {
	if len(args) != 1 {
		return fmt.Errorf("query: avg expects 1 argument, got %d", len(args))
	}
	n, ok := args[0].AsNumber()
	if !ok {
		a.poisoned = true
		return nil
	}
	a.count++
	a.sum += n
	return nil
}

func (a *avgAcc) Complete() value.Value {
	if a.poisoned {
		return value.Number(math.NaN())
	}
	if a.count == 0 {
		return value.Number(0)
	}
	return value.Number(a.sum / float64(a.count))
}

// uniqueAcc captures the first value seen and keeps it, per spec.md
// §4.3.
type uniqueAcc struct {
	v   value.Value
	has bool
}

func (a *uniqueAcc) Fold(args []value.Value) error {
	if len(args) != 1 {
		return fmt.Errorf("query: unique expects 1 argument, got %d", len(args))
	}
	if !a.has {
		a.v = args[0]
		a.has = true
	}
	return nil
}

func (a *uniqueAcc) Complete() value.Value {
	if !a.has {
		return value.Null
	}
	return a.v
}

// sumAcc is a supplemental accumulator following the same fold
// protocol as avg: a non-number argument poisons the running total.
type sumAcc struct {
	sum      float64
	poisoned bool
}

func (a *sumAcc) Fold(args []value.Value) error {
	if len(args) != 1 {
		return fmt.Errorf("query: sum expects 1 argument, got %d", len(args))
	}
	n, ok := args[0].AsNumber()
	if !ok {
		a.poisoned = true
		return nil
	}
	a.sum += n
	return nil
}

func (a *sumAcc) Complete() value.Value {
	if a.poisoned {
		return value.Number(math.NaN())
	}
	return value.Number(a.sum)
}

// extremeAcc implements min/max by total ordering over Value, so that
// it is well defined across mixed-kind groups (it simply prefers the
// lesser/greater under value.Compare).
type extremeAcc struct {
	v       value.Value
	has     bool
	wantMin bool
}

func (a *extremeAcc) Fold(args []value.Value) error {
	if len(args) != 1 {
		return fmt.Errorf("query: min/max expects 1 argument, got %d", len(args))
	}
	v := args[0]
	if !a.has {
		a.v, a.has = v, true
		return nil
	}
	c := value.Compare(v, a.v)
	if (a.wantMin && c < 0) || (!a.wantMin && c > 0) {
		a.v = v
	}
	return nil
}

func (a *extremeAcc) Complete() value.Value {
	if !a.has {
		return value.Null
	}
	return a.v
}

// medianAcc collects numeric arguments and computes the median at
// completion time.
type medianAcc struct{ nums []float64 }

func (a *medianAcc) Fold(args []value.Value) error {
	if len(args) != 1 {
		return fmt.Errorf("query: median expects 1 argument, got %d", len(args))
	}
	n, ok := args[0].AsNumber()
	if !ok {
		return fmt.Errorf("query: median requires a Number, got %s", args[0].Kind())
	}
	a.nums = append(a.nums, n)
	return nil
}

func (a *medianAcc) Complete() value.Value {
	if len(a.nums) == 0 {
		return value.Number(0)
	}
	nums := append([]float64(nil), a.nums...)
	sort.Float64s(nums)
	mid := len(nums) / 2
	if len(nums)%2 == 1 {
		return value.Number(nums[mid])
	}
	return value.Number((nums[mid-1] + nums[mid]) / 2)
}

// spreadAcc computes population variance or, when stddev is set, its
// square root.
type spreadAcc struct {
	nums   []float64
	stddev bool
}

func (a *spreadAcc) Fold(args []value.Value) error {
	if len(args) != 1 {
		return fmt.Errorf("query: stddev/variance expects 1 argument, got %d", len(args))
	}
	n, ok := args[0].AsNumber()
	if !ok {
		return fmt.Errorf("query: stddev/variance requires a Number, got %s", args[0].Kind())
	}
	a.nums = append(a.nums, n)
	return nil
}

func (a *spreadAcc) Complete() value.Value {
	if len(a.nums) == 0 {
		return value.Number(0)
	}
	var mean float64
	for _, n := range a.nums {
		mean += n
	}
	mean /= float64(len(a.nums))
	var variance float64
	for _, n := range a.nums {
		d := n - mean
		variance += d * d
	}
	variance /= float64(len(a.nums))
	if a.stddev {
		return value.Number(math.Sqrt(variance))
	}
	return value.Number(variance)
}

// appSite is one deduplicated aggregate application found while
// scanning a query's projection, HAVING, and ORDER BY expressions.
type appSite struct {
	ref  ql.ExprRef
	key  string
	name string
}

// collectAggSites walks the projection, optional HAVING, and optional
// ORDER BY key of q, collecting every aggregate application node,
// deduplicated by AppKey per spec.md §9's "Aggregate application"
// dedup rule. It does not descend into an aggregate call's own
// arguments: nested aggregates are not part of this query language.
func collectAggSites(arena *ql.Arena, q *ql.Query) []appSite {
	seen := make(map[string]bool)
	var sites []appSite

	var walk func(ref ql.ExprRef)
	walk = func(ref ql.ExprRef) {
		if ref == ql.NoExpr {
			return
		}
		switch arena.Kind(ref) {
		case ql.KLit, ql.KIdent:
		case ql.KBinary:
			_, l, r := arena.BinaryParts(ref)
			walk(l)
			walk(r)
		case ql.KUnary:
			_, o := arena.UnaryParts(ref)
			walk(o)
		case ql.KApp:
			name, args := arena.AppParts(ref)
			if isAggregateName(name) {
				key := arena.AppKey(ref)
				if !seen[key] {
					seen[key] = true
					sites = append(sites, appSite{ref: ref, key: key, name: name})
				}
				return
			}
			for _, a := range args {
				walk(a)
			}
		case ql.KField:
			b, _ := arena.FieldParts(ref)
			walk(b)
		case ql.KIndex:
			b, at := arena.IndexParts(ref)
			walk(b)
			walk(at)
		case ql.KRecord:
			for _, f := range arena.RecordFields(ref) {
				walk(f.Value)
			}
		case ql.KArray:
			for _, it := range arena.ArrayItems(ref) {
				walk(it)
			}
		case ql.KCoerce:
			inner, _ := arena.CoerceParts(ref)
			walk(inner)
		case ql.KGroup:
			walk(arena.GroupInner(ref))
		}
	}

	walk(q.Projection)
	if q.GroupBy != nil {
		walk(q.GroupBy.Having)
	}
	if q.OrderBy != nil {
		walk(q.OrderBy.Key)
	}
	return sites
}

// bucket owns one set of accumulators, one per deduplicated aggregate
// application, for either the single (non-grouped) aggregate result or
// one GROUP BY group.
type bucket struct {
	accs map[string]Accumulator
}

func newBucket(sites []appSite) (*bucket, error) {
	accs := make(map[string]Accumulator, len(sites))
	for _, s := range sites {
		acc, err := newAccumulator(s.name)
		if err != nil {
			return nil, err
		}
		accs[s.key] = acc
	}
	return &bucket{accs: accs}, nil
}

func (b *bucket) fold(arena *ql.Arena, env interp.Env, sites []appSite) error {
	for _, s := range sites {
		_, argRefs := arena.AppParts(s.ref)
		args := make([]value.Value, len(argRefs))
		for i, aref := range argRefs {
			v, err := interp.Eval(arena, env, aref)
			if err != nil {
				return err
			}
			args[i] = v
		}
		if err := b.accs[s.key].Fold(args); err != nil {
			return err
		}
	}
	return nil
}

func (b *bucket) completedValues() map[string]value.Value {
	out := make(map[string]value.Value, len(b.accs))
	for k, acc := range b.accs {
		out[k] = acc.Complete()
	}
	return out
}

// evalCompletion re-evaluates an expression subtree during the
// aggregate completion pass, per spec.md §4.3: any subtree whose
// canonical rendering matches the GROUP BY key expression is
// substituted with that group's key value (the same subtree-identity
// technique used for aggregate application dedup); any App node that
// is one of this bucket's aggregate applications is substituted with
// its Complete() value; everything else is re-evaluated structurally
// against no row environment, so a bare identifier or field access that
// isn't covered by one of those two substitutions is a runtime error.
func evalCompletion(arena *ql.Arena, aggValues map[string]value.Value, groupKeyRendered string, groupKeyValue value.Value, ref ql.ExprRef) (value.Value, error) {
	if ref == ql.NoExpr {
		return value.Bool(true), nil
	}
	if groupKeyRendered != "" && arena.ExprKey(ref) == groupKeyRendered {
		return groupKeyValue, nil
	}
	switch arena.Kind(ref) {
	case ql.KLit:
		return arena.LitValue(ref), nil
	case ql.KBinary:
		op, l, r := arena.BinaryParts(ref)
		lv, err := evalCompletion(arena, aggValues, groupKeyRendered, groupKeyValue, l)
		if err != nil {
			return value.Null, err
		}
		rv, err := evalCompletion(arena, aggValues, groupKeyRendered, groupKeyValue, r)
		if err != nil {
			return value.Null, err
		}
		return interp.EvalBinary(op, lv, rv)
	case ql.KUnary:
		op, o := arena.UnaryParts(ref)
		ov, err := evalCompletion(arena, aggValues, groupKeyRendered, groupKeyValue, o)
		if err != nil {
			return value.Null, err
		}
		return interp.EvalUnary(op, ov)
	case ql.KApp:
		key := arena.AppKey(ref)
		if v, ok := aggValues[key]; ok {
			return v, nil
		}
		name, argRefs := arena.AppParts(ref)
		args := make([]value.Value, len(argRefs))
		for i, aref := range argRefs {
			v, err := evalCompletion(arena, aggValues, groupKeyRendered, groupKeyValue, aref)
			if err != nil {
				return value.Null, err
			}
			args[i] = v
		}
		return interp.CallBuiltin(name, args)
	case ql.KRecord:
		fields := arena.RecordFields(ref)
		out := make([]value.Field, len(fields))
		for i, f := range fields {
			v, err := evalCompletion(arena, aggValues, groupKeyRendered, groupKeyValue, f.Value)
			if err != nil {
				return value.Null, err
			}
			out[i] = value.Field{Name: f.Name, Value: v}
		}
		return value.Record(out), nil
	case ql.KArray:
		items := arena.ArrayItems(ref)
		out := make([]value.Value, len(items))
		for i, it := range items {
			v, err := evalCompletion(arena, aggValues, groupKeyRendered, groupKeyValue, it)
			if err != nil {
				return value.Null, err
			}
			out[i] = v
		}
		return value.Array(out), nil
	case ql.KCoerce:
		inner, target := arena.CoerceParts(ref)
		v, err := evalCompletion(arena, aggValues, groupKeyRendered, groupKeyValue, inner)
		if err != nil {
			return value.Null, err
		}
		return interp.Coerce(v, target)
	case ql.KGroup:
		return evalCompletion(arena, aggValues, groupKeyRendered, groupKeyValue, arena.GroupInner(ref))
	default:
		return value.Null, fmt.Errorf("query: identifier or field access is not available in an aggregate completion pass")
	}
}
