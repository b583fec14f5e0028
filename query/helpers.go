package query

import (
	"github.com/YoEight/eventdb/interp"
	"github.com/YoEight/eventdb/ql"
	"github.com/YoEight/eventdb/value"
)

// limitItems returns the sub-slice of an already materialized, ordered
// sequence that lim selects, via limiter.window.
func limitItems(items []value.Value, lim *limiter) []value.Value {
	start, end := lim.window(len(items))
	return items[start:end]
}

// evalPredicateOrTrue evaluates ref as a WHERE/HAVING predicate, except
// that an absent clause (ql.NoExpr) always passes.
func evalPredicateOrTrue(arena *ql.Arena, env interp.Env, ref ql.ExprRef) (bool, error) {
	if ref == ql.NoExpr {
		return true, nil
	}
	return interp.EvalPredicate(arena, env, ref)
}

// limiter implements the combined TOP/SKIP law of spec.md §8: "SKIP(k)
// yields max(0, total-k) items; TOP(n) yields min(n, total); combined
// they yield clamp(total-k, 0, n)". It is shared between the scalar
// pipeline's eager enforcement and the post-materialization pass used
// by both pipelines once ordering has settled the final sequence.
type limiter struct {
	skipN   int
	topN    int // -1 means unlimited
	skipped int
	emitted int
}

func newLimiter(lim *ql.Limit) *limiter {
	l := &limiter{topN: -1}
	if lim != nil {
		if lim.Kind == ql.Skip {
			l.skipN = lim.N
		} else {
			l.topN = lim.N
		}
	}
	return l
}

// admit reports whether the current candidate should be emitted. done
// is true once the limit is fully satisfied and no further candidates
// (from this limiter) should be considered.
func (l *limiter) admit() (emit bool, done bool) {
	if l.skipped < l.skipN {
		l.skipped++
		return false, false
	}
	if l.topN >= 0 && l.emitted >= l.topN {
		return false, true
	}
	l.emitted++
	return true, false
}
