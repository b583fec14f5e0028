package query

import (
	"github.com/YoEight/eventdb/interp"
	"github.com/YoEight/eventdb/ql"
	"github.com/YoEight/eventdb/value"
)

// AggQuery implements spec.md §4.3's aggregate pipeline: it collects
// the query's aggregate applications (see collectAggSites), keeps one
// bucket of accumulators for a single implicit group (no GROUP BY) or
// one per distinct GROUP BY key, consumes every source row into
// the appropriate bucket's accumulators, then materializes each
// bucket's completed projection, applies HAVING, optionally sorts via
// QueryOrderer, and finally applies TOP/SKIP.
type AggQuery struct {
	arena   *ql.Arena
	query   *ql.Query
	sources Sources

	sites []appSite

	materialized bool
	iterErr      error
	rows         []value.Value
	pos          int
	lim          *limiter
}

// NewAggQuery builds an AggQuery over sources, which must already be
// instantiated per q.Sources (see Build).
func NewAggQuery(arena *ql.Arena, q *ql.Query, sources Sources) *AggQuery {
	return &AggQuery{
		arena:   arena,
		query:   q,
		sources: sources,
		sites:   collectAggSites(arena, q),
		lim:     newLimiter(q.Limit),
	}
}

func (q *AggQuery) Next() (value.Value, error, bool) {
	if !q.materialized {
		q.materialize()
		q.materialized = true
	}
	if q.iterErr != nil {
		err := q.iterErr
		q.iterErr = nil
		return value.Null, err, true
	}
	return q.pullFromResults()
}

// groupState is one GROUP BY bucket: the group key expression's
// evaluated Value, substituted back into the projection/HAVING during
// the completion pass wherever that same expression subtree recurs,
// and the bucket's accumulators.
type groupState struct {
	keyValue value.Value
	bucket   *bucket
}

// consumeAll pulls every row from the sources, evaluates this query's
// GROUP BY key (if any) per row, and folds the row into the matching
// bucket's accumulators.
func (q *AggQuery) consumeAll() (map[string]*groupState, []string, error) {
	groups := make(map[string]*groupState)
	var order []string
	env := make(interp.Env)

	for {
		ok, err := fill(env, q.sources)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			break
		}

		admitted, err := evalPredicateOrTrue(q.arena, env, q.query.Predicate)
		if err != nil {
			return nil, nil, err
		}
		if !admitted {
			continue
		}

		var groupKey string
		var keyValue value.Value
		if q.query.GroupBy != nil {
			kv, err := interp.Eval(q.arena, env, q.query.GroupBy.Key)
			if err != nil {
				return nil, nil, err
			}
			keyValue = kv
			groupKey = value.Key(kv)
		}

		gs, exists := groups[groupKey]
		if !exists {
			b, err := newBucket(q.sites)
			if err != nil {
				return nil, nil, err
			}
			gs = &groupState{keyValue: keyValue, bucket: b}
			groups[groupKey] = gs
			order = append(order, groupKey)
		}
		if err := gs.bucket.fold(q.arena, env, q.sites); err != nil {
			return nil, nil, err
		}
	}

	// Regular aggregation (no GROUP BY) always produces exactly one
	// group, even over zero input rows, per spec.md §8's idempotence
	// invariant (count()=0, avg()=0, unique()=Null).
	if q.query.GroupBy == nil && len(order) == 0 {
		b, err := newBucket(q.sites)
		if err != nil {
			return nil, nil, err
		}
		groups[""] = &groupState{bucket: b}
		order = append(order, "")
	}

	return groups, order, nil
}

func (q *AggQuery) materialize() {
	groups, order, err := q.consumeAll()
	if err != nil {
		q.iterErr = err
		return
	}

	var groupKeyRendered string
	if q.query.GroupBy != nil {
		groupKeyRendered = q.arena.ExprKey(q.query.GroupBy.Key)
	}

	orderer := NewQueryOrderer()
	var rows []value.Value
	useOrderer := q.query.OrderBy != nil

	for _, key := range order {
		gs := groups[key]
		aggValues := gs.bucket.completedValues()

		if q.query.GroupBy != nil {
			having, err := evalCompletion(q.arena, aggValues, groupKeyRendered, gs.keyValue, q.query.GroupBy.Having)
			if err != nil {
				q.iterErr = err
				return
			}
			if b, ok := having.AsBool(); !ok || !b {
				continue
			}
		}

		row, err := evalCompletion(q.arena, aggValues, groupKeyRendered, gs.keyValue, q.query.Projection)
		if err != nil {
			q.iterErr = err
			return
		}

		if useOrderer {
			sortKey, err := evalCompletion(q.arena, aggValues, groupKeyRendered, gs.keyValue, q.query.OrderBy.Key)
			if err != nil {
				q.iterErr = err
				return
			}
			orderer.Push(sortKey, row)
		} else {
			rows = append(rows, row)
		}
	}

	if useOrderer {
		it := orderer.PrepareForStreaming(q.query.OrderBy.Dir)
		for {
			v, ok := it.Next()
			if !ok {
				break
			}
			rows = append(rows, v)
		}
	}

	// The full result set is materialized at this point, so SKIP/TOP
	// are applied once as a window rather than audited row by row.
	q.rows = limitItems(rows, q.lim)
}

func (q *AggQuery) pullFromResults() (value.Value, error, bool) {
	if q.pos >= len(q.rows) {
		return value.Null, nil, false
	}
	v := q.rows[q.pos]
	q.pos++
	return v, nil, true
}
