package query

import (
	"github.com/YoEight/eventdb/interp"
	"github.com/YoEight/eventdb/ql"
	"github.com/YoEight/eventdb/value"
)

// EventQuery implements spec.md §4.3's scalar projection pipeline, the
// exact five-step pull algorithm:
//
//  1. If completed and an orderer is prepared, emit the next value out
//     of the ordered sequence, already windowed to SKIP/TOP; otherwise
//     return none.
//  2. Call fill(env); if it reports exhaustion, mark completed,
//     prepare the orderer for streaming, and apply SKIP/TOP to the
//     sorted sequence once up front.
//  3. Evaluate the predicate; if false, loop; if error, surface it.
//  4. If ORDER BY is present, evaluate key and projection, push to the
//     orderer, and loop — no emission until completion.
//  5. Otherwise, enforce TOP eagerly, evaluate the projection, enforce
//     SKIP eagerly, and emit.
type EventQuery struct {
	arena   *ql.Arena
	query   *ql.Query
	sources Sources

	env interp.Env

	completed bool
	orderer   *QueryOrderer
	it        *OrdererIter
	lim       *limiter
}

// NewEventQuery builds an EventQuery over sources, which must already
// be instantiated per q.Sources (see Build).
func NewEventQuery(arena *ql.Arena, q *ql.Query, sources Sources) *EventQuery {
	eq := &EventQuery{
		arena:   arena,
		query:   q,
		sources: sources,
		env:     make(interp.Env),
		lim:     newLimiter(q.Limit),
	}
	if q.OrderBy != nil {
		eq.orderer = NewQueryOrderer()
	}
	return eq
}

func (eq *EventQuery) Next() (value.Value, error, bool) {
	for {
		// Step 1.
		if eq.completed {
			if eq.it == nil {
				return value.Null, nil, false
			}
			return eq.pullOrdered()
		}

		// Step 2.
		ok, err := fill(eq.env, eq.sources)
		if err != nil {
			return value.Null, err, true
		}
		if !ok {
			eq.completed = true
			if eq.orderer != nil {
				eq.it = eq.orderer.PrepareForStreaming(eq.query.OrderBy.Dir)
				eq.it.items = limitItems(eq.it.items, eq.lim)
			}
			continue
		}

		// Step 3.
		admitted, err := evalPredicateOrTrue(eq.arena, eq.env, eq.query.Predicate)
		if err != nil {
			return value.Null, err, true
		}
		if !admitted {
			continue
		}

		// Step 4.
		if eq.query.OrderBy != nil {
			key, err := interp.Eval(eq.arena, eq.env, eq.query.OrderBy.Key)
			if err != nil {
				return value.Null, err, true
			}
			row, err := interp.Eval(eq.arena, eq.env, eq.query.Projection)
			if err != nil {
				return value.Null, err, true
			}
			eq.orderer.Push(key, row)
			continue
		}

		// Step 5.
		if eq.lim.topN >= 0 && eq.lim.emitted >= eq.lim.topN {
			eq.completed = true
			return value.Null, nil, false
		}
		row, err := interp.Eval(eq.arena, eq.env, eq.query.Projection)
		if err != nil {
			return value.Null, err, true
		}
		if emit, _ := eq.lim.admit(); !emit {
			continue
		}
		return row, nil, true
	}
}

// pullOrdered streams the already-windowed, sorted sequence: SKIP/TOP
// were applied once up front (see Next's step 2) by slicing eq.it.items
// to the limiter's window, so this only needs to walk it in order.
func (eq *EventQuery) pullOrdered() (value.Value, error, bool) {
	v, ok := eq.it.Next()
	if !ok {
		return value.Null, nil, false
	}
	return v, nil, true
}
