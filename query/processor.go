// Package query implements the pull-based query execution core of
// spec.md §4.3: a QueryProcessor pipeline that composes data sources,
// evaluates predicates and projections through the interp package, and
// applies grouping, ordering, and limits.
package query

import (
	"github.com/YoEight/eventdb/interp"
	"github.com/YoEight/eventdb/value"
)

// QueryProcessor is a pull-based iterator of rows. Next returns the
// next row's value, an error if evaluating that row failed, and a bool
// reporting whether a row was produced at all. Per spec.md §7, a
// row-local error does not terminate the iterator: a later Next call
// may still succeed.
type QueryProcessor interface {
	Next() (value.Value, error, bool)
}

// Empty is the "yields an optional stored error once, then ends"
// processor of spec.md §4.3, used for unresolved sources.
type Empty struct {
	err     error
	yielded bool
}

// NewEmpty constructs an Empty processor. Pass a nil err for a source
// that simply has no rows.
func NewEmpty(err error) *Empty {
	return &Empty{err: err}
}

func (e *Empty) Next() (value.Value, error, bool) {
	if e.yielded {
		return value.Null, nil, false
	}
	e.yielded = true
	if e.err != nil {
		return value.Null, e.err, true
	}
	return value.Null, nil, false
}

// RowFunc produces one row at a time, with the same (value, error, ok)
// contract as QueryProcessor.Next.
type RowFunc func() (value.Value, error, bool)

// Generic adapts a provider-supplied row stream (spec.md §4.3's
// "Generic(iter)") into a QueryProcessor.
type Generic struct {
	next RowFunc
}

// NewGeneric wraps next as a QueryProcessor.
func NewGeneric(next RowFunc) *Generic {
	return &Generic{next: next}
}

func (g *Generic) Next() (value.Value, error, bool) { return g.next() }

// NewSliceSource returns a Generic processor that yields each of items
// in order, a convenience for DataProvider implementations backed by an
// in-memory slice.
func NewSliceSource(items []value.Value) QueryProcessor {
	i := 0
	return NewGeneric(func() (value.Value, error, bool) {
		if i >= len(items) {
			return value.Null, nil, false
		}
		v := items[i]
		i++
		return v, nil, true
	})
}

// Sources maps each FROM-clause binding name to the processor that
// feeds it.
type Sources map[string]QueryProcessor

// fill pulls exactly one row from every source into env, per spec.md
// §4.3. If any source is exhausted the row is unavailable and fill
// returns false; an error from any source surfaces immediately.
func fill(env interp.Env, sources Sources) (bool, error) {
	for binding, proc := range sources {
		v, err, ok := proc.Next()
		if err != nil {
			return true, err
		}
		if !ok {
			return false, nil
		}
		env[binding] = v
	}
	return true, nil
}
