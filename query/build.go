package query

import (
	"fmt"

	"github.com/YoEight/eventdb/ql"
	"github.com/YoEight/eventdb/value"
)

// Build assembles a QueryProcessor for q, resolving every FROM-clause
// source through provider and dispatching to the aggregate or scalar
// pipeline per q.Meta.Aggregate, per spec.md §4.3.
func Build(arena *ql.Arena, q *ql.Query, provider DataProvider) (QueryProcessor, error) {
	sources, err := instantiateSources(arena, q.Sources, provider)
	if err != nil {
		return nil, err
	}
	if q.Meta.Aggregate {
		return NewAggQuery(arena, q, sources), nil
	}
	return NewEventQuery(arena, q, sources), nil
}

// instantiateSources resolves each FROM-clause Source into a
// QueryProcessor bound by name in the returned Sources map.
func instantiateSources(arena *ql.Arena, srcs []ql.Source, provider DataProvider) (Sources, error) {
	sources := make(Sources, len(srcs))
	for _, s := range srcs {
		proc, err := instantiateSource(arena, s, provider)
		if err != nil {
			return nil, err
		}
		sources[s.Binding] = proc
	}
	return sources, nil
}

// instantiateSource resolves a single Source variant, falling back to
// an Empty processor (no rows, no error) when the provider has nothing
// for a named or subject-path source, per spec.md §4.3's "missing
// sources yield an empty processor".
func instantiateSource(arena *ql.Arena, s ql.Source, provider DataProvider) (QueryProcessor, error) {
	switch s.Kind {
	case ql.SourceNamed:
		if proc, ok := provider.InstantiateNamedDataSource(s.Name, value.KindRecord); ok {
			return proc, nil
		}
		return NewEmpty(nil), nil
	case ql.SourceSubjectPath:
		if proc, ok := provider.InstantiateSubjectDataSource(s.SubjectPath, value.KindRecord); ok {
			return proc, nil
		}
		return NewEmpty(nil), nil
	case ql.SourceSubQuery:
		return Build(arena, s.SubQuery, provider)
	default:
		return nil, fmt.Errorf("query: unknown source kind %d for binding %q", s.Kind, s.Binding)
	}
}
