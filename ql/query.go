package ql

// SourceKind identifies what a Source resolves against.
type SourceKind uint8

const (
	// SourceNamed resolves against a catalog name (events, eventtypes,
	// subjects, ...) via DataProvider.InstantiateNamedDataSource.
	SourceNamed SourceKind = iota
	// SourceSubjectPath resolves against events appended under a
	// subject path via DataProvider.InstantiateSubjectDataSource.
	SourceSubjectPath
	// SourceSubQuery resolves a nested *Query.
	SourceSubQuery
)

// Source is one FROM-clause entry: a binding name plus exactly one of a
// named catalog source, a subject path, or a nested sub-query.
type Source struct {
	Binding string
	Kind    SourceKind

	Name        string // valid when Kind == SourceNamed
	SubjectPath string // valid when Kind == SourceSubjectPath
	SubQuery    *Query // valid when Kind == SourceSubQuery
}

// GroupBy is a GROUP BY clause: a key expression plus an optional HAVING
// predicate (ql.NoExpr when absent).
type GroupBy struct {
	Key    ExprRef
	Having ExprRef
}

// SortDir is the direction of an ORDER BY clause.
type SortDir uint8

const (
	Asc SortDir = iota
	Desc
)

// OrderBy is an ORDER BY clause.
type OrderBy struct {
	Key ExprRef
	Dir SortDir
}

// LimitKind distinguishes TOP from SKIP.
type LimitKind uint8

const (
	Top LimitKind = iota
	Skip
)

// Limit is a TOP(n) or SKIP(n) clause.
type Limit struct {
	Kind LimitKind
	N    int
}

// Meta carries the results of static analysis that spec.md §3 says are
// "asserted by static analysis" ahead of planning.
type Meta struct {
	// Aggregate is set when the projection or grouping involves
	// aggregate applications.
	Aggregate bool
}

// Query is the typed, analyzed query the external parser/analyzer would
// hand to the planner: sources, optional predicate, a required
// projection, optional GROUP BY, ORDER BY, and LIMIT, per spec.md §3.
type Query struct {
	Sources []Source

	Predicate  ExprRef // ql.NoExpr when absent
	Projection ExprRef

	GroupBy *GroupBy // nil when absent
	OrderBy *OrderBy // nil when absent
	Limit   *Limit   // nil when absent

	Meta Meta
}
