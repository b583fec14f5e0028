package query

import "github.com/YoEight/eventdb/value"

// DataProvider is the contract external storage implements to back a
// query's FROM clause, per spec.md §4.3. A provider that cannot
// resolve the given name or subject path returns ok=false; Build then
// wires in an Empty processor for that source.
type DataProvider interface {
	InstantiateNamedDataSource(name string, inferredType value.Kind) (QueryProcessor, bool)
	InstantiateSubjectDataSource(subjectPath string, inferredType value.Kind) (QueryProcessor, bool)
}
