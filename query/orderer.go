package query

import (
	"golang.org/x/exp/slices"

	"github.com/YoEight/eventdb/ql"
	"github.com/YoEight/eventdb/value"
)

// QueryOrderer is the buffered sort stage feeding ORDER BY / TOP / SKIP
// for both the scalar and aggregate pipelines, per spec.md §4.3: a
// sorted multimap from key Value to the list of values pushed under
// that key, in insertion order.
type QueryOrderer struct {
	buckets map[string][]value.Value
	keys    []value.Value
	seen    map[string]bool
}

// NewQueryOrderer returns an empty orderer.
func NewQueryOrderer() *QueryOrderer {
	return &QueryOrderer{
		buckets: make(map[string][]value.Value),
		seen:    make(map[string]bool),
	}
}

// Push records v under key.
func (o *QueryOrderer) Push(key, v value.Value) {
	k := value.Key(key)
	if !o.seen[k] {
		o.seen[k] = true
		o.keys = append(o.keys, key)
	}
	o.buckets[k] = append(o.buckets[k], v)
}

// OrdererIter streams the materialized, sorted sequence produced by
// PrepareForStreaming.
type OrdererIter struct {
	items []value.Value
	pos   int
}

// Next returns the next value in sorted order, or ok=false when done.
func (it *OrdererIter) Next() (value.Value, bool) {
	if it.pos >= len(it.items) {
		return value.Null, false
	}
	v := it.items[it.pos]
	it.pos++
	return v, true
}

// PrepareForStreaming consumes the orderer's buffered keys into a
// single flat, sorted sequence: keys in ascending or descending order
// per dir, and within a key, insertion order preserved for ascending
// and reversed for descending, per spec.md §4.3.
func (o *QueryOrderer) PrepareForStreaming(dir ql.SortDir) *OrdererIter {
	keys := append([]value.Value(nil), o.keys...)
	slices.SortStableFunc(keys, func(a, b value.Value) int {
		c := value.Compare(a, b)
		if dir == ql.Desc {
			return -c
		}
		return c
	})

	var flat []value.Value
	for _, k := range keys {
		bucket := o.buckets[value.Key(k)]
		if dir == ql.Desc {
			for i := len(bucket) - 1; i >= 0; i-- {
				flat = append(flat, bucket[i])
			}
		} else {
			flat = append(flat, bucket...)
		}
	}
	return &OrdererIter{items: flat}
}
