package query

import "golang.org/x/exp/constraints"

// clamp returns x restricted to [lo, hi], following the teacher's
// ints.Clamp shape: the nearest bounding value is returned when x
// falls outside the range.
func clamp[T constraints.Integer](x, lo, hi T) T {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// ExpectedEmitCount reports how many rows a TOP(top)/SKIP(skip)
// combination emits over total candidate rows, per spec.md §8's limit
// law: "TOP(n) yields min(n, total); SKIP(k) yields max(0, total-k);
// combined they yield clamp(total-k, 0, n)". Pass top < 0 for an
// unbounded TOP.
func ExpectedEmitCount(total, skip, top int) int {
	afterSkip := total - skip
	if afterSkip < 0 {
		afterSkip = 0
	}
	if top < 0 {
		return afterSkip
	}
	return clamp(afterSkip, 0, top)
}

// window reports the [start, end) bounds l selects out of an already
// materialized sequence of length total, per the same clamp(total-k,
// 0, n) law as ExpectedEmitCount. It is the buffered-sequence
// counterpart to admit, used once ORDER BY has settled the final row
// order and SKIP/TOP can be applied directly by slicing instead of
// auditioning one candidate at a time.
func (l *limiter) window(total int) (start, end int) {
	start = clamp(l.skipN, 0, total)
	return start, start + ExpectedEmitCount(total, l.skipN, l.topN)
}
