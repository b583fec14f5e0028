package ql

import (
	"testing"

	"github.com/YoEight/eventdb/value"
)

func TestAppKeyDedupesIdenticalSubtrees(t *testing.T) {
	a := NewArena()
	base := a.Ident("data")
	field1 := a.Field(base, "amount")
	field2 := a.Field(base, "amount")
	sum1 := a.App("sum", []ExprRef{field1})
	sum2 := a.App("sum", []ExprRef{field2})
	if a.AppKey(sum1) != a.AppKey(sum2) {
		t.Fatalf("expected identical dedup keys, got %q vs %q", a.AppKey(sum1), a.AppKey(sum2))
	}

	other := a.App("sum", []ExprRef{a.Field(base, "other")})
	if a.AppKey(sum1) == a.AppKey(other) {
		t.Fatal("expected distinct dedup keys for distinct argument subtrees")
	}
}

func TestArenaRoundTrip(t *testing.T) {
	a := NewArena()
	lit := a.Lit(value.Number(42))
	if got := a.LitValue(lit); got.Kind() != value.KindNumber {
		t.Fatalf("unexpected literal kind: %v", got.Kind())
	}
	bin := a.Binary(Add, lit, lit)
	op, lhs, rhs := a.BinaryParts(bin)
	if op != Add || lhs != lit || rhs != lit {
		t.Fatal("binary parts round trip failed")
	}
}
