package value

import (
	"math"
	"testing"

	"github.com/YoEight/eventdb/date"
)

func TestRecordFieldOrderAndLookup(t *testing.T) {
	r := Record([]Field{
		{Name: "b", Value: Number(2)},
		{Name: "a", Value: Number(1)},
	})
	fields, ok := r.AsRecord()
	if !ok {
		t.Fatal("expected record")
	}
	if fields[0].Name != "a" || fields[1].Name != "b" {
		t.Fatalf("expected lexicographic order, got %v", fields)
	}
	if got := r.Field("a"); Compare(got, Number(1)) != 0 {
		t.Fatalf("Field(a) = %v, want 1", got)
	}
	if got := r.Field("missing"); !got.IsNull() {
		t.Fatalf("Field(missing) = %v, want Null", got)
	}
}

func TestNumberTotalCmpNaN(t *testing.T) {
	nan := Number(math.NaN())
	one := Number(1)
	if Compare(nan, one) <= 0 {
		t.Fatal("expected NaN greater than finite value")
	}
	if Compare(nan, nan) != 0 {
		t.Fatal("expected NaN equivalence class to compare equal to itself")
	}
	if Compare(one, nan) >= 0 {
		t.Fatal("expected finite value less than NaN")
	}
}

func TestEqualNaNFollowsIEEE(t *testing.T) {
	nan := Number(math.NaN())
	if Equal(nan, nan) {
		t.Fatal("NaN = NaN must be false under the `=` operator")
	}
}

func TestRecordEqualityElementwise(t *testing.T) {
	a := Record([]Field{{Name: "x", Value: Number(1)}, {Name: "y", Value: String("hi")}})
	b := Record([]Field{{Name: "y", Value: String("hi")}, {Name: "x", Value: Number(1)}})
	if !Equal(a, b) {
		t.Fatal("expected field-order-independent equality")
	}
	c := Record([]Field{{Name: "x", Value: Number(2)}})
	if Equal(a, c) {
		t.Fatal("expected mismatched records to be unequal")
	}
	if Equal(a, Record(nil)) {
		t.Fatal("expected length mismatch to be unequal")
	}
}

func TestArrayEquality(t *testing.T) {
	a := Array([]Value{Number(1), String("x")})
	b := Array([]Value{Number(1), String("x")})
	c := Array([]Value{String("x"), Number(1)})
	if !Equal(a, b) {
		t.Fatal("expected equal arrays")
	}
	if Equal(a, c) {
		t.Fatal("expected order-sensitive array equality")
	}
}

func TestKeyCanonicalAcrossFieldOrder(t *testing.T) {
	a := Record([]Field{{Name: "a", Value: Number(1)}, {Name: "b", Value: Number(2)}})
	b := Record([]Field{{Name: "b", Value: Number(2)}, {Name: "a", Value: Number(1)}})
	if Key(a) != Key(b) {
		t.Fatalf("expected equal canonical keys, got %q vs %q", Key(a), Key(b))
	}
}

func TestKindOrderingSeparatesTypes(t *testing.T) {
	if Compare(Null, String("")) >= 0 {
		t.Fatal("expected Null to sort before String by kind")
	}
}

func TestDateTimeRoundTrip(t *testing.T) {
	tm := date.NewTime(2024, 6, 1, 12, 0, 0, 0)
	v := DateTime(tm)
	got, ok := v.AsDateTime()
	if !ok || !got.Equal(tm) {
		t.Fatalf("round trip failed: %v", got)
	}
}
