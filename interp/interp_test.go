package interp

import (
	"testing"

	"github.com/YoEight/eventdb/date"
	"github.com/YoEight/eventdb/ql"
	"github.com/YoEight/eventdb/value"
)

func eval(t *testing.T, a *ql.Arena, env Env, ref ql.ExprRef) value.Value {
	t.Helper()
	v, err := Eval(a, env, ref)
	if err != nil {
		t.Fatalf("eval error: %v", err)
	}
	return v
}

func TestArithmetic(t *testing.T) {
	a := ql.NewArena()
	expr := a.Binary(ql.Add, a.Lit(value.Number(2)), a.Lit(value.Number(3)))
	got := eval(t, a, Env{}, expr)
	if n, _ := got.AsNumber(); n != 5 {
		t.Fatalf("2+3 = %v, want 5", n)
	}
}

func TestArithmeticTypeMismatch(t *testing.T) {
	a := ql.NewArena()
	expr := a.Binary(ql.Add, a.Lit(value.Number(2)), a.Lit(value.String("x")))
	if _, err := Eval(a, Env{}, expr); err == nil {
		t.Fatal("expected runtime error for Number + String")
	}
}

func TestIdentifierLookupAndUndefined(t *testing.T) {
	a := ql.NewArena()
	ref := a.Ident("data")
	env := Env{"data": value.Number(7)}
	if got := eval(t, a, env, ref); value.Compare(got, value.Number(7)) != 0 {
		t.Fatalf("got %v", got)
	}
	if _, err := Eval(a, Env{}, ref); err == nil {
		t.Fatal("expected undefined identifier error")
	}
}

func TestFieldAccessMissingYieldsNull(t *testing.T) {
	a := ql.NewArena()
	rec := a.Record([]ql.RecordField{{Name: "x", Value: a.Lit(value.Number(1))}})
	field := a.Field(rec, "y")
	got := eval(t, a, Env{}, field)
	if !got.IsNull() {
		t.Fatalf("expected Null for missing field, got %v", got)
	}
}

func TestFieldAccessOnNonRecordErrors(t *testing.T) {
	a := ql.NewArena()
	field := a.Field(a.Lit(value.Number(1)), "y")
	if _, err := Eval(a, Env{}, field); err == nil {
		t.Fatal("expected error accessing field on a non-record")
	}
}

func TestBuiltinCaseInsensitiveDispatch(t *testing.T) {
	a := ql.NewArena()
	call := a.App("UPPER", []ql.ExprRef{a.Lit(value.String("hi"))})
	got := eval(t, a, Env{}, call)
	if s, _ := got.AsString(); s != "HI" {
		t.Fatalf("got %q", s)
	}
}

func TestUnknownBuiltin(t *testing.T) {
	a := ql.NewArena()
	call := a.App("not_a_real_function", nil)
	if _, err := Eval(a, Env{}, call); err == nil {
		t.Fatal("expected unknown function error")
	}
}

func TestIfEagerEvaluation(t *testing.T) {
	a := ql.NewArena()
	call := a.App("if", []ql.ExprRef{
		a.Lit(value.Bool(true)),
		a.Lit(value.Number(1)),
		a.Lit(value.Number(2)),
	})
	got := eval(t, a, Env{}, call)
	if n, _ := got.AsNumber(); n != 1 {
		t.Fatalf("got %v, want 1", n)
	}

	// The untaken branch is evaluated too, so its error still surfaces.
	badElse := a.App("if", []ql.ExprRef{
		a.Lit(value.Bool(true)),
		a.Lit(value.Number(1)),
		a.Ident("undefined"),
	})
	if _, err := Eval(a, Env{}, badElse); err == nil {
		t.Fatal("expected the untaken branch to be evaluated eagerly")
	}
}

func TestCoerceTable(t *testing.T) {
	tm := date.NewTime(2024, 6, 1, 10, 30, 0, 0)
	cases := []struct {
		in     value.Value
		target value.Kind
		ok     bool
	}{
		{value.Number(3), value.KindString, true},
		{value.Bool(true), value.KindString, true},
		{value.DateTime(tm), value.KindDate, true},
		{value.DateTime(tm), value.KindTime, true},
		{value.Null, value.KindNumber, true},
		{value.String("x"), value.KindNumber, false},
		{value.Array(nil), value.KindString, false},
	}
	for _, c := range cases {
		_, err := Coerce(c.in, c.target)
		if (err == nil) != c.ok {
			t.Errorf("Coerce(%v, %v): err=%v, want ok=%v", c.in, c.target, err, c.ok)
		}
	}
}

func TestSubstringCharacterIndices(t *testing.T) {
	a := ql.NewArena()
	call := a.App("substring", []ql.ExprRef{
		a.Lit(value.String("hello world")),
		a.Lit(value.Number(1)),
		a.Lit(value.Number(5)),
	})
	got := eval(t, a, Env{}, call)
	if s, _ := got.AsString(); s != "hello" {
		t.Fatalf("got %q", s)
	}
}

func TestInstrOneBasedOrZero(t *testing.T) {
	a := ql.NewArena()
	found := eval(t, a, Env{}, a.App("instr", []ql.ExprRef{
		a.Lit(value.String("hello")), a.Lit(value.String("ll")),
	}))
	if n, _ := found.AsNumber(); n != 3 {
		t.Fatalf("got %v, want 3", n)
	}
	notFound := eval(t, a, Env{}, a.App("instr", []ql.ExprRef{
		a.Lit(value.String("hello")), a.Lit(value.String("z")),
	}))
	if n, _ := notFound.AsNumber(); n != 0 {
		t.Fatalf("got %v, want 0", n)
	}
}

func TestWeekdayFromSunday(t *testing.T) {
	a := ql.NewArena()
	sunday := date.NewTime(2024, 6, 2, 0, 0, 0, 0) // a Sunday
	got := eval(t, a, Env{}, a.App("weekday", []ql.ExprRef{a.Lit(value.DateTime(sunday))}))
	if n, _ := got.AsNumber(); n != 0 {
		t.Fatalf("got %v, want 0", n)
	}
}

func TestContainsOperator(t *testing.T) {
	a := ql.NewArena()
	arr := a.Lit(value.Array([]value.Value{value.Number(1), value.Number(2)}))
	expr := a.Binary(ql.Contains, arr, a.Lit(value.Number(2)))
	got := eval(t, a, Env{}, expr)
	b, _ := got.AsBool()
	if !b {
		t.Fatal("expected CONTAINS to find element")
	}
}

func TestRecordEqualityViaBinaryOp(t *testing.T) {
	a := ql.NewArena()
	r1 := a.Record([]ql.RecordField{{Name: "x", Value: a.Lit(value.Number(1))}})
	r2 := a.Record([]ql.RecordField{{Name: "x", Value: a.Lit(value.Number(1))}})
	expr := a.Binary(ql.Eq, r1, r2)
	got := eval(t, a, Env{}, expr)
	b, _ := got.AsBool()
	if !b {
		t.Fatal("expected equal records to compare equal")
	}
}
