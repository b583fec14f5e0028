package eventdb

import (
	"encoding/json"
	"testing"

	"github.com/YoEight/eventdb/ql"
	"github.com/YoEight/eventdb/value"
)

// TestAppendAndIterate implements spec.md §8 scenario 1.
func TestAppendAndIterate(t *testing.T) {
	db := New()
	ev := NewEvent("test-source", "foo/bar", "user-created", "application/json", []byte(`{}`))
	if err := db.Append("foo/bar", []Event{ev}); err != nil {
		t.Fatalf("append: %v", err)
	}

	got := db.IterTypes("user-created")
	if len(got) != 1 || got[0].ID != ev.ID {
		t.Fatalf("IterTypes(user-created) = %v", got)
	}

	got = db.IterSubjectEvents("foo/bar")
	if len(got) != 1 || got[0].ID != ev.ID {
		t.Fatalf("IterSubjectEvents(foo/bar) = %v", got)
	}

	subjects := db.IterSubjects()
	if len(subjects) != 2 || subjects[0] != "foo" || subjects[1] != "foo/bar" {
		t.Fatalf("IterSubjects() = %v, want [foo foo/bar]", subjects)
	}
}

// TestIterSubjectEventsIncludesDescendants checks that IterSubjectEvents
// (and EventsAt, which backs it) resolves a subject path as a subtree:
// events stored at a descendant path are included alongside events
// stored exactly at the queried node, widest node first.
func TestIterSubjectEventsIncludesDescendants(t *testing.T) {
	db := New()
	top := NewEvent("s", "foo", "at-foo", "application/json", nil)
	child := NewEvent("s", "foo/bar", "at-foo-bar", "application/json", nil)
	grandchild := NewEvent("s", "foo/bar/baz", "at-foo-bar-baz", "application/json", nil)
	if err := db.Append("foo", []Event{top}); err != nil {
		t.Fatalf("append foo: %v", err)
	}
	if err := db.Append("foo/bar", []Event{child}); err != nil {
		t.Fatalf("append foo/bar: %v", err)
	}
	if err := db.Append("foo/bar/baz", []Event{grandchild}); err != nil {
		t.Fatalf("append foo/bar/baz: %v", err)
	}

	got := db.IterSubjectEvents("foo")
	if len(got) != 3 || got[0].ID != top.ID || got[1].ID != child.ID || got[2].ID != grandchild.ID {
		t.Fatalf("IterSubjectEvents(foo) = %v", got)
	}

	got = db.IterSubjectEvents("foo/bar")
	if len(got) != 2 || got[0].ID != child.ID || got[1].ID != grandchild.ID {
		t.Fatalf("IterSubjectEvents(foo/bar) = %v", got)
	}
}

// TestAppendRejectsLeadingSlash implements spec.md §8 scenario 2.
func TestAppendRejectsLeadingSlash(t *testing.T) {
	db := New()
	ev := NewEvent("test-source", "/foo", "user-created", "application/json", nil)
	err := db.Append("/foo", []Event{ev})
	if err == nil {
		t.Fatal("expected IllegalSubject error")
	}
	dbErr, ok := err.(*Error)
	if !ok || dbErr.Kind != ErrIllegalSubject {
		t.Fatalf("got %v, want IllegalSubject", err)
	}
}

func salaryDB(t *testing.T) *DB {
	t.Helper()
	db := New()
	mk := func(dept string, salary float64) Event {
		data, err := json.Marshal(map[string]any{"department": dept, "salary": salary})
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		return NewEvent("test-source", "payroll", "employee", "application/json", data)
	}
	events := []Event{
		mk("engineering", 90000),
		mk("engineering", 95000),
		mk("engineering", 110000),
		mk("sales", 70000),
		mk("sales", 75000),
		mk("marketing", 60000),
	}
	if err := db.Append("payroll", events); err != nil {
		t.Fatalf("append: %v", err)
	}
	return db
}

// TestRunQueryTypeProjection implements spec.md §8 scenario 3 via the
// public RunQuery entry point.
func TestRunQueryTypeProjection(t *testing.T) {
	db := New()
	if err := db.Append("payroll",
		[]Event{
			NewEvent("s", "payroll", "user-created", "application/json", []byte(`{}`)),
			NewEvent("s", "payroll", "user-deleted", "application/json", []byte(`{}`)),
		}); err != nil {
		t.Fatalf("append: %v", err)
	}

	a := ql.NewArena()
	ev := a.Ident("ev")
	q := &ql.Query{
		Sources:    []ql.Source{{Binding: "ev", Kind: ql.SourceNamed, Name: "events"}},
		Predicate:  ql.NoExpr,
		Projection: a.Field(ev, "type"),
	}
	proc, err := db.RunQuery(a, q)
	if err != nil {
		t.Fatalf("RunQuery: %v", err)
	}
	var got []string
	for {
		v, err, ok := proc.Next()
		if err != nil {
			t.Fatalf("row error: %v", err)
		}
		if !ok {
			break
		}
		s, _ := v.AsString()
		got = append(got, s)
	}
	if len(got) != 2 || got[0] != "user-created" || got[1] != "user-deleted" {
		t.Fatalf("got %v", got)
	}
}

// TestRunQueryGroupByHavingOrderTop covers spec.md §8 scenarios 4-6
// end-to-end through RunQuery and the "events" catalog source.
func TestRunQueryGroupByHavingOrderTop(t *testing.T) {
	db := salaryDB(t)

	a := ql.NewArena()
	ev := a.Ident("ev")
	dataField := a.Field(ev, "data")
	deptExpr := a.Field(dataField, "department")
	salaryExpr := a.Field(dataField, "salary")
	countApp := a.App("count", nil)
	avgApp := a.App("avg", []ql.ExprRef{salaryExpr})
	having := a.Binary(ql.Gt, countApp, a.Lit(value.Number(2)))
	proj := a.Record([]ql.RecordField{
		{Name: "dept", Value: deptExpr},
		{Name: "n", Value: countApp},
		{Name: "avg_salary", Value: avgApp},
	})

	q := &ql.Query{
		Sources:    []ql.Source{{Binding: "ev", Kind: ql.SourceNamed, Name: "events"}},
		Predicate:  ql.NoExpr,
		Projection: proj,
		GroupBy:    &ql.GroupBy{Key: deptExpr, Having: having},
		Meta:       ql.Meta{Aggregate: true},
	}
	proc, err := db.RunQuery(a, q)
	if err != nil {
		t.Fatalf("RunQuery: %v", err)
	}
	v, err, ok := proc.Next()
	if err != nil || !ok {
		t.Fatalf("expected one row, err=%v ok=%v", err, ok)
	}
	if d, _ := v.Field("dept").AsString(); d != "engineering" {
		t.Fatalf("dept = %v", d)
	}
	if avg, _ := v.Field("avg_salary").AsNumber(); avg != 98333.33333333333 {
		t.Fatalf("avg_salary = %v", avg)
	}
	if _, _, ok := proc.Next(); ok {
		t.Fatalf("expected exactly one row")
	}

	a2 := ql.NewArena()
	ev2 := a2.Ident("ev")
	salaryExpr2 := a2.Field(a2.Field(ev2, "data"), "salary")
	topQ := &ql.Query{
		Sources:    []ql.Source{{Binding: "ev", Kind: ql.SourceNamed, Name: "events"}},
		Predicate:  ql.NoExpr,
		Projection: salaryExpr2,
		OrderBy:    &ql.OrderBy{Key: salaryExpr2, Dir: ql.Desc},
		Limit:      &ql.Limit{Kind: ql.Top, N: 2},
	}
	proc2, err := db.RunQuery(a2, topQ)
	if err != nil {
		t.Fatalf("RunQuery: %v", err)
	}
	var got []float64
	for {
		v, err, ok := proc2.Next()
		if err != nil {
			t.Fatalf("row error: %v", err)
		}
		if !ok {
			break
		}
		n, _ := v.AsNumber()
		got = append(got, n)
	}
	if len(got) != 2 || got[0] != 110000 || got[1] != 95000 {
		t.Fatalf("got %v, want [110000 95000]", got)
	}
}
