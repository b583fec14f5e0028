package eventdb

import (
	"github.com/YoEight/eventdb/ql"
	"github.com/YoEight/eventdb/query"
	"github.com/YoEight/eventdb/value"
)

// DB is the in-memory event store: an append-only vector of events plus
// the type and subject indexes over it, per spec.md §3/§6. The
// database owns the event vector and indexes for its lifetime; per
// spec.md §5, a running query borrows them immutably and must
// complete before any mutating Append proceeds — enforcing that
// ordering is the embedding application's responsibility, as §5 states
// no inter-query ordering guarantee is defined here.
type DB struct {
	events  []Event
	types   *TypeIndex
	subject *SubjectTree
}

// New returns an empty database.
func New() *DB {
	return &DB{
		types:   NewTypeIndex(),
		subject: NewSubjectTree(),
	}
}

// Append adds events to subject atomically, in order, per spec.md §6:
// Error.IllegalSubject is raised when subject is empty, starts or ends
// with `/`, or contains an empty segment, and the type/subject indexes
// are updated as a batch only once the subject has been validated.
func (db *DB) Append(subject string, events []Event) error {
	if _, err := splitSubject(subject); err != nil {
		return err
	}
	start := len(db.events)
	for i := range events {
		idx := start + i
		if err := db.subject.Insert(subject, idx); err != nil {
			return err
		}
	}
	for i, e := range events {
		idx := start + i
		db.types.Insert(e.EventType, idx)
	}
	db.events = append(db.events, events...)
	return nil
}

// IterTypes returns every event of the given type, in insertion order.
func (db *DB) IterTypes(typ string) []Event {
	indices := db.types.EventsOf(typ)
	out := make([]Event, len(indices))
	for i, idx := range indices {
		out[i] = db.events[idx]
	}
	return out
}

// IterSubjectEvents returns every event appended at path or at any
// subject nested beneath it, per SubjectTree.EventsAt.
func (db *DB) IterSubjectEvents(path string) []Event {
	indices := db.subject.EventsAt(path)
	out := make([]Event, len(indices))
	for i, idx := range indices {
		out[i] = db.events[idx]
	}
	return out
}

// IterSubjects returns every distinct subject path present, per
// SubjectTree.Subjects.
func (db *DB) IterSubjects() []string {
	return db.subject.Subjects()
}

// RunQuery plans and executes an already-built, already-analyzed
// query, per spec.md §6's run_query with parsing/analysis delegated to
// the external collaborator named in spec.md §1: the caller supplies
// the typed *ql.Query plus the *ql.Arena it was built in.
func (db *DB) RunQuery(arena *ql.Arena, q *ql.Query) (query.QueryProcessor, error) {
	proc, err := query.Build(arena, q, (*dbProvider)(db))
	if err != nil {
		return nil, queryErrorf(err, "failed to plan query")
	}
	return proc, nil
}

// dbProvider implements query.DataProvider against *DB's in-memory
// storage; it is defined as a distinct named type (rather than methods
// directly on *DB) so that DB's public surface does not itself expose
// the DataProvider contract as part of its API.
type dbProvider DB

func (p *dbProvider) db() *DB { return (*DB)(p) }

func (p *dbProvider) InstantiateNamedDataSource(name string, _ value.Kind) (query.QueryProcessor, bool) {
	db := p.db()
	switch name {
	case "events":
		rows := make([]value.Value, len(db.events))
		for i, e := range db.events {
			rows[i] = e.Project(nil)
		}
		return query.NewSliceSource(rows), true
	case "eventtypes":
		types := db.types.Types()
		rows := make([]value.Value, len(types))
		for i, t := range types {
			rows[i] = value.String(t)
		}
		return query.NewSliceSource(rows), true
	case "subjects":
		subjects := db.subject.Subjects()
		rows := make([]value.Value, len(subjects))
		for i, s := range subjects {
			rows[i] = value.String(s)
		}
		return query.NewSliceSource(rows), true
	default:
		return nil, false
	}
}

func (p *dbProvider) InstantiateSubjectDataSource(subjectPath string, _ value.Kind) (query.QueryProcessor, bool) {
	events := p.db().IterSubjectEvents(subjectPath)
	if events == nil {
		return query.NewSliceSource(nil), true
	}
	rows := make([]value.Value, len(events))
	for i, e := range events {
		rows[i] = e.Project(nil)
	}
	return query.NewSliceSource(rows), true
}
