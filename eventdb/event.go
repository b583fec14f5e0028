package eventdb

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/YoEight/eventdb/value"
)

// Event is an immutable CloudEvents-style record, per spec.md §3:
// created at append, never mutated, destroyed only with the database.
type Event struct {
	SpecVersion     string
	ID              uuid.UUID
	Source          string
	Subject         string
	EventType       string
	DataContentType string
	Data            []byte
}

// NewEvent constructs an Event with a freshly minted ID, mirroring the
// teacher's handler_query.go's uuid.New() convention for request-scoped
// identifiers.
func NewEvent(source, subject, eventType, dataContentType string, data []byte) Event {
	return Event{
		SpecVersion:     "1.0",
		ID:              uuid.New(),
		Source:          source,
		Subject:         subject,
		EventType:       eventType,
		DataContentType: dataContentType,
		Data:            data,
	}
}

// Project shapes e into the Value the query engine sees as one row:
// top-level fields absent from expectedFields are dropped. Data of
// content-type "application/json" is decoded in full; it is not shaped
// against expectedFields, and nested fields are never dropped. Any other
// content-type yields Null for the data field.
//
// expectedFields is nil to mean "no shaping" (project every available
// top-level field, with data projected as Null unless JSON), matching
// the common case of an unqualified `SELECT *`-style row access used
// by the query package's tests and the named "events" source.
func (e Event) Project(expectedFields map[string]bool) value.Value {
	fields := []value.Field{
		{Name: "spec_version", Value: value.String(e.SpecVersion)},
		{Name: "id", Value: value.String(e.ID.String())},
		{Name: "source", Value: value.String(e.Source)},
		{Name: "subject", Value: value.String(e.Subject)},
		{Name: "type", Value: value.String(e.EventType)},
		{Name: "datacontenttype", Value: value.String(e.DataContentType)},
		{Name: "data", Value: e.projectData(expectedFields)},
	}
	if expectedFields == nil {
		return value.Record(fields)
	}
	kept := fields[:0:0]
	for _, f := range fields {
		if expectedFields[f.Name] {
			kept = append(kept, f)
		}
	}
	return value.Record(kept)
}

// projectData decodes a JSON payload into a Value, or returns Null for
// any other content-type or undecodable JSON. expectedFields is unused.
func (e Event) projectData(expectedFields map[string]bool) value.Value {
	if e.DataContentType != "application/json" {
		return value.Null
	}
	var raw any
	if err := json.Unmarshal(e.Data, &raw); err != nil {
		return value.Null
	}
	return jsonToValue(raw)
}

// jsonToValue converts a decoded JSON document (as produced by
// encoding/json's any-typed decoding) into a Value, recursively.
func jsonToValue(raw any) value.Value {
	switch v := raw.(type) {
	case nil:
		return value.Null
	case bool:
		return value.Bool(v)
	case float64:
		return value.Number(v)
	case string:
		return value.String(v)
	case []any:
		items := make([]value.Value, len(v))
		for i, it := range v {
			items[i] = jsonToValue(it)
		}
		return value.Array(items)
	case map[string]any:
		fields := make([]value.Field, 0, len(v))
		for k, fv := range v {
			fields = append(fields, value.Field{Name: k, Value: jsonToValue(fv)})
		}
		return value.Record(fields)
	default:
		return value.Null
	}
}
