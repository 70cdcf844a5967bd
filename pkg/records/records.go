// Package records provides the read-only record source the graph filters.
//
// The graph never mutates the backing collection; nodes only produce
// filtered views of it. Collections can be built in memory, decoded from
// CSV, or fetched from S3.
package records

import "sort"

// Record is one row of the backing dataset: a region, a locality, and
// arbitrary additional payload fields keyed by column name.
type Record struct {
	Region   string            `json:"region"`
	Locality string            `json:"locality"`
	Fields   map[string]string `json:"fields,omitempty"`
}

// Field returns a payload field, or the region/locality for the
// well-known field names.
func (r Record) Field(name string) string {
	switch name {
	case FieldRegion:
		return r.Region
	case FieldLocality:
		return r.Locality
	default:
		return r.Fields[name]
	}
}

// Well-known field names accepted by Source.Distinct and Record.Field.
const (
	FieldRegion   = "region"
	FieldLocality = "locality"
)

// Source is a read-only queryable record collection.
type Source interface {
	// Filter returns the records matching the predicate.
	Filter(pred func(Record) bool) []Record

	// Distinct returns the sorted distinct values of a field.
	Distinct(field string) []string

	// Len returns the number of records.
	Len() int
}

// Collection is an immutable in-memory Source.
type Collection struct {
	records []Record
}

// NewCollection builds a collection from a record slice. The slice is
// copied; callers keep ownership of theirs.
func NewCollection(recs []Record) *Collection {
	return &Collection{records: append([]Record(nil), recs...)}
}

// Filter returns the records matching the predicate.
func (c *Collection) Filter(pred func(Record) bool) []Record {
	var out []Record
	for _, r := range c.records {
		if pred(r) {
			out = append(out, r)
		}
	}
	return out
}

// Distinct returns the sorted distinct values of a field.
func (c *Collection) Distinct(field string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range c.records {
		v := r.Field(field)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of records.
func (c *Collection) Len() int {
	return len(c.records)
}
