package registry

import (
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Record is one named entry of a definition document.
type Record map[string]any

// Has reports whether field is present, whatever its value.
func (r Record) Has(field string) bool {
	_, ok := r[field]
	return ok
}

// String returns field formatted as a string, or "" when absent or null.
func (r Record) String(field string) string {
	return scalar(r[field])
}

// Map returns field as a mapping. ok is false when the field is absent;
// a present field that is not a mapping yields an empty Record.
func (r Record) Map(field string) (Record, bool) {
	v, ok := r[field]
	if !ok {
		return nil, false
	}
	return asRecord(v), true
}

// Registry is the ordered union of the records of every definition
// document in a directory.
type Registry struct {
	records *orderedmap.OrderedMap[string, Record]
}

// New returns an empty Registry
func New() *Registry {
	return &Registry{records: orderedmap.New[string, Record]()}
}

// Set stores rec under name. An existing record is replaced and keeps its
// position. It reports whether a record was replaced.
func (r *Registry) Set(name string, rec Record) bool {
	_, replaced := r.records.Set(name, rec)
	return replaced
}

// Get returns the record stored under name
func (r *Registry) Get(name string) (Record, bool) {
	return r.records.Get(name)
}

// Len returns the number of records
func (r *Registry) Len() int {
	return r.records.Len()
}

// Names returns the record names in registry order
func (r *Registry) Names() []string {
	names := make([]string, 0, r.records.Len())
	for pair := r.records.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

// Each calls fn for every record in registry order and stops at the first error.
func (r *Registry) Each(fn func(name string, rec Record) error) error {
	for pair := r.records.Oldest(); pair != nil; pair = pair.Next() {
		if err := fn(pair.Key, pair.Value); err != nil {
			return err
		}
	}
	return nil
}

// Merge copies every record of other into r, later records winning.
// It returns the names that were overwritten.
func (r *Registry) Merge(other *Registry) []string {
	var overwritten []string
	_ = other.Each(func(name string, rec Record) error {
		if r.Set(name, rec) {
			overwritten = append(overwritten, name)
		}
		return nil
	})
	return overwritten
}

func asRecord(v any) Record {
	switch m := v.(type) {
	case Record:
		return m
	case map[string]any:
		return Record(m)
	case map[any]any:
		rec := make(Record, len(m))
		for k, val := range m {
			rec[scalar(k)] = val
		}
		return rec
	default:
		return Record{}
	}
}

func scalar(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}
