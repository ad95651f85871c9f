// Package resource holds the resource record model and the language grouping
// transform that turns a flat record list into per-language bundles.
//
// A source document is a JSON array of records:
//
//	[{"id": "app.title", "values": {"nb": "Skjema", "en": "Form"}}]
//
// Key order inside "values" is significant: it decides the order in which a
// record contributes to each language, so records keep their values in an
// ordered map rather than a Go map.
package resource

import (
	"github.com/keboola/go-utils/pkg/orderedmap"
)

// Record is one localizable string keyed by ID, carrying per-language values.
type Record struct {
	ID     string
	Values *orderedmap.OrderedMap
}

// NewRecord builds a record from language/value pairs in the given order.
func NewRecord(id string, values ...orderedmap.Pair) Record {
	return Record{ID: id, Values: orderedmap.FromPairs(values)}
}

// Entry is one resource inside a language bundle.
type Entry struct {
	ID    string `json:"id"`
	Value any    `json:"value"`
}

// Bundle groups all resource values for a single language.
type Bundle struct {
	Language  string  `json:"language"`
	Resources []Entry `json:"resources"`
}

// Valid reports whether a decoded candidate object is a usable record: it
// must carry a non-empty string "id" and a "values" field that is a JSON
// object. Arrays, strings, numbers, booleans and null do not qualify.
func Valid(candidate *orderedmap.OrderedMap) bool {
	_, ok := toRecord(candidate)
	return ok
}

func toRecord(candidate *orderedmap.OrderedMap) (Record, bool) {
	if candidate == nil {
		return Record{}, false
	}

	rawID, found := candidate.Get("id")
	if !found {
		return Record{}, false
	}
	id, ok := rawID.(string)
	if !ok || id == "" {
		return Record{}, false
	}

	rawValues, found := candidate.Get("values")
	if !found {
		return Record{}, false
	}
	values, ok := asObject(rawValues)
	if !ok {
		return Record{}, false
	}

	return Record{ID: id, Values: values}, true
}

// asObject accepts both pointer and value forms of a decoded nested object.
func asObject(v any) (*orderedmap.OrderedMap, bool) {
	switch m := v.(type) {
	case *orderedmap.OrderedMap:
		return m, m != nil
	case orderedmap.OrderedMap:
		return &m, true
	default:
		return nil, false
	}
}
