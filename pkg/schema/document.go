// Package schema defines universal data structures used across the Celerix CMS.
package schema

import (
	"errors"
	"math"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when a requested document does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCollection is returned for collection names the CMS does not manage.
	ErrInvalidCollection = errors.New("invalid collection")
	// ErrInvalidDocument is returned when a document cannot be decoded into a typed record.
	ErrInvalidDocument = errors.New("invalid document")
)

// Document is a loosely typed JSON document as kept by the store.
type Document map[string]any

// Clone returns a deep copy of the document. Nested objects and arrays are
// copied; other values are shared.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case Document:
		return t.Clone()
	case map[string]any:
		return map[string]any(Document(t).Clone())
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	}
	return v
}

// String returns the string value of field, or "" when absent or not a string.
func (d Document) String(field string) string {
	s, _ := d[field].(string)
	return strings.TrimSpace(s)
}

// Entry pairs a document with its identifier.
type Entry struct {
	ID  string   `json:"id"`
	Doc Document `json:"doc"`
}

// Query describes an ordered, bounded read over one collection.
type Query struct {
	OrderBy string `json:"order_by"`
	Desc    bool   `json:"desc"`
	Limit   int    `json:"limit"`
}

// Change is a notification emitted when a document is written or removed.
type Change struct {
	Collection string   `json:"collection"`
	ID         string   `json:"id"`
	Doc        Document `json:"doc,omitempty"`
	Deleted    bool     `json:"deleted,omitempty"`
}

// TimeValue converts a stored timestamp into a time.Time.
// It understands time.Time, RFC3339 strings and unix milliseconds.
func TimeValue(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, !t.IsZero()
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(t))
		if err != nil {
			return time.Time{}, false
		}
		return parsed, true
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return time.Time{}, false
		}
		return time.UnixMilli(int64(t)).UTC(), true
	case int64:
		return time.UnixMilli(t).UTC(), true
	case int:
		return time.UnixMilli(int64(t)).UTC(), true
	}
	return time.Time{}, false
}
