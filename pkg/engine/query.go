package engine

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/celerix-dev/celerix-cms/pkg/schema"
)

// Query returns the documents of a collection ordered by q.OrderBy.
// Values fall into three groups, compared in this order: documents missing
// the field, timestamps and numbers (chronologically, numbers as epoch milliseconds),
// and everything else by its string form. Ties are broken by ascending ID
// so results are stable.
func (m *MemStore) Query(collection string, q schema.Query) ([]schema.Entry, error) {
	m.mu.RLock()
	entries := make([]schema.Entry, 0, len(m.data[collection]))
	for id, doc := range m.data[collection] {
		entries = append(entries, schema.Entry{ID: id, Doc: doc.Clone()})
	}
	m.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		c := compareField(entries[i].Doc, entries[j].Doc, q.OrderBy)
		if c == 0 {
			return entries[i].ID < entries[j].ID
		}
		if q.Desc {
			return c > 0
		}
		return c < 0
	})

	if q.Limit > 0 && len(entries) > q.Limit {
		entries = entries[:q.Limit]
	}
	return entries, nil
}

const (
	rankMissing = iota
	rankTime
	rankOther
)

func rankOf(v any, present bool) (int, time.Time) {
	if !present {
		return rankMissing, time.Time{}
	}
	// Millisecond numbers keep their fraction so they order like floats.
	if n, ok := v.(float64); ok && math.Abs(n) < maxExactMillis {
		return rankTime, time.Unix(0, 0).Add(time.Duration(n * float64(time.Millisecond))).UTC()
	}
	if t, ok := schema.TimeValue(v); ok {
		return rankTime, t
	}
	return rankOther, time.Time{}
}

const maxExactMillis = float64(math.MaxInt64 / int64(time.Millisecond))

func compareField(a, b schema.Document, field string) int {
	if field == "" {
		return 0
	}
	av, aok := a[field]
	bv, bok := b[field]
	ar, at := rankOf(av, aok)
	br, bt := rankOf(bv, bok)
	if ar != br {
		return ar - br
	}

	switch ar {
	case rankMissing:
		return 0
	case rankTime:
		return at.Compare(bt)
	}
	return compareStrings(fmt.Sprint(av), fmt.Sprint(bv))
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
