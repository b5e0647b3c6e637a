// Package engine implements the embedded document store of the Celerix CMS.
//
// Documents live in memory as [collection][id]Document and every mutation is
// persisted in the background, one JSON file per collection.
package engine

import "github.com/celerix-dev/celerix-cms/pkg/schema"

// ErrNotFound aliases schema.ErrNotFound so callers can match either.
var ErrNotFound = schema.ErrNotFound
