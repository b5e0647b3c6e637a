package sdk

import "github.com/celerix-dev/celerix-cms/pkg/schema"

// --- Functional Interfaces (Interface Segregation) ---

// DocReader defines the basic read operations for the store.
type DocReader interface {
	Get(collection, id string) (schema.Document, error)
	List(collection string) (map[string]schema.Document, error)
}

// DocWriter defines the basic write and delete operations for the store.
type DocWriter interface {
	Set(collection, id string, doc schema.Document) error
	Delete(collection, id string) error
}

// Enumerator allows discovering collections.
type Enumerator interface {
	Collections() ([]string, error)
}

// Querier runs ordered, bounded reads over a collection.
type Querier interface {
	Query(collection string, q schema.Query) ([]schema.Entry, error)
}

// Dumper allows retrieving every collection at once.
type Dumper interface {
	Dump() (map[string]map[string]schema.Document, error)
}

// Watcher delivers change notifications for a collection.
// The returned cancel func must be called to release the subscription.
type Watcher interface {
	Subscribe(collection string) (<-chan schema.Change, func())
}

// --- Composite Interfaces ---

// DocumentStore is the primary interface for interacting with the data store.
// Both the embedded engine and the remote network client implement it.
type DocumentStore interface {
	DocReader
	DocWriter
	Enumerator
	Querier
	Dumper
}
