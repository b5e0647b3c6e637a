package sdk

import (
	"encoding/json"

	"github.com/celerix-dev/celerix-cms/pkg/schema"
)

// CollectionScope is a scoped view that "remembers" its collection.
type CollectionScope struct {
	store DocumentStore
	name  string
}

// Collection returns a scope pinned to one collection of s.
func Collection(s DocumentStore, name string) *CollectionScope {
	return &CollectionScope{store: s, name: name}
}

// Name returns the pinned collection name.
func (c *CollectionScope) Name() string { return c.name }

func (c *CollectionScope) Get(id string) (schema.Document, error) {
	return c.store.Get(c.name, id)
}

func (c *CollectionScope) Set(id string, doc schema.Document) error {
	return c.store.Set(c.name, id, doc)
}

func (c *CollectionScope) Delete(id string) error {
	return c.store.Delete(c.name, id)
}

func (c *CollectionScope) List() (map[string]schema.Document, error) {
	return c.store.List(c.name)
}

func (c *CollectionScope) Query(q schema.Query) ([]schema.Entry, error) {
	return c.store.Query(c.name, q)
}

// --- Generics Support ---

// Get retrieves a document and decodes it into T.
// It re-marshals through JSON, so T only needs json tags matching the stored fields.
func Get[T any](s DocReader, collection, id string) (T, error) {
	var target T
	doc, err := s.Get(collection, id)
	if err != nil {
		return target, err
	}
	bytes, err := json.Marshal(doc)
	if err != nil {
		return target, err
	}
	err = json.Unmarshal(bytes, &target)
	return target, err
}

// Set encodes val as a JSON object and stores it.
func Set[T any](s DocWriter, collection, id string, val T) error {
	bytes, err := json.Marshal(val)
	if err != nil {
		return err
	}
	var doc schema.Document
	if err := json.Unmarshal(bytes, &doc); err != nil {
		return err
	}
	return s.Set(collection, id, doc)
}
