package engine

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/celerix-dev/celerix-cms/pkg/schema"
)

// MemStore is the thread-safe in-memory document engine.
type MemStore struct {
	mu sync.RWMutex
	// Structure: [collection][id]document
	data      map[string]map[string]schema.Document
	persister *Persistence
	wg        sync.WaitGroup
	logger    *slog.Logger

	subMu  sync.Mutex
	subs   map[string]map[int]chan schema.Change
	nextID int
}

// NewMemStore initializes a store.
// It accepts existing data (from LoadAll) and a persister, which may be nil.
func NewMemStore(initialData map[string]map[string]schema.Document, p *Persistence) *MemStore {
	if initialData == nil {
		initialData = make(map[string]map[string]schema.Document)
	}
	return &MemStore{
		data:      initialData,
		persister: p,
		logger:    slog.Default(),
		subs:      make(map[string]map[int]chan schema.Change),
	}
}

// WithLogger sets the logger used for background persistence failures.
func (m *MemStore) WithLogger(l *slog.Logger) *MemStore {
	if l != nil {
		m.logger = l
	}
	return m
}

// Wait waits for all background persistence tasks to complete.
func (m *MemStore) Wait() {
	m.wg.Wait()
}

// --- Interface Implementation ---

func (m *MemStore) Get(collection, id string) (schema.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	docs, ok := m.data[collection]
	if !ok {
		return nil, ErrNotFound
	}
	doc, ok := docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return doc.Clone(), nil
}

func (m *MemStore) Set(collection, id string, doc schema.Document) error {
	if err := validateKey(collection, id); err != nil {
		return err
	}
	stored := doc.Clone()
	if stored == nil {
		stored = schema.Document{}
	}

	m.mu.Lock()
	if m.data[collection] == nil {
		m.data[collection] = make(map[string]schema.Document)
	}
	m.data[collection][id] = stored
	version, snapshot := m.snapshot(collection)
	m.mu.Unlock()

	m.persist(collection, version, snapshot)
	m.notify(schema.Change{Collection: collection, ID: id, Doc: stored.Clone()})
	return nil
}

func (m *MemStore) Delete(collection, id string) error {
	m.mu.Lock()
	docs, ok := m.data[collection]
	if !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	if _, ok := docs[id]; !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	delete(docs, id)
	version, snapshot := m.snapshot(collection)
	m.mu.Unlock()

	m.persist(collection, version, snapshot)
	m.notify(schema.Change{Collection: collection, ID: id, Deleted: true})
	return nil
}

func (m *MemStore) List(collection string) (map[string]schema.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]schema.Document)
	for id, doc := range m.data[collection] {
		out[id] = doc.Clone()
	}
	return out, nil
}

func (m *MemStore) Collections() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]string, 0, len(m.data))
	for name := range m.data {
		list = append(list, name)
	}
	sort.Strings(list)
	return list, nil
}

func (m *MemStore) Dump() (map[string]map[string]schema.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]map[string]schema.Document, len(m.data))
	for name := range m.data {
		out[name] = m.copyCollection(name)
	}
	return out, nil
}

// persist writes the collection snapshot in the background. Writers may run
// in any order; the persister keeps only the highest version on disk.
func (m *MemStore) persist(collection string, version uint64, snapshot map[string]schema.Document) {
	if m.persister == nil {
		return
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		if err := m.persister.SaveVersion(collection, version, snapshot); err != nil {
			m.logger.Error("engine.persist", slog.String("collection", collection), slog.Any("error", err))
		}
	}()
}

// snapshot copies a collection and stamps it with the persister's next
// version, so stamps follow mutation order.
// It MUST be called while holding m.mu.Lock.
func (m *MemStore) snapshot(collection string) (uint64, map[string]schema.Document) {
	var version uint64
	if m.persister != nil {
		version = m.persister.nextVersion(collection)
	}
	return version, m.copyCollection(collection)
}

// copyCollection creates a copy of one collection's documents.
// It MUST be called while holding m.mu.Lock or m.mu.RLock.
func (m *MemStore) copyCollection(collection string) map[string]schema.Document {
	original := m.data[collection]
	out := make(map[string]schema.Document, len(original))
	for id, doc := range original {
		out[id] = doc.Clone()
	}
	return out
}

// validateKey rejects names that cannot travel over the line protocol or
// become file names.
func validateKey(collection, id string) error {
	if collection == "" || id == "" {
		return fmt.Errorf("%w: collection and id are required", schema.ErrInvalidDocument)
	}
	if strings.ContainsAny(collection, " \t\r\n/\\.") || strings.ContainsAny(id, " \t\r\n") {
		return fmt.Errorf("%w: collection %q or id %q contains forbidden characters", schema.ErrInvalidDocument, collection, id)
	}
	return nil
}
