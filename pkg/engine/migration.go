package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/celerix-dev/celerix-cms/pkg/schema"
)

// Source is anything that can export all of its collections.
type Source interface {
	Dump() (map[string]map[string]schema.Document, error)
}

// Sink is anything documents can be written into.
type Sink interface {
	Set(collection, id string, doc schema.Document) error
}

// Migrate takes data from a source store and pushes it to a destination store.
// This works for:
// - Embedded -> Remote (The "Upgrade")
// - Remote -> Embedded (The "Backup/Offline")
func Migrate(src Source, dst Sink) (int, error) {
	all, err := src.Dump()
	if err != nil {
		return 0, fmt.Errorf("failed to dump source: %w", err)
	}

	written := 0
	for _, collection := range sortedKeys(all) {
		docs := all[collection]
		for _, id := range sortedKeys(docs) {
			if err := dst.Set(collection, id, docs[id]); err != nil {
				return written, fmt.Errorf("failed to set %s/%s in destination: %w", collection, id, err)
			}
			written++
		}
	}
	return written, nil
}

// SeedFixtures copies JSON fixtures from dir into dst.
// Each *.json file names a collection and holds either an object keyed by
// document ID or an array of documents carrying an "id" field.
func SeedFixtures(dir string, dst Sink) (int, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return 0, err
	}
	sort.Strings(files)

	written := 0
	for _, file := range files {
		collection := strings.TrimSuffix(filepath.Base(file), ".json")
		content, err := os.ReadFile(file)
		if err != nil {
			return written, fmt.Errorf("read fixture %s: %w", file, err)
		}
		docs, err := decodeFixture(content)
		if err != nil {
			return written, fmt.Errorf("decode fixture %s: %w", file, err)
		}
		for _, id := range sortedKeys(docs) {
			if err := dst.Set(collection, id, docs[id]); err != nil {
				return written, fmt.Errorf("seed %s/%s: %w", collection, id, err)
			}
			written++
		}
	}
	return written, nil
}

func decodeFixture(content []byte) (map[string]schema.Document, error) {
	var asArray []schema.Document
	if err := json.Unmarshal(content, &asArray); err == nil {
		docs := make(map[string]schema.Document, len(asArray))
		for i, doc := range asArray {
			id := doc.String("id")
			if id == "" {
				return nil, fmt.Errorf("%w: element %d has no id", schema.ErrInvalidDocument, i)
			}
			delete(doc, "id")
			docs[id] = doc
		}
		return docs, nil
	}

	var asObject map[string]schema.Document
	if err := json.Unmarshal(content, &asObject); err != nil {
		return nil, err
	}
	return asObject, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
