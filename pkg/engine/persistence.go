package engine

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/celerix-dev/celerix-cms/pkg/schema"
)

// Persistence handles the disk I/O for the MemStore
type Persistence struct {
	DataDir string
	logger  *slog.Logger

	mu      sync.Mutex // Protects concurrent writes to the filesystem
	written map[string]uint64

	seqMu sync.Mutex
	seq   map[string]uint64
}

// NewPersistence initializes a persistence handler.
func NewPersistence(dir string) (*Persistence, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Persistence{
		DataDir: dir,
		logger:  slog.Default(),
		written: make(map[string]uint64),
		seq:     make(map[string]uint64),
	}, nil
}

// WithLogger sets the logger used for load warnings.
func (p *Persistence) WithLogger(l *slog.Logger) *Persistence {
	if l != nil {
		p.logger = l
	}
	return p
}

// SaveCollection writes a single collection to a JSON file atomically.
func (p *Persistence) SaveCollection(collection string, docs map[string]schema.Document) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.write(collection, docs)
}

// SaveVersion writes the snapshot taken at version. A snapshot older than
// the last one written for the collection is discarded.
func (p *Persistence) SaveVersion(collection string, version uint64, docs map[string]schema.Document) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if version <= p.written[collection] {
		return nil
	}
	if err := p.write(collection, docs); err != nil {
		return err
	}
	p.written[collection] = version
	return nil
}

func (p *Persistence) nextVersion(collection string) uint64 {
	p.seqMu.Lock()
	defer p.seqMu.Unlock()
	p.seq[collection]++
	return p.seq[collection]
}

// write MUST be called while holding p.mu.
func (p *Persistence) write(collection string, docs map[string]schema.Document) error {
	filePath := filepath.Join(p.DataDir, collection+".json")
	tempPath := filePath + ".tmp"

	bytes, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal collection %s: %w", collection, err)
	}

	if err := os.WriteFile(tempPath, bytes, 0644); err != nil {
		return fmt.Errorf("write collection %s: %w", collection, err)
	}

	// Rename is atomic on POSIX filesystems: readers see the old file or the new one.
	return os.Rename(tempPath, filePath)
}

// LoadAll returns every collection found in the data directory.
// Unreadable or corrupt files are skipped with a warning.
func (p *Persistence) LoadAll() (map[string]map[string]schema.Document, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	allData := make(map[string]map[string]schema.Document)

	files, err := os.ReadDir(p.DataDir)
	if err != nil {
		return nil, err
	}

	for _, file := range files {
		if file.IsDir() || filepath.Ext(file.Name()) != ".json" {
			continue
		}
		collection := strings.TrimSuffix(file.Name(), ".json")

		content, err := os.ReadFile(filepath.Join(p.DataDir, file.Name()))
		if err != nil {
			p.logger.Warn("engine.load: could not read collection file", slog.String("file", file.Name()), slog.Any("error", err))
			continue
		}

		var docs map[string]schema.Document
		if err := json.Unmarshal(content, &docs); err != nil {
			p.logger.Warn("engine.load: could not unmarshal collection", slog.String("file", file.Name()), slog.Any("error", err))
			continue
		}
		allData[collection] = docs
	}
	return allData, nil
}
