// Package site holds the shared site content backed by the settings collection.
package site

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/celerix-dev/celerix-cms/pkg/schema"
	"github.com/celerix-dev/celerix-cms/pkg/sdk"
)

// ClientsID is the settings document holding the client list:
//
//	{"items": [{"name": "Acme", "url": "https://acme.test"}, "Globex"]}
const ClientsID = "clients"

// Client is one entry of the client list. Plain string items are names.
type Client struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
	Logo string `json:"logo,omitempty"`
}

// ClientList caches the client list and follows changes to it.
type ClientList struct {
	store  sdk.DocReader
	logger *slog.Logger

	mu      sync.RWMutex
	clients []Client

	cancel func()
	done   chan struct{}
}

// NewClientList returns an empty list. Refresh loads it; Watch keeps it current.
func NewClientList(store sdk.DocReader, logger *slog.Logger) *ClientList {
	if logger == nil {
		logger = slog.Default()
	}
	return &ClientList{store: store, logger: logger}
}

// Refresh reads the current value. A missing document means no clients.
func (l *ClientList) Refresh() error {
	doc, err := l.store.Get(string(schema.CollectionSettings), ClientsID)
	if errors.Is(err, schema.ErrNotFound) {
		l.set(nil)
		return nil
	}
	if err != nil {
		return err
	}
	l.set(decodeClients(doc))
	return nil
}

// Watch applies change notifications until Close.
func (l *ClientList) Watch(w sdk.Watcher) {
	ch, cancel := w.Subscribe(string(schema.CollectionSettings))
	l.cancel = cancel
	l.done = make(chan struct{})
	go func() {
		defer close(l.done)
		for change := range ch {
			if change.ID != ClientsID {
				continue
			}
			if change.Deleted {
				l.set(nil)
			} else {
				l.set(decodeClients(change.Doc))
			}
			l.logger.Debug("site.clients.changed", slog.Bool("deleted", change.Deleted))
		}
	}()
}

// Clients returns a copy of the current list.
func (l *ClientList) Clients() []Client {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Client{}, l.clients...)
}

// Close stops the watch goroutine, if any, and waits for it to exit.
func (l *ClientList) Close() {
	if l.cancel != nil {
		l.cancel()
		<-l.done
	}
}

func (l *ClientList) set(clients []Client) {
	l.mu.Lock()
	l.clients = clients
	l.mu.Unlock()
}

func decodeClients(doc schema.Document) []Client {
	items, _ := doc["items"].([]any)
	clients := make([]Client, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case string:
			if v != "" {
				clients = append(clients, Client{Name: v})
			}
		case map[string]any:
			d := schema.Document(v)
			c := Client{Name: d.String("name"), URL: d.String("url"), Logo: d.String("logo")}
			if c.Name != "" {
				clients = append(clients, c)
			}
		}
	}
	return clients
}
