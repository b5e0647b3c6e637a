package engine

import "github.com/celerix-dev/celerix-cms/pkg/schema"

const subscriberBuffer = 16

// Subscribe returns a channel receiving every change to collection.
// Delivery is best effort: a subscriber that falls behind by more than the
// buffer misses notifications rather than blocking writers.
func (m *MemStore) Subscribe(collection string) (<-chan schema.Change, func()) {
	ch := make(chan schema.Change, subscriberBuffer)

	m.subMu.Lock()
	id := m.nextID
	m.nextID++
	if m.subs[collection] == nil {
		m.subs[collection] = make(map[int]chan schema.Change)
	}
	m.subs[collection][id] = ch
	m.subMu.Unlock()

	cancel := func() {
		m.subMu.Lock()
		defer m.subMu.Unlock()
		if subs, ok := m.subs[collection]; ok {
			if c, ok := subs[id]; ok {
				delete(subs, id)
				close(c)
			}
		}
	}
	return ch, cancel
}

func (m *MemStore) notify(change schema.Change) {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	for _, ch := range m.subs[change.Collection] {
		select {
		case ch <- change:
		default:
		}
	}
}
