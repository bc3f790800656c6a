package sessions

import (
	"context"
	"sync"
	"time"

	"artemis/client"
)

type memoryItem struct {
	session *client.Session
	expires time.Time
}

// MemoryStore keeps sessions in process. A non-positive ttl disables expiry.
// Expired sessions are dropped on Load and swept from Save at most once per ttl.
type MemoryStore struct {
	mu        sync.Mutex
	ttl       time.Duration
	now       func() time.Time
	lastSweep time.Time
	items     map[string]memoryItem
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]memoryItem),
	}
}

func (m *MemoryStore) Load(_ context.Context, id string) (*client.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	if !item.expires.IsZero() && !m.now().Before(item.expires) {
		delete(m.items, id)
		return nil, ErrNotFound
	}
	return item.session.Clone(), nil
}

func (m *MemoryStore) Save(_ context.Context, s *client.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	item := memoryItem{session: s.Clone()}
	if m.ttl > 0 {
		item.expires = now.Add(m.ttl)
		if now.Sub(m.lastSweep) >= m.ttl {
			m.sweep(now)
		}
	}
	m.items[s.ID] = item
	return nil
}

func (m *MemoryStore) sweep(now time.Time) {
	for id, item := range m.items {
		if !item.expires.IsZero() && !now.Before(item.expires) {
			delete(m.items, id)
		}
	}
	m.lastSweep = now
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
	return nil
}
