package storage

import (
	"context"
	"sync"

	"github.com/rl1809/storefront-cart/internal/port"
)

// MemoryAdapter is the in-process fallback used when Redis is unavailable.
// Like browser storage, each scope has a total byte quota.
type MemoryAdapter struct {
	mu     sync.Mutex
	scopes map[string]map[string]string
	quota  int
}

func NewMemoryAdapter(quota int) *MemoryAdapter {
	return &MemoryAdapter{scopes: make(map[string]map[string]string), quota: quota}
}

func (m *MemoryAdapter) Scope(sessionID string) port.KeyValueStore {
	return &memoryScope{adapter: m, scope: sessionID}
}

func (m *MemoryAdapter) get(scope, key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.scopes[scope][key]
	return v, ok
}

func (m *MemoryAdapter) set(scope, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.scopes[scope]
	if !ok {
		data = make(map[string]string)
		m.scopes[scope] = data
	}

	if m.quota > 0 {
		used := 0
		for k, v := range data {
			if k != key {
				used += len(k) + len(v)
			}
		}
		if used+len(key)+len(value) > m.quota {
			return ErrQuotaExceeded
		}
	}

	data[key] = value
	return nil
}

type memoryScope struct {
	adapter *MemoryAdapter
	scope   string
}

func (s *memoryScope) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	v, ok := s.adapter.get(s.scope, key)
	return v, ok, nil
}

func (s *memoryScope) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.adapter.set(s.scope, key, value)
}
