package storage

import (
	"context"
	"sync"

	"github.com/rl1809/storefront-cart/internal/core/domain"
)

// MemoryLeadRepository keeps leads in process when no database is configured.
type MemoryLeadRepository struct {
	mu    sync.RWMutex
	leads map[string]domain.Lead
}

func NewMemoryLeadRepository() *MemoryLeadRepository {
	return &MemoryLeadRepository{leads: make(map[string]domain.Lead)}
}

func (m *MemoryLeadRepository) SaveLead(ctx context.Context, lead domain.Lead) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.leads[lead.ID]; ok {
		return domain.ErrDuplicateLead
	}
	items := make([]domain.LeadItem, len(lead.Items))
	copy(items, lead.Items)
	lead.Items = items
	m.leads[lead.ID] = lead
	return nil
}

func (m *MemoryLeadRepository) GetLead(ctx context.Context, id string) (*domain.Lead, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	lead, ok := m.leads[id]
	if !ok {
		return nil, nil
	}
	return &lead, nil
}
