package port

import (
	"context"

	"github.com/rl1809/storefront-cart/internal/core/domain"
)

type LeadSubmitter interface {
	// Submit posts the lead to the ingestion endpoint; nil means a 2xx response
	Submit(ctx context.Context, lead domain.Lead) error
}

type LeadRepository interface {
	// SaveLead persists the lead and its items atomically
	SaveLead(ctx context.Context, lead domain.Lead) error

	// GetLead retrieves a lead by ID, nil when missing
	GetLead(ctx context.Context, id string) (*domain.Lead, error)
}

type LeadNotifier interface {
	// NotifyLead tells the sales team about a new lead
	NotifyLead(ctx context.Context, lead domain.Lead) error
}
