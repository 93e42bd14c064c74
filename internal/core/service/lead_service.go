package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/rl1809/storefront-cart/internal/core/domain"
	"github.com/rl1809/storefront-cart/internal/port"
)

const leadIdempotencyPrefix = "lead:"

var ErrInvalidLead = errors.New("invalid lead")

// LeadService backs the lead ingestion endpoint that checkout posts to.
type LeadService struct {
	repo     port.LeadRepository
	guard    port.IdempotencyGuard
	notifier port.LeadNotifier
	logger   *zap.Logger
}

// NewLeadService wires the repository with an optional idempotency guard and
// notifier; either may be nil.
func NewLeadService(repo port.LeadRepository, guard port.IdempotencyGuard, notifier port.LeadNotifier, logger *zap.Logger) *LeadService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LeadService{repo: repo, guard: guard, notifier: notifier, logger: logger}
}

func (s *LeadService) Ingest(ctx context.Context, lead domain.Lead) error {
	if lead.ID == "" || len(lead.Items) == 0 || !lead.Contact.Valid() || !lead.Consistent() {
		return ErrInvalidLead
	}

	key := leadIdempotencyPrefix + lead.ID
	if s.guard != nil {
		ok, err := s.guard.SetIdempotency(ctx, key)
		if err != nil {
			return fmt.Errorf("idempotency check failed: %w", err)
		}
		if !ok {
			return domain.ErrDuplicateLead
		}
	}

	if err := s.repo.SaveLead(ctx, lead); err != nil {
		if errors.Is(err, domain.ErrDuplicateLead) {
			return err
		}
		// Rollback: let the client retry the same lead
		if s.guard != nil {
			if rollbackErr := s.guard.ReleaseIdempotency(ctx, key); rollbackErr != nil {
				s.logger.Error("idempotency rollback failed", zap.String("lead_id", lead.ID), zap.Error(rollbackErr))
			}
		}
		return fmt.Errorf("save lead: %w", err)
	}

	s.logger.Info("lead ingested",
		zap.String("lead_id", lead.ID),
		zap.String("session_id", lead.SessionID),
		zap.Int("item_count", lead.ItemCount),
	)

	if s.notifier != nil {
		if err := s.notifier.NotifyLead(ctx, lead); err != nil {
			s.logger.Warn("lead notification failed", zap.String("lead_id", lead.ID), zap.Error(err))
		}
	}
	return nil
}

func (s *LeadService) Get(ctx context.Context, id string) (*domain.Lead, error) {
	lead, err := s.repo.GetLead(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get lead: %w", err)
	}
	return lead, nil
}
