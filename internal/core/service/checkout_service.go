package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rl1809/storefront-cart/internal/core/domain"
	"github.com/rl1809/storefront-cart/internal/port"
)

var (
	ErrSubmissionInFlight = errors.New("checkout submission already in flight")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrInvalidContact     = errors.New("name and email or phone are required")
	ErrNoSubmitter        = errors.New("no lead submitter configured")
)

type CheckoutConfig struct {
	Currency      string
	SubmitTimeout time.Duration
}

// CheckoutService turns a frozen cart snapshot into an order lead. The cart is
// cleared only after the submitter reports success.
type CheckoutService struct {
	sessionID string
	cart      *CartStore
	submitter port.LeadSubmitter
	cfg       CheckoutConfig
	logger    *zap.Logger

	busy    atomic.Bool
	cleared atomic.Bool
	now     func() time.Time
}

func NewCheckoutService(sessionID string, cart *CartStore, submitter port.LeadSubmitter, cfg CheckoutConfig, logger *zap.Logger) *CheckoutService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Currency == "" {
		cfg.Currency = "USD"
	}
	return &CheckoutService{
		sessionID: sessionID,
		cart:      cart,
		submitter: submitter,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

func (c *CheckoutService) Submit(ctx context.Context, contact domain.Contact) (domain.Lead, error) {
	if !c.busy.CompareAndSwap(false, true) {
		return domain.Lead{}, ErrSubmissionInFlight
	}
	defer c.busy.Store(false)

	snap := c.cart.Snapshot()
	if snap.IsEmpty() {
		return domain.Lead{}, ErrEmptyCart
	}
	if !contact.Valid() {
		return domain.Lead{}, ErrInvalidContact
	}

	lead := domain.NewLead(uuid.NewString(), c.sessionID, contact, snap, c.cfg.Currency, c.now())

	if err := c.submit(ctx, lead); err != nil {
		c.logger.Warn("lead submission failed",
			zap.String("session_id", c.sessionID),
			zap.String("lead_id", lead.ID),
			zap.Error(err),
		)
		return domain.Lead{}, fmt.Errorf("submit lead: %w", err)
	}

	c.cart.ClearCart(ctx)
	c.cleared.Store(true)

	c.logger.Info("lead submitted",
		zap.String("session_id", c.sessionID),
		zap.String("lead_id", lead.ID),
		zap.Int("item_count", lead.ItemCount),
		zap.Int64("total", lead.Total),
	)
	return lead, nil
}

func (c *CheckoutService) submit(ctx context.Context, lead domain.Lead) error {
	if c.submitter == nil {
		return ErrNoSubmitter
	}
	if c.cfg.SubmitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.SubmitTimeout)
		defer cancel()
	}
	return c.submitter.Submit(ctx, lead)
}

func (c *CheckoutService) State() domain.CheckoutState {
	switch {
	case c.busy.Load():
		return domain.CheckoutSubmitting
	case c.cart.Len() > 0:
		return domain.CheckoutOpen
	case c.cleared.Load():
		return domain.CheckoutCleared
	default:
		return domain.CheckoutEmpty
	}
}
