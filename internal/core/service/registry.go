package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/rl1809/storefront-cart/internal/port"
)

// Storefront is the state layer for one browser session: the stores, the
// broadcaster every open view subscribes to, and checkout.
type Storefront struct {
	ID          string
	Bus         *Broadcaster
	Cart        *CartStore
	Wishlist    *WishlistStore
	Checkout    *CheckoutService
	Persistence *Persistence

	lastSeen atomic.Int64
}

func (s *Storefront) touch(now time.Time) {
	s.lastSeen.Store(now.UnixNano())
}

func (s *Storefront) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

// StoreFactory returns the key-value store scoped to one session. It may
// return nil to run that session in memory only.
type StoreFactory func(sessionID string) port.KeyValueStore

type RegistryConfig struct {
	Currency       string
	SubmitTimeout  time.Duration
	PersistTimeout time.Duration
	// PersistRetryAfter is the cooldown before a degraded session's saves
	// try the store again.
	PersistRetryAfter time.Duration
	// OnDegraded runs when a session's persistence starts failing.
	OnDegraded func(sessionID string, err error)
	// OnRecovered runs when a degraded session has written its state back.
	OnRecovered func(sessionID string)
}

// Registry owns one Storefront per session, created on first use from the
// session's persisted state.
type Registry struct {
	mu        sync.Mutex
	sessions  map[string]*Storefront
	stores    StoreFactory
	submitter port.LeadSubmitter
	cfg       RegistryConfig
	logger    *zap.Logger
	now       func() time.Time
}

func NewRegistry(stores StoreFactory, submitter port.LeadSubmitter, cfg RegistryConfig, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		sessions:  make(map[string]*Storefront),
		stores:    stores,
		submitter: submitter,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

func (r *Registry) Open(ctx context.Context, sessionID string) *Storefront {
	r.mu.Lock()
	defer r.mu.Unlock()

	sf, ok := r.sessions[sessionID]
	if !ok {
		sf = r.build(ctx, sessionID)
		r.sessions[sessionID] = sf
		r.logger.Debug("session opened", zap.String("session_id", sessionID))
	}
	sf.touch(r.now())
	return sf
}

func (r *Registry) build(ctx context.Context, sessionID string) *Storefront {
	logger := r.logger.With(zap.String("session_id", sessionID))

	var kv port.KeyValueStore
	if r.stores != nil {
		kv = r.stores(sessionID)
	}

	opts := []PersistenceOption{
		WithPersistTimeout(r.cfg.PersistTimeout),
		WithRetryAfter(r.cfg.PersistRetryAfter),
	}
	if r.cfg.OnDegraded != nil {
		hook := r.cfg.OnDegraded
		opts = append(opts, WithDegradedHook(func(err error) { hook(sessionID, err) }))
	}
	if r.cfg.OnRecovered != nil {
		hook := r.cfg.OnRecovered
		opts = append(opts, WithRecoveredHook(func() { hook(sessionID) }))
	}
	persist := NewPersistence(kv, logger, opts...)

	bus := NewBroadcaster(logger)
	cart := NewCartStore(ctx, persist, bus, logger)
	return &Storefront{
		ID:          sessionID,
		Bus:         bus,
		Cart:        cart,
		Wishlist:    NewWishlistStore(ctx, persist, bus, logger),
		Checkout:    NewCheckoutService(sessionID, cart, r.submitter, CheckoutConfig{Currency: r.cfg.Currency, SubmitTimeout: r.cfg.SubmitTimeout}, logger),
		Persistence: persist,
	}
}

// Evict drops sessions idle for longer than idle. Their state stays in the
// key-value store and is reloaded on the next Open. A session whose pending
// state cannot be written back is kept, since memory holds its only copy.
func (r *Registry) Evict(idle time.Duration) int {
	cutoff := r.now().Add(-idle)
	idleSince := func(sf *Storefront) bool {
		return sf.LastSeen().Before(cutoff) && sf.Bus.Len() == 0
	}

	r.mu.Lock()
	var candidates []*Storefront
	for _, sf := range r.sessions {
		if idleSince(sf) {
			candidates = append(candidates, sf)
		}
	}
	r.mu.Unlock()

	evicted := 0
	for _, sf := range candidates {
		if !sf.Persistence.Flush(context.Background()) {
			r.logger.Warn("keeping idle session with unsaved state", zap.String("session_id", sf.ID))
			continue
		}

		r.mu.Lock()
		if r.sessions[sf.ID] == sf && idleSince(sf) && sf.Persistence.Pending() == 0 {
			delete(r.sessions, sf.ID)
			evicted++
		}
		r.mu.Unlock()
	}
	return evicted
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// RunJanitor evicts idle sessions every interval until ctx is done.
func (r *Registry) RunJanitor(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Evict(idle); n > 0 {
				r.logger.Info("evicted idle sessions", zap.Int("count", n), zap.Int("remaining", r.Len()))
			}
		}
	}
}
