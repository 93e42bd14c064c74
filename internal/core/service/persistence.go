package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rl1809/storefront-cart/internal/port"
)

const persistenceVersion = 1

// Persistence is a best-effort wrapper over a key-value store. Read and write
// failures never reach the caller: a failure switches the adapter to
// memory-only mode, keeping the latest unsaved document per key. Writes are
// retried once retryAfter has passed since the failure, or on Flush.
type Persistence struct {
	store       port.KeyValueStore
	timeout     time.Duration
	retryAfter  time.Duration
	logger      *zap.Logger
	onDegraded  func(error)
	onRecovered func()
	now         func() time.Time

	mu         sync.Mutex
	degraded   bool
	degradedAt time.Time
	pending    map[string]string
}

type PersistenceOption func(*Persistence)

func WithPersistTimeout(d time.Duration) PersistenceOption {
	return func(p *Persistence) { p.timeout = d }
}

// WithRetryAfter sets how long a degraded adapter waits before a save tries
// the backend again. Zero disables retries from Save; Flush still retries.
func WithRetryAfter(d time.Duration) PersistenceOption {
	return func(p *Persistence) { p.retryAfter = d }
}

// WithDegradedHook registers fn to run each time the backend starts failing.
func WithDegradedHook(fn func(error)) PersistenceOption {
	return func(p *Persistence) { p.onDegraded = fn }
}

// WithRecoveredHook registers fn to run when a degraded adapter has written
// all pending state back.
func WithRecoveredHook(fn func()) PersistenceOption {
	return func(p *Persistence) { p.onRecovered = fn }
}

func NewPersistence(store port.KeyValueStore, logger *zap.Logger, opts ...PersistenceOption) *Persistence {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Persistence{
		store:   store,
		logger:  logger,
		now:     time.Now,
		pending: make(map[string]string),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.degraded = store == nil
	return p
}

func (p *Persistence) Degraded() bool {
	if p == nil {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.degraded
}

// Pending reports how many keys hold state the backend has not seen.
func (p *Persistence) Pending() int {
	if p == nil {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

// Load decodes the value stored under key into v. It reports false when
// nothing usable was found.
func (p *Persistence) Load(ctx context.Context, key string, v any) bool {
	if p.Degraded() {
		return false
	}

	ctx, cancel := p.opContext(ctx)
	defer cancel()

	raw, ok, err := p.store.Get(ctx, key)
	if err != nil {
		p.mu.Lock()
		transition := p.degradeLocked()
		p.mu.Unlock()
		if transition {
			p.notifyDegraded("load", key, err)
		}
		return false
	}
	if !ok || raw == "" {
		return false
	}

	if err := json.Unmarshal([]byte(raw), v); err != nil {
		p.logger.Warn("discarding unreadable persisted state", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (p *Persistence) Save(ctx context.Context, key string, v any) {
	if p == nil || p.store == nil {
		return
	}

	data, err := json.Marshal(v)
	if err != nil {
		p.logger.Error("encode state", zap.String("key", key), zap.Error(err))
		return
	}

	p.mu.Lock()
	if p.degraded {
		p.pending[key] = string(data)
		retry := p.retryAfter > 0 && p.now().Sub(p.degradedAt) >= p.retryAfter
		var recovered bool
		if retry {
			recovered = p.flushLocked(ctx)
		}
		p.mu.Unlock()
		if recovered {
			p.recovered()
		}
		return
	}

	err = p.write(ctx, key, string(data))
	if err != nil {
		p.pending[key] = string(data)
		p.degradeLocked()
	}
	p.mu.Unlock()

	if err != nil {
		p.notifyDegraded("save", key, err)
	}
}

// Flush writes every pending document back to the store. It reports whether
// the store now holds the latest state; an adapter without a store has
// nothing to hold and reports true.
func (p *Persistence) Flush(ctx context.Context) bool {
	if p == nil || p.store == nil {
		return true
	}

	p.mu.Lock()
	if !p.degraded {
		p.mu.Unlock()
		return true
	}
	recovered := p.flushLocked(ctx)
	p.mu.Unlock()

	if recovered {
		p.recovered()
	}
	return recovered
}

// flushLocked retries pending writes. On failure the cooldown restarts.
func (p *Persistence) flushLocked(ctx context.Context) bool {
	for key, data := range p.pending {
		if err := p.write(ctx, key, data); err != nil {
			p.degradedAt = p.now()
			p.logger.Debug("persistence still unavailable", zap.String("key", key), zap.Error(err))
			return false
		}
		delete(p.pending, key)
	}
	p.degraded = false
	return true
}

func (p *Persistence) write(ctx context.Context, key, data string) error {
	ctx, cancel := p.opContext(ctx)
	defer cancel()
	return p.store.Set(ctx, key, data)
}

func (p *Persistence) recovered() {
	p.logger.Info("persistence recovered")
	if p.onRecovered != nil {
		p.onRecovered()
	}
}

// opContext detaches from caller cancellation so an aborted request is not
// mistaken for a backend failure.
func (p *Persistence) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = context.WithoutCancel(ctx)
	if p.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, p.timeout)
}

// degradeLocked switches to memory-only mode and reports whether the adapter
// was healthy before.
func (p *Persistence) degradeLocked() bool {
	if p.degraded {
		return false
	}
	p.degraded = true
	p.degradedAt = p.now()
	return true
}

func (p *Persistence) notifyDegraded(op, key string, err error) {
	p.logger.Warn("persistence unavailable, continuing in memory",
		zap.String("op", op),
		zap.String("key", key),
		zap.Error(err),
	)
	if p.onDegraded != nil {
		p.onDegraded(err)
	}
}
