package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rl1809/storefront-cart/internal/core/domain"
)

const cartStorageKey = "cart"

type persistedCart struct {
	Version int               `json:"version"`
	Items   []domain.LineItem `json:"items"`
}

// CartStore is the ordered set of line items for one session, keyed by
// VariantKey. Totals are always derived from the items.
//
// writeMu serializes whole mutations including persistence and dispatch, so
// events reach subscribers in mutation order. mu guards the items and is never
// held while subscribers run.
type CartStore struct {
	writeMu sync.Mutex
	mu      sync.RWMutex
	items   []domain.LineItem
	index   map[domain.VariantKey]int

	persist *Persistence
	bus     *Broadcaster
	logger  *zap.Logger
	now     func() time.Time
}

func NewCartStore(ctx context.Context, persist *Persistence, bus *Broadcaster, logger *zap.Logger) *CartStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &CartStore{
		index:   make(map[domain.VariantKey]int),
		persist: persist,
		bus:     bus,
		logger:  logger,
		now:     time.Now,
	}

	var doc persistedCart
	if persist.Load(ctx, cartStorageKey, &doc) {
		for _, item := range doc.Items {
			s.restore(item)
		}
		logger.Debug("cart restored", zap.Int("lines", len(s.items)))
	}
	return s
}

// restore re-applies the dedup and clamping rules to persisted lines, which
// may have been written by an older build or edited by hand.
func (s *CartStore) restore(item domain.LineItem) {
	if domain.ValidateProductID(item.ProductID) != nil {
		return
	}
	key := item.Key()
	item.Quantity = item.ClampQuantity(item.Quantity)
	if i, ok := s.index[key]; ok {
		existing := &s.items[i]
		existing.Quantity = existing.AddQuantity(item.Quantity)
		return
	}
	s.index[key] = len(s.items)
	s.items = append(s.items, item)
}

// AddItem merges quantity into the line for the input's variant, creating it
// when missing. Empty product ids and quantities below 1 are ignored.
func (s *CartStore) AddItem(ctx context.Context, in domain.NewLineItemInput, quantity int) {
	if domain.ValidateProductID(in.ProductID) != nil || quantity < 1 {
		s.logger.Debug("cart add rejected",
			zap.String("product_id", in.ProductID),
			zap.Int("quantity", quantity),
		)
		return
	}
	key := domain.ComputeKey(in.ProductID, in.Size, in.Firmness)

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	changed := true
	if i, ok := s.index[key]; ok {
		item := &s.items[i]
		next := item.AddQuantity(quantity)
		changed = next != item.Quantity
		item.Quantity = next
	} else {
		s.index[key] = len(s.items)
		s.items = append(s.items, domain.NewLineItem(in, quantity))
	}
	s.mu.Unlock()

	if changed {
		s.commit(ctx, domain.EventCartItemAdded, key, in.ProductID)
	}
}

// UpdateQuantity sets the quantity of an existing line. Values below 1 are
// clamped up to 1 instead of removing the line.
func (s *CartStore) UpdateQuantity(ctx context.Context, productID, size, firmness string, quantity int) {
	key := domain.ComputeKey(productID, size, firmness)

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	i, ok := s.index[key]
	if !ok {
		s.mu.Unlock()
		return
	}
	item := &s.items[i]
	next := item.ClampQuantity(quantity)
	changed := next != item.Quantity
	item.Quantity = next
	s.mu.Unlock()

	if changed {
		s.commit(ctx, domain.EventCartQuantityUpdated, key, productID)
	}
}

func (s *CartStore) RemoveItem(ctx context.Context, productID, size, firmness string) {
	key := domain.ComputeKey(productID, size, firmness)

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	i, ok := s.index[key]
	if !ok {
		s.mu.Unlock()
		return
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	s.reindex()
	s.mu.Unlock()

	s.commit(ctx, domain.EventCartItemRemoved, key, productID)
}

// ClearCart empties the cart. Checkout calls it once, after a successful
// lead submission.
func (s *CartStore) ClearCart(ctx context.Context) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	if len(s.items) == 0 {
		s.mu.Unlock()
		return
	}
	s.items = nil
	s.index = make(map[domain.VariantKey]int)
	s.mu.Unlock()

	s.commit(ctx, domain.EventCartCleared, "", "")
}

func (s *CartStore) Snapshot() domain.CartSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.NewCartSnapshot(s.items)
}

func (s *CartStore) Items() []domain.LineItem {
	return s.Snapshot().Items
}

func (s *CartStore) Total() int64 {
	return s.Snapshot().Total()
}

func (s *CartStore) ItemCount() int {
	return s.Snapshot().ItemCount()
}

// Len is the number of distinct lines.
func (s *CartStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// commit persists and broadcasts the current state. Callers hold writeMu.
func (s *CartStore) commit(ctx context.Context, kind domain.EventKind, key domain.VariantKey, productID string) {
	snap := s.Snapshot()
	s.persist.Save(ctx, cartStorageKey, persistedCart{Version: persistenceVersion, Items: snap.Items})
	s.bus.Publish(domain.Event{
		Kind:       kind,
		Key:        key,
		ProductID:  productID,
		Cart:       &snap,
		OccurredAt: s.now(),
	})
}

func (s *CartStore) reindex() {
	s.index = make(map[domain.VariantKey]int, len(s.items))
	for i, item := range s.items {
		s.index[item.Key()] = i
	}
}
