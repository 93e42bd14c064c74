package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rl1809/storefront-cart/internal/core/domain"
)

const wishlistStorageKey = "wishlist"

type persistedWishlist struct {
	Version int                    `json:"version"`
	Items   []domain.WishlistEntry `json:"items"`
}

// WishlistStore is a set of saved products keyed only by product id. Entries
// are inserted or removed, never edited in place. Locking follows CartStore.
type WishlistStore struct {
	writeMu sync.Mutex
	mu      sync.RWMutex
	entries []domain.WishlistEntry
	index   map[string]int

	persist *Persistence
	bus     *Broadcaster
	logger  *zap.Logger
	now     func() time.Time
}

func NewWishlistStore(ctx context.Context, persist *Persistence, bus *Broadcaster, logger *zap.Logger) *WishlistStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &WishlistStore{
		index:   make(map[string]int),
		persist: persist,
		bus:     bus,
		logger:  logger,
		now:     time.Now,
	}

	var doc persistedWishlist
	if persist.Load(ctx, wishlistStorageKey, &doc) {
		for _, entry := range doc.Items {
			if domain.ValidateProductID(entry.ProductID) != nil {
				continue
			}
			s.insertLocked(entry)
		}
	}
	return s
}

// AddItem inserts the entry unless its product id is already saved.
func (s *WishlistStore) AddItem(ctx context.Context, entry domain.WishlistEntry) {
	if domain.ValidateProductID(entry.ProductID) != nil {
		return
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	added := s.insertLocked(entry)
	s.mu.Unlock()

	if added {
		s.commit(ctx, domain.EventWishlistAdded, entry.ProductID)
	}
}

func (s *WishlistStore) RemoveItem(ctx context.Context, productID string) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	removed := s.deleteLocked(productID)
	s.mu.Unlock()

	if removed {
		s.commit(ctx, domain.EventWishlistRemoved, productID)
	}
}

// Toggle flips membership for the heart icon and reports whether the product
// is saved afterwards.
func (s *WishlistStore) Toggle(ctx context.Context, entry domain.WishlistEntry) bool {
	if domain.ValidateProductID(entry.ProductID) != nil {
		return false
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	kind := domain.EventWishlistAdded
	saved := true
	if s.deleteLocked(entry.ProductID) {
		kind = domain.EventWishlistRemoved
		saved = false
	} else {
		s.insertLocked(entry)
	}
	s.mu.Unlock()

	s.commit(ctx, kind, entry.ProductID)
	return saved
}

func (s *WishlistStore) IsInWishlist(productID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.index[productID]
	return ok
}

// Items returns the saved entries in insertion order.
func (s *WishlistStore) Items() []domain.WishlistEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.WishlistEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

func (s *WishlistStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *WishlistStore) insertLocked(entry domain.WishlistEntry) bool {
	if _, ok := s.index[entry.ProductID]; ok {
		return false
	}
	s.index[entry.ProductID] = len(s.entries)
	s.entries = append(s.entries, entry)
	return true
}

func (s *WishlistStore) deleteLocked(productID string) bool {
	i, ok := s.index[productID]
	if !ok {
		return false
	}
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	delete(s.index, productID)
	for j := i; j < len(s.entries); j++ {
		s.index[s.entries[j].ProductID] = j
	}
	return true
}

func (s *WishlistStore) commit(ctx context.Context, kind domain.EventKind, productID string) {
	items := s.Items()
	s.persist.Save(ctx, wishlistStorageKey, persistedWishlist{Version: persistenceVersion, Items: items})
	s.bus.Publish(domain.Event{
		Kind:       kind,
		ProductID:  productID,
		Wishlist:   items,
		OccurredAt: s.now(),
	})
}
