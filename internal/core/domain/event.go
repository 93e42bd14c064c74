package domain

import "time"

type EventKind string

const (
	EventCartItemAdded       EventKind = "cart.item_added"
	EventCartQuantityUpdated EventKind = "cart.quantity_updated"
	EventCartItemRemoved     EventKind = "cart.item_removed"
	EventCartCleared         EventKind = "cart.cleared"
	EventWishlistAdded       EventKind = "wishlist.added"
	EventWishlistRemoved     EventKind = "wishlist.removed"
)

// Event is dispatched after a mutation has been fully applied. Cart events
// carry the cart snapshot, wishlist events carry the wishlist contents.
type Event struct {
	Kind       EventKind
	Key        VariantKey
	ProductID  string
	Cart       *CartSnapshot
	Wishlist   []WishlistEntry
	OccurredAt time.Time
}

func (e Event) IsCart() bool {
	return e.Cart != nil
}
