package handler

import (
	"time"

	"github.com/rl1809/storefront-cart/internal/core/domain"
	"github.com/rl1809/storefront-cart/internal/core/service"
)

type lineItemView struct {
	domain.LineItem
	Key      domain.VariantKey `json:"key"`
	Subtotal int64             `json:"subtotal"`
}

type cartView struct {
	Items         []lineItemView       `json:"items"`
	Total         int64                `json:"total"`
	ItemCount     int                  `json:"itemCount"`
	CheckoutState domain.CheckoutState `json:"checkoutState,omitempty"`
	Persistent    bool                 `json:"persistent"`
}

type wishlistView struct {
	Items []domain.WishlistEntry `json:"items"`
	Count int                    `json:"count"`
}

type eventView struct {
	Kind       domain.EventKind  `json:"kind"`
	Key        domain.VariantKey `json:"key,omitempty"`
	ProductID  string            `json:"productId,omitempty"`
	Cart       *cartView         `json:"cart,omitempty"`
	Wishlist   *wishlistView     `json:"wishlist,omitempty"`
	OccurredAt time.Time         `json:"occurredAt"`
}

func newCartView(snap domain.CartSnapshot) cartView {
	items := make([]lineItemView, 0, len(snap.Items))
	for _, it := range snap.Items {
		items = append(items, lineItemView{LineItem: it, Key: it.Key(), Subtotal: it.Subtotal()})
	}
	return cartView{
		Items:     items,
		Total:     snap.Total(),
		ItemCount: snap.ItemCount(),
	}
}

func storefrontCartView(sf *service.Storefront) cartView {
	v := newCartView(sf.Cart.Snapshot())
	v.CheckoutState = sf.Checkout.State()
	v.Persistent = !sf.Persistence.Degraded()
	return v
}

func newWishlistView(entries []domain.WishlistEntry) wishlistView {
	if entries == nil {
		entries = []domain.WishlistEntry{}
	}
	return wishlistView{Items: entries, Count: len(entries)}
}

func newEventView(evt domain.Event) eventView {
	v := eventView{
		Kind:       evt.Kind,
		Key:        evt.Key,
		ProductID:  evt.ProductID,
		OccurredAt: evt.OccurredAt,
	}
	if evt.IsCart() {
		cv := newCartView(*evt.Cart)
		v.Cart = &cv
	} else {
		wv := newWishlistView(evt.Wishlist)
		v.Wishlist = &wv
	}
	return v
}
