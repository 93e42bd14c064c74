package handler

import (
	"context"
	"testing"

	"github.com/rl1809/storefront-cart/internal/core/domain"
	"github.com/rl1809/storefront-cart/internal/core/service"
)

func TestOfferLatest_KeepsNewestWhenFull(t *testing.T) {
	bus := service.NewBroadcaster(nil)
	cart := service.NewCartStore(context.Background(), nil, bus, nil)

	events := make(chan domain.Event, eventBuffer)
	unsubscribe := bus.Subscribe(func(evt domain.Event) { offerLatest(events, evt) })
	defer unsubscribe()

	pillow := domain.NewLineItemInput{ProductID: "2", Name: "Pillow", UnitPrice: 4999}
	adds := eventBuffer + 10
	for i := 0; i < adds; i++ {
		cart.AddItem(context.Background(), pillow, 1)
	}

	if len(events) != eventBuffer {
		t.Fatalf("expected a full buffer of %d, got %d", eventBuffer, len(events))
	}

	var last domain.Event
	for len(events) > 0 {
		last = <-events
	}
	if !last.IsCart() || last.Cart.ItemCount() != adds {
		t.Fatalf("expected last event to carry %d items, got %+v", adds, last.Cart)
	}
}

func TestOfferLatest_NoDiscardWithRoom(t *testing.T) {
	events := make(chan domain.Event, 2)

	if offerLatest(events, domain.Event{Kind: domain.EventCartCleared}) {
		t.Error("expected no discard with room in the buffer")
	}
	offerLatest(events, domain.Event{Kind: domain.EventWishlistAdded})
	if !offerLatest(events, domain.Event{Kind: domain.EventWishlistRemoved}) {
		t.Error("expected the oldest event to be discarded")
	}

	if got := (<-events).Kind; got != domain.EventWishlistAdded {
		t.Errorf("expected %s first, got %s", domain.EventWishlistAdded, got)
	}
	if got := (<-events).Kind; got != domain.EventWishlistRemoved {
		t.Errorf("expected %s last, got %s", domain.EventWishlistRemoved, got)
	}
}
