package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rl1809/storefront-cart/internal/core/domain"
)

// Mock LeadSubmitter
type mockSubmitter struct {
	err     error
	block   chan struct{}
	started chan struct{}
	leads   []domain.Lead
	mu      sync.Mutex
}

func (m *mockSubmitter) Submit(ctx context.Context, lead domain.Lead) error {
	if m.started != nil {
		close(m.started)
	}
	if m.block != nil {
		<-m.block
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.leads = append(m.leads, lead)
	return nil
}

var validContact = domain.Contact{Name: "Ada", Email: "ada@example.com"}

func newTestCheckout(sub *mockSubmitter) (*CheckoutService, *CartStore) {
	cart := newTestCart(nil)
	return NewCheckoutService("sid-1", cart, sub, CheckoutConfig{Currency: "USD"}, nil), cart
}

func TestCheckout_SuccessClearsCart(t *testing.T) {
	sub := &mockSubmitter{}
	checkout, cart := newTestCheckout(sub)
	ctx := context.Background()

	cart.AddItem(ctx, mattress("Queen", "Medium"), 3)
	if checkout.State() != domain.CheckoutOpen {
		t.Errorf("expected open, got %s", checkout.State())
	}

	lead, err := checkout.Submit(ctx, validContact)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if lead.Total != 179997 || lead.ItemCount != 3 || lead.SessionID != "sid-1" || lead.ID == "" {
		t.Errorf("unexpected lead %+v", lead)
	}
	if len(sub.leads) != 1 {
		t.Fatalf("expected 1 submitted lead, got %d", len(sub.leads))
	}
	if cart.Len() != 0 {
		t.Error("expected cart to be cleared")
	}
	if checkout.State() != domain.CheckoutCleared {
		t.Errorf("expected cleared, got %s", checkout.State())
	}
}

func TestCheckout_FailureLeavesCartUntouched(t *testing.T) {
	sub := &mockSubmitter{err: errors.New("502 bad gateway")}
	checkout, cart := newTestCheckout(sub)
	ctx := context.Background()

	cart.AddItem(ctx, mattress("Queen", "Medium"), 2)
	cart.AddItem(ctx, domain.NewLineItemInput{ProductID: "7", UnitPrice: 2500}, 1)
	before := cart.Snapshot()

	_, err := checkout.Submit(ctx, validContact)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, sub.err) {
		t.Errorf("expected wrapped submitter error, got %v", err)
	}

	after := cart.Snapshot()
	if len(after.Items) != len(before.Items) {
		t.Fatalf("expected %d lines, got %d", len(before.Items), len(after.Items))
	}
	for i := range before.Items {
		if before.Items[i] != after.Items[i] {
			t.Errorf("line %d changed: %+v -> %+v", i, before.Items[i], after.Items[i])
		}
	}
	if checkout.State() != domain.CheckoutOpen {
		t.Errorf("expected open, got %s", checkout.State())
	}

	// Retry succeeds with the same cart
	sub.err = nil
	if _, err := checkout.Submit(ctx, validContact); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if sub.leads[0].ItemCount != 3 {
		t.Errorf("expected retried lead to carry 3 items, got %d", sub.leads[0].ItemCount)
	}
}

func TestCheckout_EmptyCart(t *testing.T) {
	checkout, _ := newTestCheckout(&mockSubmitter{})

	if checkout.State() != domain.CheckoutEmpty {
		t.Errorf("expected empty, got %s", checkout.State())
	}
	_, err := checkout.Submit(context.Background(), validContact)
	if !errors.Is(err, ErrEmptyCart) {
		t.Errorf("expected ErrEmptyCart, got %v", err)
	}
}

func TestCheckout_InvalidContact(t *testing.T) {
	sub := &mockSubmitter{}
	checkout, cart := newTestCheckout(sub)
	cart.AddItem(context.Background(), mattress("Queen", "Medium"), 1)

	_, err := checkout.Submit(context.Background(), domain.Contact{Name: "Ada"})
	if !errors.Is(err, ErrInvalidContact) {
		t.Errorf("expected ErrInvalidContact, got %v", err)
	}
	if len(sub.leads) != 0 {
		t.Error("expected nothing to be submitted")
	}
}

func TestCheckout_OverlappingSubmissionRejected(t *testing.T) {
	sub := &mockSubmitter{block: make(chan struct{}), started: make(chan struct{})}
	checkout, cart := newTestCheckout(sub)
	ctx := context.Background()
	cart.AddItem(ctx, mattress("Queen", "Medium"), 1)

	done := make(chan error, 1)
	go func() {
		_, err := checkout.Submit(ctx, validContact)
		done <- err
	}()
	<-sub.started

	if checkout.State() != domain.CheckoutSubmitting {
		t.Errorf("expected submitting, got %s", checkout.State())
	}
	if _, err := checkout.Submit(ctx, validContact); !errors.Is(err, ErrSubmissionInFlight) {
		t.Errorf("expected ErrSubmissionInFlight, got %v", err)
	}

	close(sub.block)
	if err := <-done; err != nil {
		t.Fatalf("first submission failed: %v", err)
	}
	if len(sub.leads) != 1 {
		t.Errorf("expected exactly 1 lead, got %d", len(sub.leads))
	}
}

func TestCheckout_SubmitsSnapshotTakenAtSubmission(t *testing.T) {
	sub := &mockSubmitter{block: make(chan struct{}), started: make(chan struct{})}
	checkout, cart := newTestCheckout(sub)
	ctx := context.Background()
	cart.AddItem(ctx, mattress("Queen", "Medium"), 1)

	done := make(chan error, 1)
	go func() {
		_, err := checkout.Submit(ctx, validContact)
		done <- err
	}()
	<-sub.started

	// Edits during the in-flight submission are not part of it
	cart.AddItem(ctx, mattress("Queen", "Medium"), 4)
	close(sub.block)
	if err := <-done; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if sub.leads[0].ItemCount != 1 {
		t.Errorf("expected submitted snapshot count 1, got %d", sub.leads[0].ItemCount)
	}
}
