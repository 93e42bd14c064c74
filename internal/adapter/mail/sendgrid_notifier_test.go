package mail

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rl1809/storefront-cart/internal/core/domain"
)

func TestLeadSummary(t *testing.T) {
	lead := domain.Lead{
		ID:      "lead-1",
		Contact: domain.Contact{Name: "Ada", Email: "ada@example.com"},
		Items: []domain.LeadItem{
			{ProductID: "1", Name: "Cloud Hybrid", Size: "Queen", Firmness: "Medium", Quantity: 2, UnitPrice: 59999},
			{ProductID: "7", Name: "Pillow", Quantity: 1, UnitPrice: 5000},
		},
		Total:     124998,
		ItemCount: 3,
		Currency:  "USD",
		CreatedAt: time.Now(),
	}

	summary := LeadSummary(lead)

	for _, want := range []string{
		"Email: ada@example.com",
		"2 x Cloud Hybrid (Queen / Medium) @ 599.99 = 1199.98",
		"1 x Pillow @ 50.00 = 50.00",
		"Total: 1249.98 USD",
	} {
		if !strings.Contains(summary, want) {
			t.Errorf("expected summary to contain %q, got:\n%s", want, summary)
		}
	}
	if strings.Contains(summary, "Phone:") {
		t.Error("expected empty phone to be omitted")
	}
}

func TestSendGridNotifier_RequiresConfiguration(t *testing.T) {
	lead := domain.Lead{ID: "lead-1"}

	if err := NewSendGridNotifier("", "a@b.c", "d@e.f", nil).NotifyLead(context.Background(), lead); err == nil {
		t.Error("expected error without api key")
	}
	if err := NewSendGridNotifier("key", "", "d@e.f", nil).NotifyLead(context.Background(), lead); err == nil {
		t.Error("expected error without from address")
	}
}

func TestLogNotifier(t *testing.T) {
	if err := NewLogNotifier(nil).NotifyLead(context.Background(), domain.Lead{ID: "x"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
