package domain

import (
	"testing"
	"time"
)

func TestNewLineItem_ClampsQuantity(t *testing.T) {
	in := NewLineItemInput{ProductID: "1", UnitPrice: 100, MaxQuantity: 3}

	if got := NewLineItem(in, 0).Quantity; got != 1 {
		t.Errorf("expected quantity 1, got %d", got)
	}
	if got := NewLineItem(in, 10).Quantity; got != 3 {
		t.Errorf("expected quantity 3, got %d", got)
	}

	in.MaxQuantity = 0
	if got := NewLineItem(in, 10).Quantity; got != 10 {
		t.Errorf("expected quantity 10 without max, got %d", got)
	}
}

func TestLineItem_QuantityIsBounded(t *testing.T) {
	item := NewLineItem(NewLineItemInput{ProductID: "1", UnitPrice: 2500}, int(^uint(0)>>1))
	if item.Quantity != MaxLineQuantity {
		t.Fatalf("expected quantity capped at %d, got %d", MaxLineQuantity, item.Quantity)
	}
	if item.Subtotal() != 2500*MaxLineQuantity {
		t.Errorf("expected positive subtotal, got %d", item.Subtotal())
	}

	// Saturates instead of wrapping
	if got := item.AddQuantity(int(^uint(0) >> 1)); got != MaxLineQuantity {
		t.Errorf("expected saturated quantity %d, got %d", MaxLineQuantity, got)
	}

	item.Quantity = 3
	if got := item.AddQuantity(4); got != 7 {
		t.Errorf("expected 7, got %d", got)
	}

	item.MaxQuantity = 5
	if got := item.AddQuantity(4); got != 5 {
		t.Errorf("expected product limit 5, got %d", got)
	}
}

func TestParseQuantity(t *testing.T) {
	cases := map[string]int{
		"3":                     3,
		" 12":                   12,
		"0":                     1,
		"-4":                    1,
		"abc":                   1,
		"":                      1,
		"2.5":                   1,
		"10000":                 MaxLineQuantity,
		"9223372036854775807":   MaxLineQuantity,
		"99999999999999999999":  MaxLineQuantity,
		"-99999999999999999999": 1,
	}
	for raw, want := range cases {
		if got := ParseQuantity(raw); got != want {
			t.Errorf("ParseQuantity(%q): expected %d, got %d", raw, want, got)
		}
	}
}

func TestCartSnapshot_DerivedTotals(t *testing.T) {
	snap := NewCartSnapshot([]LineItem{
		{ProductID: "42", UnitPrice: 59999, Quantity: 3},
		{ProductID: "7", UnitPrice: 1500, Quantity: 2},
	})

	if snap.Total() != 59999*3+1500*2 {
		t.Errorf("unexpected total %d", snap.Total())
	}
	if snap.ItemCount() != 5 {
		t.Errorf("expected item count 5, got %d", snap.ItemCount())
	}

	empty := NewCartSnapshot(nil)
	if empty.Total() != 0 || empty.ItemCount() != 0 || !empty.IsEmpty() {
		t.Error("expected empty snapshot to have zero totals")
	}
}

func TestCartSnapshot_CopiesItems(t *testing.T) {
	items := []LineItem{{ProductID: "1", UnitPrice: 10, Quantity: 1}}
	snap := NewCartSnapshot(items)
	items[0].Quantity = 99

	if snap.Items[0].Quantity != 1 {
		t.Error("snapshot should not observe later changes to the source slice")
	}
}

func TestPurchasable_LineItemInput(t *testing.T) {
	mattress := Purchasable{
		ProductID:  "42",
		Name:       "Cloud",
		Price:      59999,
		Sizes:      []string{"Queen", "King"},
		Firmnesses: []string{"Medium", "Firm"},
	}

	in, err := mattress.LineItemInput("Queen", "Medium")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.UnitPrice != 59999 || in.Size != "Queen" || in.Firmness != "Medium" {
		t.Errorf("unexpected input %+v", in)
	}

	if _, err := mattress.LineItemInput("Twin", "Medium"); err != ErrInvalidVariant {
		t.Errorf("expected ErrInvalidVariant, got %v", err)
	}

	pillow := Purchasable{ProductID: "7", Price: 2500}
	if _, err := pillow.LineItemInput("", ""); err != nil {
		t.Errorf("unexpected error for variant-less product: %v", err)
	}
	if _, err := pillow.LineItemInput("Queen", ""); err != ErrInvalidVariant {
		t.Errorf("expected ErrInvalidVariant, got %v", err)
	}

	if _, err := (Purchasable{}).LineItemInput("", ""); err != ErrInvalidProduct {
		t.Errorf("expected ErrInvalidProduct, got %v", err)
	}
}

func TestLead_BuiltFromSnapshotIsConsistent(t *testing.T) {
	snap := NewCartSnapshot([]LineItem{
		{ProductID: "42", Size: "Queen", UnitPrice: 59999, Quantity: 3},
	})
	lead := NewLead("lead-1", "sid", Contact{Name: "A", Email: "a@example.com"}, snap, "USD", time.Now())

	if lead.Total != 179997 || lead.ItemCount != 3 {
		t.Errorf("unexpected totals %d/%d", lead.Total, lead.ItemCount)
	}
	if !lead.Consistent() {
		t.Error("expected lead to be consistent")
	}

	lead.Total++
	if lead.Consistent() {
		t.Error("expected tampered lead to be inconsistent")
	}
}

func TestLead_OutOfRangeItemsAreInconsistent(t *testing.T) {
	huge := Lead{
		Items:     []LeadItem{{ProductID: "42", UnitPrice: 250, Quantity: MaxLineQuantity + 1}},
		Total:     250 * (MaxLineQuantity + 1),
		ItemCount: MaxLineQuantity + 1,
	}
	if huge.Consistent() {
		t.Error("expected oversized quantity to be rejected")
	}

	pricey := Lead{
		Items:     []LeadItem{{ProductID: "42", UnitPrice: MaxLeadUnitPrice + 1, Quantity: 1}},
		Total:     MaxLeadUnitPrice + 1,
		ItemCount: 1,
	}
	if pricey.Consistent() {
		t.Error("expected oversized unit price to be rejected")
	}
}

func TestContact_Valid(t *testing.T) {
	if (Contact{Name: "A"}).Valid() {
		t.Error("expected contact without email or phone to be invalid")
	}
	if (Contact{Email: "a@example.com"}).Valid() {
		t.Error("expected contact without name to be invalid")
	}
	if !(Contact{Name: "A", Phone: "555"}).Valid() {
		t.Error("expected contact with phone to be valid")
	}
}
