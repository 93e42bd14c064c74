package domain

import (
	"errors"
	"strings"
	"time"
)

var ErrDuplicateLead = errors.New("duplicate lead")

// Upper bounds on ingested leads; together with MaxLineQuantity they keep
// every total within int64.
const (
	MaxLeadItems     = 1000
	MaxLeadUnitPrice = 100_000_000_000
)

type CheckoutState string

const (
	CheckoutEmpty      CheckoutState = "empty"
	CheckoutOpen       CheckoutState = "open"
	CheckoutSubmitting CheckoutState = "submitting"
	CheckoutCleared    CheckoutState = "cleared"
)

type Contact struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Notes   string `json:"notes"`
}

// Valid requires a name and at least one way to reach the customer.
func (c Contact) Valid() bool {
	if strings.TrimSpace(c.Name) == "" {
		return false
	}
	return strings.TrimSpace(c.Email) != "" || strings.TrimSpace(c.Phone) != ""
}

type LeadItem struct {
	ProductID string
	Name      string
	Size      string
	Firmness  string
	Quantity  int
	UnitPrice int64
}

func (i LeadItem) Subtotal() int64 {
	return i.UnitPrice * int64(i.Quantity)
}

// Lead is the order lead built from a frozen cart snapshot at checkout.
type Lead struct {
	ID        string
	SessionID string
	Contact   Contact
	Items     []LeadItem
	Total     int64
	ItemCount int
	Currency  string
	CreatedAt time.Time
}

func NewLead(id, sessionID string, contact Contact, snap CartSnapshot, currency string, now time.Time) Lead {
	items := make([]LeadItem, 0, len(snap.Items))
	for _, it := range snap.Items {
		items = append(items, LeadItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Size:      it.Size,
			Firmness:  it.Firmness,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}
	return Lead{
		ID:        id,
		SessionID: sessionID,
		Contact:   contact,
		Items:     items,
		Total:     snap.Total(),
		ItemCount: snap.ItemCount(),
		Currency:  currency,
		CreatedAt: now,
	}
}

// Consistent reports whether the lead's items are within bounds and its
// totals match them.
func (l Lead) Consistent() bool {
	if len(l.Items) > MaxLeadItems {
		return false
	}
	var total int64
	count := 0
	for _, it := range l.Items {
		if it.Quantity < 1 || it.Quantity > MaxLineQuantity || it.UnitPrice < 0 || it.UnitPrice > MaxLeadUnitPrice {
			return false
		}
		total += it.Subtotal()
		count += it.Quantity
	}
	return total == l.Total && count == l.ItemCount
}
