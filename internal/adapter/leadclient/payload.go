package leadclient

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rl1809/storefront-cart/internal/core/domain"
)

var ErrInvalidAmount = errors.New("amount must be a non-negative value in whole cents")

// Payload is the lead body exchanged with the ingestion endpoint. Money is
// carried as decimal strings in major units.
type Payload struct {
	ID        string          `json:"id"`
	SessionID string          `json:"sessionId"`
	Contact   domain.Contact  `json:"contact"`
	Items     []PayloadItem   `json:"items"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"itemCount"`
	Currency  string          `json:"currency"`
	CreatedAt time.Time       `json:"createdAt"`
}

type PayloadItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Size      string          `json:"size,omitempty"`
	Firmness  string          `json:"firmness,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

func toMajor(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}

func toMinor(d decimal.Decimal) (int64, error) {
	shifted := d.Shift(2)
	if d.IsNegative() || !shifted.IsInteger() {
		return 0, fmt.Errorf("%w: %s", ErrInvalidAmount, d.String())
	}
	return shifted.IntPart(), nil
}

func NewPayload(lead domain.Lead) Payload {
	items := make([]PayloadItem, 0, len(lead.Items))
	for _, it := range lead.Items {
		items = append(items, PayloadItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Size:      it.Size,
			Firmness:  it.Firmness,
			Quantity:  it.Quantity,
			UnitPrice: toMajor(it.UnitPrice),
			Subtotal:  toMajor(it.Subtotal()),
		})
	}
	return Payload{
		ID:        lead.ID,
		SessionID: lead.SessionID,
		Contact:   lead.Contact,
		Items:     items,
		Total:     toMajor(lead.Total),
		ItemCount: lead.ItemCount,
		Currency:  lead.Currency,
		CreatedAt: lead.CreatedAt,
	}
}

// Lead converts the payload back into minor units. Subtotals are recomputed
// from unit price and quantity.
func (p Payload) Lead() (domain.Lead, error) {
	total, err := toMinor(p.Total)
	if err != nil {
		return domain.Lead{}, fmt.Errorf("total: %w", err)
	}

	items := make([]domain.LeadItem, 0, len(p.Items))
	for i, it := range p.Items {
		price, err := toMinor(it.UnitPrice)
		if err != nil {
			return domain.Lead{}, fmt.Errorf("item %d unit price: %w", i, err)
		}
		items = append(items, domain.LeadItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Size:      it.Size,
			Firmness:  it.Firmness,
			Quantity:  it.Quantity,
			UnitPrice: price,
		})
	}

	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	return domain.Lead{
		ID:        p.ID,
		SessionID: p.SessionID,
		Contact:   p.Contact,
		Items:     items,
		Total:     total,
		ItemCount: p.ItemCount,
		Currency:  p.Currency,
		CreatedAt: createdAt,
	}, nil
}
