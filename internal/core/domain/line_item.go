package domain

import (
	"errors"
	"strconv"
	"strings"
)

// MaxLineQuantity caps every line regardless of the product's own limit, so
// subtotals and totals stay far from int64 overflow.
const MaxLineQuantity = 9999

// NewLineItemInput is the flat product snapshot the catalog hands to the cart.
type NewLineItemInput struct {
	ProductID     string `json:"productId"`
	Name          string `json:"name"`
	UnitPrice     int64  `json:"unitPrice"` // minor units
	OriginalPrice int64  `json:"originalPrice"`
	Image         string `json:"image"`
	Size          string `json:"size"`
	Firmness      string `json:"firmness"`
	MaxQuantity   int    `json:"maxQuantity,omitempty"` // <= 0 leaves only MaxLineQuantity
}

type LineItem struct {
	ProductID     string `json:"productId"`
	Name          string `json:"name"`
	UnitPrice     int64  `json:"unitPrice"`
	OriginalPrice int64  `json:"originalPrice"`
	Image         string `json:"image"`
	Size          string `json:"size"`
	Firmness      string `json:"firmness"`
	Quantity      int    `json:"quantity"`
	MaxQuantity   int    `json:"maxQuantity,omitempty"`
}

func NewLineItem(in NewLineItemInput, quantity int) LineItem {
	item := LineItem{
		ProductID:     in.ProductID,
		Name:          in.Name,
		UnitPrice:     in.UnitPrice,
		OriginalPrice: in.OriginalPrice,
		Image:         in.Image,
		Size:          in.Size,
		Firmness:      in.Firmness,
		MaxQuantity:   in.MaxQuantity,
	}
	item.Quantity = item.ClampQuantity(quantity)
	return item
}

func (i LineItem) Key() VariantKey {
	return ComputeKey(i.ProductID, i.Size, i.Firmness)
}

func (i LineItem) Subtotal() int64 {
	return i.UnitPrice * int64(i.Quantity)
}

// ClampQuantity bounds q to [1, MaxQuantity]. An unset MaxQuantity falls back
// to MaxLineQuantity.
func (i LineItem) ClampQuantity(q int) int {
	limit := MaxLineQuantity
	if i.MaxQuantity > 0 && i.MaxQuantity < limit {
		limit = i.MaxQuantity
	}
	if q > limit {
		q = limit
	}
	if q < 1 {
		q = 1
	}
	return q
}

// AddQuantity returns the clamped sum of the line's quantity and delta,
// saturating instead of wrapping on overflow.
func (i LineItem) AddQuantity(delta int) int {
	if delta > MaxLineQuantity-i.Quantity {
		return i.ClampQuantity(MaxLineQuantity)
	}
	return i.ClampQuantity(i.Quantity + delta)
}

// ParseQuantity reads a user-entered quantity. Anything that is not a positive
// integer becomes 1; larger values are capped at MaxLineQuantity.
func ParseQuantity(raw string) int {
	// Out-of-range input still yields the saturated value with its sign.
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if (err != nil && !errors.Is(err, strconv.ErrRange)) || n < 1 {
		return 1
	}
	return min(n, MaxLineQuantity)
}
