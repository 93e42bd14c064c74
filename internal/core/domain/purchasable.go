package domain

import (
	"errors"
	"slices"
)

var ErrInvalidVariant = errors.New("variant not offered for product")

// Purchasable is the single flat product shape every category is normalized into
// before it reaches the cart or wishlist.
type Purchasable struct {
	ProductID     string
	Name          string
	Price         int64
	OriginalPrice int64
	Image         string
	Category      string
	Sizes         []string
	Firmnesses    []string
	Rating        float64
	Reviews       int
	InStock       bool
	MaxQuantity   int
}

// LineItemInput selects a variant. When the product offers options the
// selection must be one of them; variant-less products accept empty values.
func (p Purchasable) LineItemInput(size, firmness string) (NewLineItemInput, error) {
	if err := ValidateProductID(p.ProductID); err != nil {
		return NewLineItemInput{}, err
	}
	if !offered(p.Sizes, size) || !offered(p.Firmnesses, firmness) {
		return NewLineItemInput{}, ErrInvalidVariant
	}
	return NewLineItemInput{
		ProductID:     p.ProductID,
		Name:          p.Name,
		UnitPrice:     p.Price,
		OriginalPrice: p.OriginalPrice,
		Image:         p.Image,
		Size:          size,
		Firmness:      firmness,
		MaxQuantity:   p.MaxQuantity,
	}, nil
}

func (p Purchasable) WishlistEntry() WishlistEntry {
	return WishlistEntry{
		ProductID:     p.ProductID,
		Name:          p.Name,
		Price:         p.Price,
		OriginalPrice: p.OriginalPrice,
		Image:         p.Image,
		Category:      p.Category,
		Rating:        p.Rating,
		Reviews:       p.Reviews,
		InStock:       p.InStock,
	}
}

func offered(options []string, selected string) bool {
	if len(options) == 0 {
		return selected == ""
	}
	return slices.Contains(options, selected)
}
