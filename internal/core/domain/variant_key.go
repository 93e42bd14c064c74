package domain

import (
	"errors"
	"strings"
)

var ErrInvalidProduct = errors.New("invalid product id")

const keyDelimiter = "|"

var keyEscaper = strings.NewReplacer(`\`, `\\`, keyDelimiter, `\`+keyDelimiter)

// VariantKey identifies one cart line: product id plus selected size and firmness.
type VariantKey string

// ComputeKey joins the three fields with "|". Each field is escaped first, so an
// id that itself contains the delimiter cannot collide with another variant.
func ComputeKey(productID, size, firmness string) VariantKey {
	return VariantKey(
		keyEscaper.Replace(productID) + keyDelimiter +
			keyEscaper.Replace(size) + keyDelimiter +
			keyEscaper.Replace(firmness),
	)
}

func ValidateProductID(productID string) error {
	if strings.TrimSpace(productID) == "" {
		return ErrInvalidProduct
	}
	return nil
}
