// Package catalog flattens the loosely-typed product records returned by the
// upstream catalog API into domain.Purchasable. It is the only place that
// knows about upstream field names and encodings.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rl1809/storefront-cart/internal/core/domain"
)

var ErrInvalidPrice = errors.New("invalid price")

// RawProduct is one upstream record as decoded from JSON.
type RawProduct map[string]any

func Normalize(raw RawProduct) (domain.Purchasable, error) {
	id := stringOf(first(raw, "id", "_id", "productId"))
	if err := domain.ValidateProductID(id); err != nil {
		return domain.Purchasable{}, err
	}

	price, err := minorUnits(first(raw, "price", "salePrice"))
	if err != nil {
		return domain.Purchasable{}, fmt.Errorf("product %s price: %w", id, err)
	}
	original, err := minorUnits(first(raw, "originalPrice", "compareAtPrice"))
	if err != nil {
		return domain.Purchasable{}, fmt.Errorf("product %s original price: %w", id, err)
	}
	if original < price {
		original = price
	}

	return domain.Purchasable{
		ProductID:     id,
		Name:          strings.TrimSpace(stringOf(first(raw, "name", "title"))),
		Price:         price,
		OriginalPrice: original,
		Image:         firstImage(raw),
		Category:      strings.TrimSpace(stringOf(raw["category"])),
		Sizes:         stringList(first(raw, "sizes", "size")),
		Firmnesses:    stringList(first(raw, "firmness", "firmnesses", "firmnessOptions")),
		Rating:        floatOf(raw["rating"]),
		Reviews:       int(floatOf(first(raw, "reviews", "reviewCount"))),
		InStock:       boolOf(raw["inStock"], true),
		MaxQuantity:   int(floatOf(raw["maxQuantity"])),
	}, nil
}

func first(raw RawProduct, keys ...string) any {
	for _, k := range keys {
		if v, ok := raw[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

// minorUnits converts a major-unit price (number, numeric string or
// {"amount": ...}) to integer minor units.
func minorUnits(v any) (int64, error) {
	var d decimal.Decimal
	var err error

	switch p := v.(type) {
	case nil:
		return 0, nil
	case float64:
		d = decimal.NewFromFloat(p)
	case int:
		d = decimal.NewFromInt(int64(p))
	case int64:
		d = decimal.NewFromInt(p)
	case json.Number:
		d, err = decimal.NewFromString(p.String())
	case string:
		s := strings.NewReplacer("$", "", ",", "", " ", "").Replace(p)
		if s == "" {
			return 0, nil
		}
		d, err = decimal.NewFromString(s)
	case map[string]any:
		return minorUnits(p["amount"])
	default:
		return 0, ErrInvalidPrice
	}
	if err != nil {
		return 0, ErrInvalidPrice
	}
	if d.IsNegative() {
		return 0, ErrInvalidPrice
	}
	return d.Shift(2).Round(0).IntPart(), nil
}

func firstImage(raw RawProduct) string {
	if images := stringList(raw["images"]); len(images) > 0 {
		return images[0]
	}
	return strings.TrimSpace(stringOf(raw["image"]))
}

// stringList accepts a JSON array, a string-encoded JSON array, a
// comma-separated string or a single value.
func stringList(v any) []string {
	var out []string
	switch l := v.(type) {
	case nil:
		return nil
	case []string:
		out = l
	case []any:
		for _, item := range l {
			out = append(out, stringOf(item))
		}
	case string:
		s := strings.TrimSpace(l)
		if strings.HasPrefix(s, "[") {
			var decoded []any
			if err := json.Unmarshal([]byte(s), &decoded); err != nil {
				return nil
			}
			return stringList(decoded)
		}
		out = strings.Split(s, ",")
	default:
		out = []string{stringOf(l)}
	}

	cleaned := out[:0:0]
	for _, s := range out {
		if s = strings.TrimSpace(s); s != "" {
			cleaned = append(cleaned, s)
		}
	}
	return cleaned
}

func stringOf(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case json.Number:
		return s.String()
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	default:
		return fmt.Sprint(s)
	}
}

func floatOf(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		f, _ := n.Float64()
		return f
	case string:
		f, _ := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f
	default:
		return 0
	}
}

func boolOf(v any, def bool) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		if err != nil {
			return def
		}
		return parsed
	case float64:
		return b != 0
	case json.Number:
		return b.String() != "0"
	default:
		return def
	}
}
