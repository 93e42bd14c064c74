package domain

// CartSnapshot is an immutable read of the cart. Totals are derived on each
// call and never stored.
type CartSnapshot struct {
	Items []LineItem
}

func NewCartSnapshot(items []LineItem) CartSnapshot {
	cp := make([]LineItem, len(items))
	copy(cp, items)
	return CartSnapshot{Items: cp}
}

func (s CartSnapshot) Total() int64 {
	var total int64
	for _, item := range s.Items {
		total += item.Subtotal()
	}
	return total
}

func (s CartSnapshot) ItemCount() int {
	count := 0
	for _, item := range s.Items {
		count += item.Quantity
	}
	return count
}

func (s CartSnapshot) IsEmpty() bool {
	return len(s.Items) == 0
}
