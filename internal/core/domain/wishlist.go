package domain

type WishlistEntry struct {
	ProductID     string  `json:"productId"`
	Name          string  `json:"name"`
	Price         int64   `json:"price"`
	OriginalPrice int64   `json:"originalPrice"`
	Image         string  `json:"image"`
	Category      string  `json:"category"`
	Rating        float64 `json:"rating"`
	Reviews       int     `json:"reviews"`
	InStock       bool    `json:"inStock"`
}
