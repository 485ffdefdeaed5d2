package wishlist

import "time"

// Item 為願望清單品項。
type Item struct {
	ProductID string    `json:"product_id"`
	Name      string    `json:"name,omitempty"`
	Price     float64   `json:"price,omitempty"`
	AddedAt   time.Time `json:"added_at"`
}

// Contains 檢查清單是否已包含指定商品。
func Contains(items []Item, productID string) bool {
	for _, it := range items {
		if it.ProductID == productID {
			return true
		}
	}
	return false
}
