// Package cart 定義購物車的核心型別與不變量。
// 本地購物車是樂觀投影，遠端購物車才是權威來源；
// 品項以 (商品, 規格) 為唯一鍵，重複鍵一律合併數量。
package cart

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// SyncState 表示單一品項與遠端的同步狀態。
type SyncState string

const (
	// StateLocalOnly 僅存在本地，尚未同步。
	StateLocalOnly SyncState = "local_only"
	// StateSyncing 遠端請求在途中。
	StateSyncing SyncState = "syncing"
	// StateSynced 已與遠端一致。
	StateSynced SyncState = "synced"
)

var (
	ErrEmptyProduct    = errors.New("product id is required")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
)

// LineKey 組出品項唯一鍵。無規格時以 "none" 佔位，
// 確保 (p, "") 與 (p, "none") 視為同一品項。
func LineKey(productID, variantID string) string {
	if variantID == "" {
		variantID = "none"
	}
	return productID + "/" + variantID
}

// Item 為購物車內的單一品項。
type Item struct {
	ProductID     string    `json:"product_id"`
	VariantID     string    `json:"variant_id,omitempty"`
	Quantity      int       `json:"quantity"`
	UnitPrice     float64   `json:"unit_price"`
	DiscountPrice *float64  `json:"discount_price,omitempty"`
	RemoteItemID  string    `json:"remote_item_id,omitempty"`
	State         SyncState `json:"state"`
	AddedAt       time.Time `json:"added_at"`
}

// Key 回傳品項唯一鍵。
func (i Item) Key() string {
	return LineKey(i.ProductID, i.VariantID)
}

// Validate 檢查品項是否可進入購物車。
func (i Item) Validate() error {
	if i.ProductID == "" {
		return ErrEmptyProduct
	}
	if i.Quantity < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidQuantity, i.Quantity)
	}
	return nil
}

// EffectivePrice 回傳計價用單價：有折扣價優先採用。
// 異常值（NaN、Inf、負數）以 0 計，總計永不被污染。
func (i Item) EffectivePrice() float64 {
	price := i.UnitPrice
	if i.DiscountPrice != nil {
		price = *i.DiscountPrice
	}
	if math.IsNaN(price) || math.IsInf(price, 0) || price < 0 {
		return 0
	}
	return price
}

// Subtotal 回傳品項小計。
func (i Item) Subtotal() float64 {
	return i.EffectivePrice() * float64(i.Quantity)
}

// Cart 為本地購物車投影。
type Cart struct {
	Items     []Item    `json:"items"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TotalItems 回傳數量總和。
func (c *Cart) TotalItems() int {
	total := 0
	for _, it := range c.Items {
		total += it.Quantity
	}
	return total
}

// TotalPrice 回傳金額總和。
func (c *Cart) TotalPrice() float64 {
	total := 0.0
	for _, it := range c.Items {
		total += it.Subtotal()
	}
	return total
}

// Find 回傳指定鍵的品項索引。
func (c *Cart) Find(key string) (int, bool) {
	for i, it := range c.Items {
		if it.Key() == key {
			return i, true
		}
	}
	return -1, false
}

// Normalize 還原不變量：剔除無效品項、合併重複鍵（數量相加），
// 並保留重複品項中已知的 RemoteItemID。保持首次出現的順序。
func (c *Cart) Normalize() {
	if len(c.Items) == 0 {
		return
	}
	index := make(map[string]int, len(c.Items))
	out := c.Items[:0]
	for _, it := range c.Items {
		if it.Validate() != nil {
			continue
		}
		key := it.Key()
		if at, ok := index[key]; ok {
			out[at].Quantity += it.Quantity
			if out[at].RemoteItemID == "" && it.RemoteItemID != "" {
				out[at].RemoteItemID = it.RemoteItemID
				out[at].State = it.State
			}
			continue
		}
		index[key] = len(out)
		out = append(out, it)
	}
	c.Items = out
}

// RemoteLine 為遠端購物車的一行，ItemID 由後端指派。
type RemoteLine struct {
	ItemID        string   `json:"item_id"`
	ProductID     string   `json:"product_id"`
	VariantID     string   `json:"variant_id,omitempty"`
	Quantity      int      `json:"quantity"`
	UnitPrice     float64  `json:"unit_price"`
	DiscountPrice *float64 `json:"discount_price,omitempty"`
}

// Key 回傳該行的品項唯一鍵。
func (l RemoteLine) Key() string {
	return LineKey(l.ProductID, l.VariantID)
}

// MergeLine 為登入合併時送往遠端的一行。
type MergeLine struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id,omitempty"`
	Quantity  int    `json:"quantity"`
}

// FromRemote 以權威內容建立本地投影，所有品項標記為已同步。
func FromRemote(lines []RemoteLine, now time.Time) Cart {
	items := make([]Item, 0, len(lines))
	for _, l := range lines {
		items = append(items, Item{
			ProductID:     l.ProductID,
			VariantID:     l.VariantID,
			Quantity:      l.Quantity,
			UnitPrice:     l.UnitPrice,
			DiscountPrice: l.DiscountPrice,
			RemoteItemID:  l.ItemID,
			State:         StateSynced,
			AddedAt:       now,
		})
	}
	c := Cart{Items: items, UpdatedAt: now}
	c.Normalize()
	return c
}

// Snapshot 為落盤用的購物車快照。
type Snapshot struct {
	Items      []Item    `json:"items"`
	TotalItems int       `json:"total_items"`
	TotalPrice float64   `json:"total_price"`
	CapturedAt time.Time `json:"captured_at"`
}

// Capture 建立目前內容的快照。品項為複本，後續修改不影響快照。
func (c *Cart) Capture(now time.Time) Snapshot {
	items := make([]Item, len(c.Items))
	copy(items, c.Items)
	return Snapshot{
		Items:      items,
		TotalItems: c.TotalItems(),
		TotalPrice: c.TotalPrice(),
		CapturedAt: now,
	}
}
