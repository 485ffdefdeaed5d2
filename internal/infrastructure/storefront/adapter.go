package storefront

import (
	"context"
	"net/http"
	"net/url"
	"time"

	cartdomain "storefront-sync/internal/domain/cart"
	wishlistdomain "storefront-sync/internal/domain/wishlist"
)

// 後端 API 的 JSON 欄位為 camelCase，與 domain 型別分開定義。
type cartLinePayload struct {
	ID            string   `json:"id"`
	ProductID     string   `json:"productId"`
	VariantID     string   `json:"variantId,omitempty"`
	Quantity      int      `json:"quantity"`
	Price         float64  `json:"price"`
	DiscountPrice *float64 `json:"discountPrice,omitempty"`
}

type cartPayload struct {
	ID    string            `json:"id"`
	Items []cartLinePayload `json:"items"`
}

func toRemoteLine(p cartLinePayload) cartdomain.RemoteLine {
	return cartdomain.RemoteLine{
		ItemID:        p.ID,
		ProductID:     p.ProductID,
		VariantID:     p.VariantID,
		Quantity:      p.Quantity,
		UnitPrice:     p.Price,
		DiscountPrice: p.DiscountPrice,
	}
}

// FetchCart 取得遠端權威購物車的所有行。
func (c *Client) FetchCart(ctx context.Context) ([]cartdomain.RemoteLine, error) {
	var payload cartPayload
	if err := c.call(ctx, http.MethodGet, "/cart", nil, &payload, true); err != nil {
		return nil, err
	}
	lines := make([]cartdomain.RemoteLine, 0, len(payload.Items))
	for _, it := range payload.Items {
		lines = append(lines, toRemoteLine(it))
	}
	return lines, nil
}

// AddLine 在遠端購物車新增一行，回傳後端指派的行內容。
func (c *Client) AddLine(ctx context.Context, productID, variantID string, quantity int) (cartdomain.RemoteLine, error) {
	body := map[string]any{
		"productId": productID,
		"quantity":  quantity,
	}
	if variantID != "" {
		body["variantId"] = variantID
	}
	var payload cartLinePayload
	if err := c.call(ctx, http.MethodPost, "/cart/items", body, &payload, true); err != nil {
		return cartdomain.RemoteLine{}, err
	}
	return toRemoteLine(payload), nil
}

// UpdateLine 修改遠端行的數量。
func (c *Client) UpdateLine(ctx context.Context, itemID string, quantity int) (cartdomain.RemoteLine, error) {
	body := map[string]any{"quantity": quantity}
	var payload cartLinePayload
	path := "/cart/items/" + url.PathEscape(itemID)
	if err := c.call(ctx, http.MethodPatch, path, body, &payload, true); err != nil {
		return cartdomain.RemoteLine{}, err
	}
	return toRemoteLine(payload), nil
}

// DeleteLine 刪除遠端行。
func (c *Client) DeleteLine(ctx context.Context, itemID string) error {
	return c.call(ctx, http.MethodDelete, "/cart/items/"+url.PathEscape(itemID), nil, nil, true)
}

// ClearLines 清空遠端購物車。
func (c *Client) ClearLines(ctx context.Context) error {
	return c.call(ctx, http.MethodDelete, "/cart", nil, nil, true)
}

// MergeLines 將本地差異子集送交後端合併。
func (c *Client) MergeLines(ctx context.Context, lines []cartdomain.MergeLine) error {
	items := make([]map[string]any, 0, len(lines))
	for _, l := range lines {
		entry := map[string]any{
			"productId": l.ProductID,
			"quantity":  l.Quantity,
		}
		if l.VariantID != "" {
			entry["variantId"] = l.VariantID
		}
		items = append(items, entry)
	}
	body := map[string]any{"items": items}
	return c.call(ctx, http.MethodPost, "/cart/merge", body, nil, true)
}

type wishlistEntry struct {
	ProductID string    `json:"productId"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	AddedAt   time.Time `json:"addedAt"`
}

// FetchWishlist 取得願望清單。
func (c *Client) FetchWishlist(ctx context.Context) ([]wishlistdomain.Item, error) {
	var entries []wishlistEntry
	if err := c.call(ctx, http.MethodGet, "/wishlist", nil, &entries, true); err != nil {
		return nil, err
	}
	items := make([]wishlistdomain.Item, 0, len(entries))
	for _, e := range entries {
		items = append(items, wishlistdomain.Item{
			ProductID: e.ProductID,
			Name:      e.Name,
			Price:     e.Price,
			AddedAt:   e.AddedAt,
		})
	}
	return items, nil
}

// AddWishlistItem 加入願望清單。
func (c *Client) AddWishlistItem(ctx context.Context, productID string) error {
	body := map[string]string{"productId": productID}
	return c.call(ctx, http.MethodPost, "/wishlist", body, nil, true)
}

// RemoveWishlistItem 自願望清單移除商品。
func (c *Client) RemoveWishlistItem(ctx context.Context, productID string) error {
	return c.call(ctx, http.MethodDelete, "/wishlist/"+url.PathEscape(productID), nil, nil, true)
}
