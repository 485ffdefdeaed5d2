package wishlist

import (
	"context"
	"errors"
	"fmt"
	"sync"

	wishlistDomain "storefront-sync/internal/domain/wishlist"
)

// API 為遠端願望清單的操作接口。
type API interface {
	FetchWishlist(ctx context.Context) ([]wishlistDomain.Item, error)
	AddWishlistItem(ctx context.Context, productID string) error
	RemoveWishlistItem(ctx context.Context, productID string) error
}

// Service 維護願望清單的本地鏡像。
// 讀取為 last-request-wins：新的 Refresh 取消仍在途的前一次讀取，
// 過時回應不會覆蓋較新的狀態。
type Service struct {
	api API

	mu     sync.Mutex
	items  []wishlistDomain.Item
	cancel context.CancelFunc
	seq    int
}

// NewService 建立願望清單服務。
func NewService(api API) *Service {
	return &Service{api: api}
}

// Refresh 重新載入清單；若有前一次讀取仍在途，取消並忽略其結果。
func (s *Service) Refresh(ctx context.Context) error {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	items, err := s.api.FetchWishlist(fetchCtx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		// 已有更新的請求接手，丟棄這份結果
		return nil
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("fetch wishlist: %w", err)
	}
	s.items = items
	return nil
}

// Add 加入商品後重新載入清單。
func (s *Service) Add(ctx context.Context, productID string) error {
	if productID == "" {
		return fmt.Errorf("product id is required")
	}
	if err := s.api.AddWishlistItem(ctx, productID); err != nil {
		return fmt.Errorf("add wishlist item: %w", err)
	}
	return s.Refresh(ctx)
}

// Remove 移除商品後重新載入清單。
func (s *Service) Remove(ctx context.Context, productID string) error {
	if productID == "" {
		return fmt.Errorf("product id is required")
	}
	if err := s.api.RemoveWishlistItem(ctx, productID); err != nil {
		return fmt.Errorf("remove wishlist item: %w", err)
	}
	return s.Refresh(ctx)
}

// Items 回傳目前鏡像的副本。
func (s *Service) Items() []wishlistDomain.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]wishlistDomain.Item, len(s.items))
	copy(out, s.items)
	return out
}

// Contains 檢查商品是否在清單內。
func (s *Service) Contains(productID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return wishlistDomain.Contains(s.items, productID)
}

// Drop 清除本地鏡像（登出時使用）。
func (s *Service) Drop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.seq++
	s.items = nil
}
