package cart

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	cartDomain "storefront-sync/internal/domain/cart"
)

// DefaultMergeCooldown 為兩次完整合併之間的最小間隔，避免 merge 風暴。
const DefaultMergeCooldown = 2 * time.Second

var (
	ErrItemNotFound = errors.New("cart item not found")
	ErrAnonymous    = errors.New("operation requires an authenticated session")
	// ErrSnapshotNotFound 由快照儲存回傳，表示該 profile 尚無快照。
	ErrSnapshotNotFound = errors.New("snapshot not found")
)

// CartAPI 為遠端權威購物車的操作接口。
type CartAPI interface {
	FetchCart(ctx context.Context) ([]cartDomain.RemoteLine, error)
	AddLine(ctx context.Context, productID, variantID string, quantity int) (cartDomain.RemoteLine, error)
	UpdateLine(ctx context.Context, itemID string, quantity int) (cartDomain.RemoteLine, error)
	DeleteLine(ctx context.Context, itemID string) error
	ClearLines(ctx context.Context) error
	MergeLines(ctx context.Context, lines []cartDomain.MergeLine) error
}

// AuthState 提供引擎判斷目前登入狀態。
type AuthState interface {
	IsAuthenticated() bool
	UserID() string
}

// SnapshotStore 為購物車快照的耐久儲存。
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, profile string, snap cartDomain.Snapshot) error
	LoadSnapshot(ctx context.Context, profile string) (cartDomain.Snapshot, error)
	DeleteSnapshot(ctx context.Context, profile string) error
}

// AddInput 為加入購物車的輸入。
type AddInput struct {
	ProductID     string
	VariantID     string
	Quantity      int
	UnitPrice     float64
	DiscountPrice *float64
}

// Engine 維護樂觀更新的本地購物車，並與遠端權威購物車對齊。
// 本地狀態只由 Engine 改動；所有變動走「遠端確認成功後才改本地」或
// 「改本地後以權威內容整個取代」兩種路徑，失敗時本地狀態保持原樣。
// 同一品項的連續操作以引擎層級的鎖序列化，避免快速點擊下的丟失更新。
type Engine struct {
	api       CartAPI
	auth      AuthState
	store     SnapshotStore
	persister *Persister
	profile   string
	cooldown  time.Duration
	now       func() time.Time

	mu        sync.Mutex
	cart      cartDomain.Cart
	lastMerge time.Time
	mergedFor string
}

// NewEngine 建立購物車同步引擎；cooldown <= 0 時採用預設 2 秒。
func NewEngine(api CartAPI, auth AuthState, store SnapshotStore, persister *Persister, profile string, cooldown time.Duration) *Engine {
	if cooldown <= 0 {
		cooldown = DefaultMergeCooldown
	}
	e := &Engine{
		api:       api,
		auth:      auth,
		store:     store,
		persister: persister,
		profile:   profile,
		cooldown:  cooldown,
		now:       time.Now,
	}
	return e
}

// Restore 由耐久儲存還原上次的購物車快照。
func (e *Engine) Restore(ctx context.Context) error {
	snap, err := e.store.LoadSnapshot(ctx, e.profile)
	if err != nil {
		if errors.Is(err, ErrSnapshotNotFound) {
			return nil
		}
		return fmt.Errorf("load snapshot: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.cart = cartDomain.Cart{Items: snap.Items, UpdatedAt: snap.CapturedAt}
	e.cart.Normalize()
	log.Printf("[CartSync] snapshot restored items=%d", len(e.cart.Items))
	return nil
}

// AddItem 加入品項。同鍵品項不重複成行而是數量相加；
// 已登入時先取得遠端確認，再以權威內容取代本地狀態。
func (e *Engine) AddItem(ctx context.Context, in AddInput) error {
	if in.ProductID == "" {
		return fmt.Errorf("product id is required")
	}
	if in.Quantity < 1 {
		return fmt.Errorf("quantity must be a positive integer")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	key := cartDomain.LineKey(in.ProductID, in.VariantID)
	idx, exists := e.cart.Find(key)

	if !e.auth.IsAuthenticated() {
		if exists {
			e.cart.Items[idx].Quantity += in.Quantity
		} else {
			e.cart.Items = append(e.cart.Items, cartDomain.Item{
				ProductID:     in.ProductID,
				VariantID:     in.VariantID,
				Quantity:      in.Quantity,
				UnitPrice:     in.UnitPrice,
				DiscountPrice: in.DiscountPrice,
				State:         cartDomain.StateLocalOnly,
				AddedAt:       e.now(),
			})
		}
		e.cart.UpdatedAt = e.now()
		e.queuePersist()
		return nil
	}

	if exists && e.cart.Items[idx].RemoteItemID != "" {
		prev := e.cart.Items[idx].State
		e.cart.Items[idx].State = cartDomain.StateSyncing
		_, err := e.api.UpdateLine(ctx, e.cart.Items[idx].RemoteItemID, e.cart.Items[idx].Quantity+in.Quantity)
		if err != nil {
			e.cart.Items[idx].State = prev
			return fmt.Errorf("update cart line: %w", err)
		}
	} else {
		if _, err := e.api.AddLine(ctx, in.ProductID, in.VariantID, in.Quantity); err != nil {
			return fmt.Errorf("add cart line: %w", err)
		}
	}
	return e.reloadLocked(ctx)
}

// RemoveItem 移除品項。尚未同步到遠端的品項只做本地移除並留下警告。
func (e *Engine) RemoveItem(ctx context.Context, productID, variantID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	key := cartDomain.LineKey(productID, variantID)
	idx, ok := e.cart.Find(key)
	if !ok {
		return ErrItemNotFound
	}

	it := e.cart.Items[idx]
	if it.RemoteItemID != "" && e.auth.IsAuthenticated() {
		prev := it.State
		e.cart.Items[idx].State = cartDomain.StateSyncing
		if err := e.api.DeleteLine(ctx, it.RemoteItemID); err != nil {
			e.cart.Items[idx].State = prev
			return fmt.Errorf("delete cart line: %w", err)
		}
	} else if it.RemoteItemID == "" {
		log.Printf("[CartSync] removing line %s that was never confirmed remotely", key)
	} else {
		log.Printf("[CartSync] removing line %s locally only; session is anonymous, remote delete skipped", key)
	}

	e.cart.Items = append(e.cart.Items[:idx], e.cart.Items[idx+1:]...)
	e.cart.UpdatedAt = e.now()
	e.queuePersist()
	return nil
}

// UpdateQuantity 調整品項數量；低於 1 的值夾制為 1。
// 只有具 RemoteItemID 的品項會同步遠端，其餘僅改本地。
func (e *Engine) UpdateQuantity(ctx context.Context, productID, variantID string, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	key := cartDomain.LineKey(productID, variantID)
	idx, ok := e.cart.Find(key)
	if !ok {
		return ErrItemNotFound
	}

	if e.cart.Items[idx].RemoteItemID != "" && e.auth.IsAuthenticated() {
		prev := e.cart.Items[idx].State
		e.cart.Items[idx].State = cartDomain.StateSyncing
		if _, err := e.api.UpdateLine(ctx, e.cart.Items[idx].RemoteItemID, quantity); err != nil {
			e.cart.Items[idx].State = prev
			return fmt.Errorf("update cart line: %w", err)
		}
		return e.reloadLocked(ctx)
	}

	e.cart.Items[idx].Quantity = quantity
	e.cart.UpdatedAt = e.now()
	e.queuePersist()
	return nil
}

// ClearCart 清空購物車。已登入時先清遠端，失敗則本地不動。
func (e *Engine) ClearCart(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.auth.IsAuthenticated() {
		if err := e.api.ClearLines(ctx); err != nil {
			return fmt.Errorf("clear remote cart: %w", err)
		}
	}
	e.dropLocked(ctx)
	return nil
}

// MergeOnLogin 在登入轉換時執行一次本地與遠端購物車的合併：
// 只送出遠端缺少或數量不同的子集，再以權威內容取代本地（remote wins）。
// 同一使用者在 cooldown 內的重複呼叫直接略過。
func (e *Engine) MergeOnLogin(ctx context.Context) error {
	if !e.auth.IsAuthenticated() {
		return ErrAnonymous
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	userID := e.auth.UserID()
	now := e.now()
	if userID == e.mergedFor && now.Sub(e.lastMerge) < e.cooldown {
		return nil
	}

	lines, err := e.api.FetchCart(ctx)
	if err != nil {
		return fmt.Errorf("fetch remote cart: %w", err)
	}
	remote := make(map[string]cartDomain.RemoteLine, len(lines))
	for _, l := range lines {
		remote[l.Key()] = l
	}

	var subset []cartDomain.MergeLine
	for _, it := range e.cart.Items {
		r, ok := remote[it.Key()]
		if ok && r.Quantity == it.Quantity {
			continue
		}
		subset = append(subset, cartDomain.MergeLine{
			ProductID: it.ProductID,
			VariantID: it.VariantID,
			Quantity:  it.Quantity,
		})
	}
	if len(subset) > 0 {
		if err := e.api.MergeLines(ctx, subset); err != nil {
			return fmt.Errorf("merge cart: %w", err)
		}
	}

	if err := e.reloadLocked(ctx); err != nil {
		return err
	}
	e.lastMerge = now
	e.mergedFor = userID
	return nil
}

// RefreshCart 已登入時重新載入權威購物車並直接落盤（不經防抖佇列，
// 避免由快照回寫再觸發一次外送儲存）；匿名時重新驗證本地品項並重算總計。
func (e *Engine) RefreshCart(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.auth.IsAuthenticated() {
		return e.reloadLocked(ctx)
	}

	e.cart.Normalize()
	e.cart.UpdatedAt = e.now()
	e.queuePersist()
	return nil
}

// DropLocal 清除本地投影（登出時使用；遠端購物車保留在伺服器側）。
func (e *Engine) DropLocal(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dropLocked(ctx)
}

// Items 回傳目前品項的副本。
func (e *Engine) Items() []cartDomain.Item {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]cartDomain.Item, len(e.cart.Items))
	copy(out, e.cart.Items)
	return out
}

// Totals 回傳 (總件數, 總金額)。
func (e *Engine) Totals() (int, float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cart.TotalItems(), e.cart.TotalPrice()
}

// Close 停止防抖寫入並送出未寫入的快照。
func (e *Engine) Close() {
	e.persister.Close()
}

func (e *Engine) reloadLocked(ctx context.Context) error {
	lines, err := e.api.FetchCart(ctx)
	if err != nil {
		return fmt.Errorf("fetch remote cart: %w", err)
	}
	e.cart = cartDomain.FromRemote(lines, e.now())
	// 先取消佇列中的舊快照，否則防抖到期時會用合併前的內容蓋掉權威快照
	e.persister.Cancel()
	if err := e.store.SaveSnapshot(ctx, e.profile, e.cart.Capture(e.now())); err != nil {
		log.Printf("[CartSync] persist snapshot failed: %v", err)
	}
	return nil
}

func (e *Engine) dropLocked(ctx context.Context) {
	e.cart = cartDomain.Cart{UpdatedAt: e.now()}
	e.persister.Cancel()
	if err := e.store.DeleteSnapshot(ctx, e.profile); err != nil && !errors.Is(err, ErrSnapshotNotFound) {
		log.Printf("[CartSync] delete snapshot failed: %v", err)
	}
}

func (e *Engine) queuePersist() {
	e.persister.Queue(e.cart.Capture(e.now()))
}
