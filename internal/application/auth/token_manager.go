package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	authDomain "storefront-sync/internal/domain/auth"

	"golang.org/x/sync/singleflight"
)

// DefaultExpiryBuffer 為到期前主動 refresh 的緩衝時間。
const DefaultExpiryBuffer = 5 * time.Minute

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrSessionNotFound  = errors.New("session not found")
)

// Refresher 以 userID 換發新的 access token（refresh 憑證由 cookie 附帶）。
type Refresher interface {
	RefreshSession(ctx context.Context, userID string) (string, error)
}

// ClaimsDecoder 解出 access token 內的到期時間與使用者。
type ClaimsDecoder interface {
	Decode(accessToken string) (authDomain.Claims, error)
}

// SessionStore 保存登入狀態供重啟後還原。
type SessionStore interface {
	SaveSession(ctx context.Context, profile string, sess authDomain.Session) error
	LoadSession(ctx context.Context, profile string) (authDomain.Session, error)
	DeleteSession(ctx context.Context, profile string) error
}

// Event 表示登入狀態轉換，訂閱者以此取代全域事件。
type Event string

const (
	EventLogin     Event = "login"
	EventRefreshed Event = "refreshed"
	EventLogout    Event = "logout"
)

// Manager 為行程內唯一的憑證持有者：其他元件一律透過存取函式讀取，
// 不直接改動 token 狀態。refresh 為 single-flight，同時間最多一個連線中。
type Manager struct {
	refresher Refresher
	decoder   ClaimsDecoder
	sessions  SessionStore // 可為 nil（不落盤）
	profile   string
	buffer    time.Duration
	now       func() time.Time

	mu    sync.RWMutex
	pair  authDomain.TokenPair
	group singleflight.Group

	subMu  sync.Mutex
	subs   map[int]func(Event)
	subSeq int
}

// NewManager 建立 token 管理者；buffer <= 0 時採用預設 5 分鐘。
func NewManager(refresher Refresher, decoder ClaimsDecoder, sessions SessionStore, profile string, buffer time.Duration) *Manager {
	if buffer <= 0 {
		buffer = DefaultExpiryBuffer
	}
	return &Manager{
		refresher: refresher,
		decoder:   decoder,
		sessions:  sessions,
		profile:   profile,
		buffer:    buffer,
		now:       time.Now,
		subs:      make(map[int]func(Event)),
	}
}

// SetTokens 寫入登入取得的憑證，解碼到期時間並落盤。
func (m *Manager) SetTokens(ctx context.Context, access, refresh, userID string) error {
	claims, err := m.decoder.Decode(access)
	if err != nil {
		return fmt.Errorf("decode access token: %w", err)
	}
	if claims.UserID != "" {
		userID = claims.UserID
	}

	m.mu.Lock()
	m.pair = authDomain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		AccessExpiry: claims.ExpiresAt,
		UserID:       userID,
	}
	pair := m.pair
	m.mu.Unlock()

	m.persist(ctx, pair)
	m.notify(EventLogin)
	return nil
}

// Restore 由耐久儲存還原上次的登入狀態。
func (m *Manager) Restore(ctx context.Context) error {
	if m.sessions == nil {
		return nil
	}
	sess, err := m.sessions.LoadSession(ctx, m.profile)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil
		}
		return fmt.Errorf("load session: %w", err)
	}
	if !sess.Active(m.now()) {
		_ = m.sessions.DeleteSession(ctx, m.profile)
		return nil
	}

	m.mu.Lock()
	m.pair = sess.Pair()
	m.mu.Unlock()
	log.Printf("[TokenManager] session restored user_id=%s", sess.UserID)
	return nil
}

// IsAuthenticated 檢查目前是否持有未過期的 access token。
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pair.Valid(m.now())
}

// IsExpiringSoon 檢查 access token 是否已進入主動 refresh 的緩衝窗。
func (m *Manager) IsExpiringSoon() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pair.ExpiringWithin(m.now(), m.buffer)
}

// UserID 回傳目前憑證所屬的使用者；匿名時為空字串。
func (m *Manager) UserID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pair.UserID
}

// Refresh 換發 access token。併發呼叫共用同一次換發：
// 全部呼叫者拿到同一個新 token，或同一個錯誤。
// 換發失敗時清除全部憑證狀態，視同登出。
func (m *Manager) Refresh(ctx context.Context) (string, error) {
	v, err, _ := m.group.Do("refresh", func() (interface{}, error) {
		m.mu.RLock()
		userID := m.pair.UserID
		m.mu.RUnlock()
		if userID == "" {
			return nil, ErrNotAuthenticated
		}

		access, err := m.refresher.RefreshSession(ctx, userID)
		if err != nil {
			log.Printf("[TokenManager] refresh failed, clearing credentials: %v", err)
			m.Clear(ctx)
			return nil, fmt.Errorf("refresh session: %w", err)
		}

		claims, err := m.decoder.Decode(access)
		if err != nil {
			m.Clear(ctx)
			return nil, fmt.Errorf("decode refreshed token: %w", err)
		}

		m.mu.Lock()
		m.pair.AccessToken = access
		m.pair.AccessExpiry = claims.ExpiresAt
		if claims.UserID != "" {
			m.pair.UserID = claims.UserID
		}
		pair := m.pair
		m.mu.Unlock()

		m.persist(ctx, pair)
		m.notify(EventRefreshed)
		return access, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Token 供外送請求取 bearer token：進入緩衝窗時先 refresh 再回傳，
// 匿名狀態回傳空字串（呼叫端不附 Authorization 標頭）。
func (m *Manager) Token(ctx context.Context) (string, error) {
	m.mu.RLock()
	pair := m.pair
	m.mu.RUnlock()

	if pair.AccessToken == "" {
		return "", nil
	}
	if pair.ExpiringWithin(m.now(), m.buffer) {
		return m.Refresh(ctx)
	}
	return pair.AccessToken, nil
}

// Reauthorize 供收到 401 的請求做單次 refresh 後重試。
func (m *Manager) Reauthorize(ctx context.Context) (string, error) {
	return m.Refresh(ctx)
}

// Clear 清空全部憑證狀態並移除落盤的 session。
func (m *Manager) Clear(ctx context.Context) {
	m.mu.Lock()
	hadUser := m.pair.UserID != ""
	m.pair = authDomain.TokenPair{}
	m.mu.Unlock()

	if m.sessions != nil {
		if err := m.sessions.DeleteSession(ctx, m.profile); err != nil && !errors.Is(err, ErrSessionNotFound) {
			log.Printf("[TokenManager] delete session failed: %v", err)
		}
	}
	if hadUser {
		m.notify(EventLogout)
	}
}

// Subscribe 註冊登入狀態轉換的監聽者，回傳取消函式。
// 通知為同步呼叫，順序即註冊順序。
func (m *Manager) Subscribe(fn func(Event)) func() {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	m.subSeq++
	id := m.subSeq
	m.subs[id] = fn
	return func() {
		m.subMu.Lock()
		defer m.subMu.Unlock()
		delete(m.subs, id)
	}
}

func (m *Manager) notify(ev Event) {
	m.subMu.Lock()
	fns := make([]func(Event), 0, len(m.subs))
	for i := 1; i <= m.subSeq; i++ {
		if fn, ok := m.subs[i]; ok {
			fns = append(fns, fn)
		}
	}
	m.subMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

func (m *Manager) persist(ctx context.Context, pair authDomain.TokenPair) {
	if m.sessions == nil {
		return
	}
	sess := authDomain.Session{
		UserID:       pair.UserID,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		AccessExpiry: pair.AccessExpiry,
		SavedAt:      m.now(),
	}
	if err := m.sessions.SaveSession(ctx, m.profile, sess); err != nil {
		log.Printf("[TokenManager] persist session failed: %v", err)
	}
}
