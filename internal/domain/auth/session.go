package auth

import "time"

// Session 為落盤保存的登入狀態，供重啟後延續。
type Session struct {
	UserID       string    `json:"user_id"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	AccessExpiry time.Time `json:"access_expiry"`
	SavedAt      time.Time `json:"saved_at"`
}

// Active 檢查保存的 session 是否仍可用來還原登入。
// access token 過期但仍有 refresh 憑證時視為可還原（由 refresh 補發）。
func (s Session) Active(now time.Time) bool {
	if s.UserID == "" {
		return false
	}
	if now.Before(s.AccessExpiry) {
		return true
	}
	return s.RefreshToken != ""
}

// Pair 轉換為記憶體中的 TokenPair。
func (s Session) Pair() TokenPair {
	return TokenPair{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		AccessExpiry: s.AccessExpiry,
		UserID:       s.UserID,
	}
}
