package auth

import "time"

// TokenPair 封裝 access/refresh token 與其到期時間。
// RefreshToken 可能為空：伺服器以 HTTP-only cookie 管理 refresh 憑證時，
// 應用程式碼看不到它。
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	AccessExpiry time.Time
	UserID       string
}

// Valid 檢查 access token 是否仍在效期內。
func (t TokenPair) Valid(now time.Time) bool {
	return t.AccessToken != "" && now.Before(t.AccessExpiry)
}

// ExpiringWithin 檢查 access token 是否將於 buffer 內到期。
func (t TokenPair) ExpiringWithin(now time.Time, buffer time.Duration) bool {
	if t.AccessToken == "" {
		return false
	}
	return !now.Add(buffer).Before(t.AccessExpiry)
}

// Claims 為 access token 解碼後的必要欄位。
type Claims struct {
	UserID    string
	ExpiresAt time.Time
}

// User 為遠端 API 回傳的使用者基本資料。
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}
