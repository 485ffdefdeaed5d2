// Package auth 提供 access token 的解碼。
package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	authdomain "storefront-sync/internal/domain/auth"
)

// Decoder 讀取 access token 內的 claims。
// 簽章驗證是後端的責任，客戶端只需要到期時間與使用者識別，
// 因此以 ParseUnverified 解析內容而不驗簽。
type Decoder struct {
	parser *jwt.Parser
}

// NewDecoder 建立解碼器。
func NewDecoder() *Decoder {
	return &Decoder{parser: jwt.NewParser()}
}

// Decode 解出 token 的使用者與到期時間。
func (d *Decoder) Decode(accessToken string) (authdomain.Claims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := d.parser.ParseUnverified(accessToken, claims); err != nil {
		return authdomain.Claims{}, fmt.Errorf("parse access token: %w", err)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return authdomain.Claims{}, fmt.Errorf("access token missing exp claim")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return authdomain.Claims{}, fmt.Errorf("access token missing sub claim")
	}

	return authdomain.Claims{UserID: sub, ExpiresAt: exp.Time}, nil
}
