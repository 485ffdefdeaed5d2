// Package storefront 實作對商城後端 REST API 的 HTTP 客戶端。
// 所有成功回應皆包在 {statusCode, message, data, timestamp, path} envelope 內，
// call 會解開 envelope 並把 data 解碼到呼叫端提供的型別。
package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	authdomain "storefront-sync/internal/domain/auth"
)

const defaultTimeout = 10 * time.Second

// Authorizer 提供請求夾帶的 access token；Reauthorize 在收到 401 時強制換發。
type Authorizer interface {
	Token(ctx context.Context) (string, error)
	Reauthorize(ctx context.Context) (string, error)
}

// Client 為商城 API 客戶端。refresh token 由後端以 HTTP-only cookie 下發，
// 透過 cookie jar 自動回傳，程式端只管理 access token。
type Client struct {
	baseURL    string
	httpClient *http.Client
	auth       Authorizer
}

// NewClient 建立客戶端。timeout 小於等於 0 時使用預設值。
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	jar, _ := cookiejar.New(nil)
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			Jar:     jar,
		},
	}
}

// SetAuthorizer 設定 token 來源。登入前可為 nil，所有請求一律匿名送出。
func (c *Client) SetAuthorizer(a Authorizer) {
	c.auth = a
}

type envelope struct {
	StatusCode int                 `json:"statusCode"`
	Message    string              `json:"message"`
	Data       json.RawMessage     `json:"data"`
	Timestamp  string              `json:"timestamp"`
	Path       string              `json:"path"`
	Code       string              `json:"code,omitempty"`
	Errors     map[string][]string `json:"errors,omitempty"`
}

// call 發送一次 API 請求。authed 為 true 時夾帶 bearer token，
// 並在收到 401 時換發一次後重送；重送仍失敗就回傳原始錯誤。
func (c *Client) call(ctx context.Context, method, path string, body, out any, authed bool) error {
	return c.do(ctx, method, path, body, out, authed, false)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, authed, retried bool) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if authed && c.auth != nil {
		token, err := c.auth.Token(ctx)
		if err != nil {
			return fmt.Errorf("authorize request: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &APIError{Status: 0, Code: errCodeNetwork, Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized && authed && !retried && c.auth != nil {
		token, rerr := c.auth.Reauthorize(ctx)
		if rerr == nil && token != "" {
			return c.do(ctx, method, path, body, out, authed, true)
		}
	}

	if resp.StatusCode >= 400 {
		return parseAPIError(resp.StatusCode, raw)
	}

	if out == nil {
		return nil
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decode response envelope: %w", err)
	}
	if len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}

// LoginResult 為登入成功的回傳內容。refresh token 僅存於 cookie jar，
// 此處的 RefreshToken 是後端額外附帶、供離線持久化用的副本。
type LoginResult struct {
	AccessToken  string          `json:"accessToken"`
	RefreshToken string          `json:"refreshToken"`
	User         authdomain.User `json:"user"`
}

// Login 以帳密登入。
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	var out LoginResult
	body := map[string]string{"email": email, "password": password}
	if err := c.call(ctx, http.MethodPost, "/auth/login", body, &out, false); err != nil {
		return LoginResult{}, err
	}
	return out, nil
}

// RefreshSession 換發 access token。refresh token 由 cookie 帶上，
// body 只需 userId。回傳新的 access token。
func (c *Client) RefreshSession(ctx context.Context, userID string) (string, error) {
	var out struct {
		AccessToken string `json:"accessToken"`
	}
	body := map[string]string{"userId": userID}
	if err := c.call(ctx, http.MethodPost, "/auth/refresh", body, &out, false); err != nil {
		return "", err
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("refresh response missing access token")
	}
	return out.AccessToken, nil
}

// Logout 通知後端撤銷 refresh token。
func (c *Client) Logout(ctx context.Context) error {
	return c.call(ctx, http.MethodPost, "/auth/logout", nil, nil, true)
}

// Me 取得目前登入的使用者資料。
func (c *Client) Me(ctx context.Context) (authdomain.User, error) {
	var out authdomain.User
	if err := c.call(ctx, http.MethodGet, "/auth/me", nil, &out, true); err != nil {
		return authdomain.User{}, err
	}
	return out, nil
}
