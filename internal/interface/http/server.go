// Package httpapi 提供本地控制介面，把同步引擎的操作以 REST 暴露給前端。
package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	cartApp "storefront-sync/internal/application/cart"
	authDomain "storefront-sync/internal/domain/auth"
	cartDomain "storefront-sync/internal/domain/cart"
	wishlistDomain "storefront-sync/internal/domain/wishlist"
	"storefront-sync/internal/infrastructure/storefront"

	"github.com/gin-gonic/gin"
)

const (
	errCodeBadRequest   = "BAD_REQUEST"
	errCodeUnauthorized = "AUTH_UNAUTHORIZED"
	errCodeNotFound     = "NOT_FOUND"
	errCodeUpstream     = "UPSTREAM_ERROR"
	errCodeInternal     = "INTERNAL_ERROR"
)

// AccountAPI 為遠端帳號操作接口。
type AccountAPI interface {
	Login(ctx context.Context, email, password string) (storefront.LoginResult, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (authDomain.User, error)
}

// TokenManager 為登入狀態管理接口。
type TokenManager interface {
	SetTokens(ctx context.Context, access, refresh, userID string) error
	IsAuthenticated() bool
	IsExpiringSoon() bool
	UserID() string
	Refresh(ctx context.Context) (string, error)
	Clear(ctx context.Context)
}

// CartService 為購物車同步操作接口。
type CartService interface {
	AddItem(ctx context.Context, in cartApp.AddInput) error
	RemoveItem(ctx context.Context, productID, variantID string) error
	UpdateQuantity(ctx context.Context, productID, variantID string, quantity int) error
	ClearCart(ctx context.Context) error
	MergeOnLogin(ctx context.Context) error
	RefreshCart(ctx context.Context) error
	Items() []cartDomain.Item
	Totals() (int, float64)
}

// WishlistService 為願望清單操作接口。
type WishlistService interface {
	Refresh(ctx context.Context) error
	Add(ctx context.Context, productID string) error
	Remove(ctx context.Context, productID string) error
	Items() []wishlistDomain.Item
}

// Server 封裝 HTTP 路由與依賴。
type Server struct {
	engine   *gin.Engine
	account  AccountAPI
	tokens   TokenManager
	cart     CartService
	wishlist WishlistService
	db       *sql.DB
	started  time.Time
}

// NewServer 建立本地 API 伺服器。db 可為 nil（使用記憶體或檔案儲存時）。
func NewServer(account AccountAPI, tokens TokenManager, cart CartService, wishlist WishlistService, db *sql.DB) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		engine:   engine,
		account:  account,
		tokens:   tokens,
		cart:     cart,
		wishlist: wishlist,
		db:       db,
		started:  time.Now(),
	}
	engine.Use(s.ginLogger(), corsMiddleware())
	s.registerRoutes()
	return s
}

// Handler 回傳路由處理器，供 HTTP server 掛載。
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")
	api.GET("/ping", s.handlePing)
	api.GET("/health", s.handleHealth)

	api.POST("/auth/login", s.handleLogin)
	api.POST("/auth/logout", s.handleLogout)
	api.POST("/auth/refresh", s.handleRefresh)
	api.GET("/auth/session", s.handleSession)

	api.GET("/cart", s.handleCartGet)
	api.POST("/cart/items", s.handleCartAdd)
	api.PUT("/cart/items/:productId", s.handleCartUpdate)
	api.DELETE("/cart/items/:productId", s.handleCartRemove)
	api.DELETE("/cart", s.handleCartClear)
	api.POST("/cart/refresh", s.handleCartRefresh)
	api.POST("/cart/merge", s.handleCartMerge)

	api.GET("/wishlist", s.handleWishlistGet)
	api.POST("/wishlist", s.handleWishlistAdd)
	api.DELETE("/wishlist/:productId", s.handleWishlistRemove)
}

func (s *Server) handlePing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "pong",
		"timestamp": time.Now().Unix(),
		"status":    "alive",
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	dbStatus := "ok"
	if s.db != nil {
		if err := s.db.PingContext(c.Request.Context()); err != nil {
			dbStatus = "error: " + err.Error()
		}
	} else {
		dbStatus = "not_configured"
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"health":        "ok",
		"db":            dbStatus,
		"authenticated": s.tokens.IsAuthenticated(),
		"uptime":        time.Since(s.started).Round(time.Second).String(),
		"time":          time.Now().Format(time.RFC3339),
	})
}
