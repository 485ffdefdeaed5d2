package httpapi

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleLogin(c *gin.Context) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Email == "" || body.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "email and password required", "error_code": errCodeBadRequest})
		return
	}

	res, err := s.account.Login(c.Request.Context(), body.Email, body.Password)
	if err != nil {
		log.Printf("login failed email=%s: %v", body.Email, err)
		respondError(c, err)
		return
	}

	if err := s.tokens.SetTokens(c.Request.Context(), res.AccessToken, res.RefreshToken, res.User.ID); err != nil {
		log.Printf("store tokens failed user_id=%s: %v", res.User.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to store session", "error_code": errCodeInternal})
		return
	}
	log.Printf("login success user_id=%s email=%s", res.User.ID, res.User.Email)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user": gin.H{
			"id":    res.User.ID,
			"email": res.User.Email,
			"name":  res.User.Name,
		},
	})
}

func (s *Server) handleLogout(c *gin.Context) {
	// 遠端撤銷失敗不擋本地登出
	if err := s.account.Logout(c.Request.Context()); err != nil {
		log.Printf("remote logout failed: %v", err)
	}
	s.tokens.Clear(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handleRefresh(c *gin.Context) {
	if !s.tokens.IsAuthenticated() {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "no active session", "error_code": errCodeUnauthorized})
		return
	}
	if _, err := s.tokens.Refresh(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handleSession(c *gin.Context) {
	if !s.tokens.IsAuthenticated() {
		c.JSON(http.StatusOK, gin.H{"success": true, "authenticated": false})
		return
	}

	resp := gin.H{
		"success":       true,
		"authenticated": true,
		"user_id":       s.tokens.UserID(),
		"expiring_soon": s.tokens.IsExpiringSoon(),
	}
	if user, err := s.account.Me(c.Request.Context()); err == nil {
		resp["user"] = gin.H{"id": user.ID, "email": user.Email, "name": user.Name}
	}
	c.JSON(http.StatusOK, resp)
}
