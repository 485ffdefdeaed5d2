package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) wishlistView() gin.H {
	items := s.wishlist.Items()
	return gin.H{
		"success": true,
		"items":   items,
		"count":   len(items),
	}
}

func (s *Server) handleWishlistGet(c *gin.Context) {
	if err := s.wishlist.Refresh(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.wishlistView())
}

func (s *Server) handleWishlistAdd(c *gin.Context) {
	var body struct {
		ProductID string `json:"product_id"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.ProductID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "product_id required", "error_code": errCodeBadRequest})
		return
	}
	if err := s.wishlist.Add(c.Request.Context(), body.ProductID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.wishlistView())
}

func (s *Server) handleWishlistRemove(c *gin.Context) {
	if err := s.wishlist.Remove(c.Request.Context(), c.Param("productId")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.wishlistView())
}
