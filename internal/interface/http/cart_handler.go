package httpapi

import (
	"net/http"

	cartApp "storefront-sync/internal/application/cart"

	"github.com/gin-gonic/gin"
)

type cartItemView struct {
	ProductID     string   `json:"product_id"`
	VariantID     string   `json:"variant_id,omitempty"`
	Quantity      int      `json:"quantity"`
	UnitPrice     float64  `json:"unit_price"`
	DiscountPrice *float64 `json:"discount_price,omitempty"`
	Subtotal      float64  `json:"subtotal"`
	State         string   `json:"state"`
}

func (s *Server) cartView() gin.H {
	items := s.cart.Items()
	views := make([]cartItemView, 0, len(items))
	for _, it := range items {
		views = append(views, cartItemView{
			ProductID:     it.ProductID,
			VariantID:     it.VariantID,
			Quantity:      it.Quantity,
			UnitPrice:     it.UnitPrice,
			DiscountPrice: it.DiscountPrice,
			Subtotal:      it.Subtotal(),
			State:         string(it.State),
		})
	}
	count, total := s.cart.Totals()
	return gin.H{
		"success":     true,
		"items":       views,
		"total_items": count,
		"total_price": total,
	}
}

func (s *Server) handleCartGet(c *gin.Context) {
	c.JSON(http.StatusOK, s.cartView())
}

func (s *Server) handleCartAdd(c *gin.Context) {
	var body struct {
		ProductID     string   `json:"product_id"`
		VariantID     string   `json:"variant_id"`
		Quantity      int      `json:"quantity"`
		UnitPrice     float64  `json:"unit_price"`
		DiscountPrice *float64 `json:"discount_price"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid body", "error_code": errCodeBadRequest})
		return
	}

	err := s.cart.AddItem(c.Request.Context(), cartApp.AddInput{
		ProductID:     body.ProductID,
		VariantID:     body.VariantID,
		Quantity:      body.Quantity,
		UnitPrice:     body.UnitPrice,
		DiscountPrice: body.DiscountPrice,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.cartView())
}

func (s *Server) handleCartUpdate(c *gin.Context) {
	var body struct {
		Quantity int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid body", "error_code": errCodeBadRequest})
		return
	}

	productID := c.Param("productId")
	variantID := c.Query("variant")
	if err := s.cart.UpdateQuantity(c.Request.Context(), productID, variantID, body.Quantity); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.cartView())
}

func (s *Server) handleCartRemove(c *gin.Context) {
	productID := c.Param("productId")
	variantID := c.Query("variant")
	if err := s.cart.RemoveItem(c.Request.Context(), productID, variantID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.cartView())
}

func (s *Server) handleCartClear(c *gin.Context) {
	if err := s.cart.ClearCart(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.cartView())
}

func (s *Server) handleCartRefresh(c *gin.Context) {
	if err := s.cart.RefreshCart(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.cartView())
}

func (s *Server) handleCartMerge(c *gin.Context) {
	if err := s.cart.MergeOnLogin(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.cartView())
}

// 確認引擎型別滿足接口，避免 cmd 組裝時才發現簽名走樣。
var _ CartService = (*cartApp.Engine)(nil)
