package httpapi

import (
	"errors"
	"net/http"

	cartApp "storefront-sync/internal/application/cart"
	cartDomain "storefront-sync/internal/domain/cart"
	"storefront-sync/internal/infrastructure/storefront"

	"github.com/gin-gonic/gin"
)

// respondError 把應用層與遠端 API 的錯誤對應到本地回應。
// 遠端回的狀態碼原樣轉送，連線層失敗以 502 表達。
func respondError(c *gin.Context, err error) {
	if ae, ok := storefront.AsAPIError(err); ok {
		if ae.IsNetwork() {
			c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": ae.Message, "error_code": errCodeUpstream})
			return
		}
		c.JSON(ae.Status, gin.H{"success": false, "error": ae.Message, "error_code": ae.Code, "errors": ae.Errors})
		return
	}

	switch {
	case errors.Is(err, cartApp.ErrItemNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": err.Error(), "error_code": errCodeNotFound})
	case errors.Is(err, cartApp.ErrAnonymous):
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": err.Error(), "error_code": errCodeUnauthorized})
	case errors.Is(err, cartDomain.ErrEmptyProduct), errors.Is(err, cartDomain.ErrInvalidQuantity):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error(), "error_code": errCodeBadRequest})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error(), "error_code": errCodeInternal})
	}
}
