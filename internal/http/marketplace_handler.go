package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"agrimarket/internal/service"
)

// MarketplaceHandler sirve el catálogo de insumos y el carrito.
type MarketplaceHandler struct {
	logger      *zap.Logger
	productServ *service.ProductService
	cartServ    *service.CartService
}

func NewMarketplaceHandler(logger *zap.Logger, productServ *service.ProductService, cartServ *service.CartService) *MarketplaceHandler {
	return &MarketplaceHandler{logger: logger, productServ: productServ, cartServ: cartServ}
}

// ListProducts maneja GET /products. Sin expandir se devuelven 6
// productos; con expanded=true, 20.
func (h *MarketplaceHandler) ListProducts(c *gin.Context) {
	limit := 6
	if expanded, _ := strconv.ParseBool(c.Query("expanded")); expanded {
		limit = 20
	}

	products, err := h.productServ.List(
		c.Request.Context(),
		c.DefaultQuery("category", "all"),
		c.Query("search"),
		limit,
	)
	if err != nil {
		h.logger.Error("list products failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load products"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

// GetProduct maneja GET /products/:id.
func (h *MarketplaceHandler) GetProduct(c *gin.Context) {
	product, err := h.productServ.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		h.logger.Error("get product failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load product"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product})
}

// GetCart maneja GET /cart.
func (h *MarketplaceHandler) GetCart(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing session"})
		return
	}

	items, err := h.cartServ.List(c.Request.Context(), claims.ProfileID)
	if err != nil {
		if errors.Is(err, service.ErrCartNotConfigured) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "cart unavailable"})
			return
		}
		h.logger.Error("list cart failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load cart"})
		return
	}
	total, err := h.cartServ.Total(c.Request.Context(), claims.ProfileID)
	if err != nil {
		h.logger.Error("cart total failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load cart"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": total})
}

// AddCartItem maneja POST /cart/items.
func (h *MarketplaceHandler) AddCartItem(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing session"})
		return
	}

	var req struct {
		ProductID string `json:"product_id" binding:"required"`
		Quantity  int    `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if req.Quantity <= 0 {
		req.Quantity = 1
	}

	item, err := h.cartServ.Add(c.Request.Context(), claims.ProfileID, req.ProductID, req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProductNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		case errors.Is(err, service.ErrCartInvalidInput):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		case errors.Is(err, service.ErrCartNotConfigured):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "cart unavailable"})
		default:
			h.logger.Error("add cart item failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not add to cart"})
		}
		return
	}
	c.JSON(http.StatusCreated, gin.H{"item": item})
}

// RemoveCartItem maneja DELETE /cart/items/:productID.
func (h *MarketplaceHandler) RemoveCartItem(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing session"})
		return
	}

	if err := h.cartServ.Remove(c.Request.Context(), claims.ProfileID, c.Param("productID")); err != nil {
		if errors.Is(err, service.ErrCartInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		if errors.Is(err, service.ErrCartNotConfigured) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "cart unavailable"})
			return
		}
		h.logger.Error("remove cart item failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not remove from cart"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}
