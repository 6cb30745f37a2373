package http

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"agrimarket/internal/service"
)

// Sin redis el carrito queda sin servicio; las rutas deben responder 503
// en lugar de caerse.
func TestCartRoutesWithoutStoreReturnServiceUnavailable(t *testing.T) {
	gin.SetMode(gin.TestMode)

	jwtSvc := service.NewJWTServiceWithStore("secret", 15*time.Minute, time.Hour, service.NewMemoryRefreshTokenStore())
	var cartSvc *service.CartService
	h := NewMarketplaceHandler(zap.NewNop(), nil, cartSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	authed := r.Group("/", JWTAuthMiddleware(jwtSvc))
	authed.GET("/cart", h.GetCart)
	authed.POST("/cart/items", h.AddCartItem)
	authed.DELETE("/cart/items/:productID", h.RemoveCartItem)

	token := bearerFor(t, jwtSvc, "p1")

	rec := doJSON(t, r, http.MethodGet, "/cart", token, nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("GET /cart: expected 503, got %d %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, r, http.MethodPost, "/cart/items", token, map[string]any{"product_id": "prod-1", "quantity": 1})
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("POST /cart/items: expected 503, got %d %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, r, http.MethodDelete, "/cart/items/prod-1", token, nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("DELETE /cart/items: expected 503, got %d %s", rec.Code, rec.Body.String())
	}
}
