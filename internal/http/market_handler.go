package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"agrimarket/internal/service"
)

// MarketHandler sirve los precios de mercado.
type MarketHandler struct {
	logger     *zap.Logger
	marketServ *service.MarketService
}

func NewMarketHandler(logger *zap.Logger, marketServ *service.MarketService) *MarketHandler {
	return &MarketHandler{logger: logger, marketServ: marketServ}
}

// GetPrices maneja GET /market/prices. Sin expandir se devuelven 5
// filas; con expanded=true, 20.
func (h *MarketHandler) GetPrices(c *gin.Context) {
	limit := 5
	if expanded, _ := strconv.ParseBool(c.Query("expanded")); expanded {
		limit = 20
	}

	prices, err := h.marketServ.ListPrices(
		c.Request.Context(),
		c.DefaultQuery("country", "all"),
		c.DefaultQuery("crop", "all"),
		limit,
	)
	if err != nil {
		h.logger.Error("list market prices failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load prices"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"prices": prices})
}
