package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"agrimarket/internal/service"
)

// FarmHandler administra el portafolio de fincas del agricultor.
type FarmHandler struct {
	logger   *zap.Logger
	farmServ *service.FarmService
}

func NewFarmHandler(logger *zap.Logger, farmServ *service.FarmService) *FarmHandler {
	return &FarmHandler{logger: logger, farmServ: farmServ}
}

// ListFarms maneja GET /farms.
func (h *FarmHandler) ListFarms(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing session"})
		return
	}

	farms, err := h.farmServ.List(c.Request.Context(), claims.ProfileID)
	if err != nil {
		h.logger.Error("list farms failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list farms"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"farms": farms})
}

// CreateFarm maneja POST /farms.
func (h *FarmHandler) CreateFarm(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing session"})
		return
	}

	var req struct {
		Name         string   `json:"name" binding:"required"`
		Location     string   `json:"location" binding:"required"`
		SizeHectares float64  `json:"size_hectares" binding:"required"`
		SoilType     string   `json:"soil_type"`
		Crops        []string `json:"crops"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	farm, err := h.farmServ.Create(c.Request.Context(), claims.ProfileID, service.CreateFarmInput{
		Name:         req.Name,
		Location:     req.Location,
		SizeHectares: req.SizeHectares,
		SoilType:     req.SoilType,
		Crops:        req.Crops,
	})
	if err != nil {
		if errors.Is(err, service.ErrFarmInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid farm data"})
			return
		}
		h.logger.Error("create farm failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create farm"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"farm": farm})
}

// DeleteFarm maneja DELETE /farms/:id.
func (h *FarmHandler) DeleteFarm(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing session"})
		return
	}

	if err := h.farmServ.Delete(c.Request.Context(), c.Param("id"), claims.ProfileID); err != nil {
		if errors.Is(err, service.ErrFarmInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		h.logger.Error("delete farm failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete farm"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// GetFarmStats maneja GET /farms/stats.
func (h *FarmHandler) GetFarmStats(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing session"})
		return
	}

	stats, err := h.farmServ.Stats(c.Request.Context(), claims.ProfileID)
	if err != nil {
		h.logger.Error("farm stats failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not compute stats"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}
