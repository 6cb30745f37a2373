package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"agrimarket/internal/service"
	"agrimarket/internal/weather"
)

// WeatherHandler sirve el clima almacenado y el pronóstico en vivo.
type WeatherHandler struct {
	logger      *zap.Logger
	weatherServ *service.WeatherService
	profileServ *service.ProfileService
}

func NewWeatherHandler(logger *zap.Logger, weatherServ *service.WeatherService, profileServ *service.ProfileService) *WeatherHandler {
	return &WeatherHandler{logger: logger, weatherServ: weatherServ, profileServ: profileServ}
}

// sessionLocation resuelve la ubicación: query param o la del perfil.
func (h *WeatherHandler) sessionLocation(c *gin.Context) string {
	if loc := c.Query("location"); loc != "" {
		return loc
	}
	claims, ok := GetAuthClaims(c)
	if !ok {
		return ""
	}
	profile, _, err := h.profileServ.GetOrHeal(c.Request.Context(), claims)
	if err != nil {
		return ""
	}
	return profile.Location
}

// GetWeather maneja GET /weather.
func (h *WeatherHandler) GetWeather(c *gin.Context) {
	location := h.sessionLocation(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "7"))

	entries, err := h.weatherServ.ListStored(c.Request.Context(), location, limit)
	if err != nil {
		if errors.Is(err, service.ErrLocationRequired) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "location required"})
			return
		}
		h.logger.Error("list weather failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load weather"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"weather": entries})
}

// GetForecast maneja GET /weather/forecast.
func (h *WeatherHandler) GetForecast(c *gin.Context) {
	location := h.sessionLocation(c)

	forecast, err := h.weatherServ.LiveForecast(c.Request.Context(), location)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrLocationRequired):
			c.JSON(http.StatusBadRequest, gin.H{"error": "location required"})
		case errors.Is(err, weather.ErrPlaceNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "location not found"})
		case errors.Is(err, weather.ErrWeatherUpstream):
			c.JSON(http.StatusBadGateway, gin.H{"error": "weather provider unavailable"})
		default:
			h.logger.Error("live forecast failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load forecast"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"forecast": forecast})
}
