package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"agrimarket/internal/cache"
	"agrimarket/internal/domain"
	"agrimarket/internal/repository"
	"agrimarket/internal/weather"
)

// WeatherService sirve el clima persistido y el pronóstico en vivo.
type WeatherService struct {
	logger   *zap.Logger
	entries  repository.WeatherRepository
	provider weather.Client
	cache    cache.Cache
	cacheTTL time.Duration
	now      func() time.Time
}

func NewWeatherService(logger *zap.Logger, entries repository.WeatherRepository, provider weather.Client, store cache.Cache) *WeatherService {
	if store == nil {
		store = cache.NewMemoryCache()
	}
	return &WeatherService{
		logger:   logger,
		entries:  entries,
		provider: provider,
		cache:    store,
		cacheTTL: forecastCacheTTL,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

var (
	ErrWeatherNotConfigured = errors.New("weather service not configured")
	ErrLocationRequired     = errors.New("location required")
)

const forecastCacheTTL = 10 * time.Minute

// ListStored devuelve las filas desde hoy para una ubicación, ordenadas por fecha.
func (s *WeatherService) ListStored(ctx context.Context, location string, limit int) ([]domain.WeatherEntry, error) {
	if s.entries == nil {
		return nil, ErrWeatherNotConfigured
	}
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, ErrLocationRequired
	}
	today := s.now().Format("2006-01-02")
	return s.entries.ListFromDate(ctx, location, today, limit)
}

// LiveForecast resuelve coordenadas por el nombre de la ubicación y consulta
// el proveedor externo. El resultado se cachea 10 minutos por coordenadas
// redondeadas.
func (s *WeatherService) LiveForecast(ctx context.Context, location string) (domain.Forecast, error) {
	if s.provider == nil {
		return domain.Forecast{}, ErrWeatherNotConfigured
	}
	location = strings.TrimSpace(location)
	if location == "" {
		return domain.Forecast{}, ErrLocationRequired
	}

	coords, err := s.provider.Geocode(ctx, location)
	if err != nil {
		return domain.Forecast{}, err
	}
	return s.ForecastByCoordinates(ctx, coords)
}

// ForecastByCoordinates consulta el pronóstico para coordenadas ya resueltas.
func (s *WeatherService) ForecastByCoordinates(ctx context.Context, coords weather.Coordinates) (domain.Forecast, error) {
	if s.provider == nil {
		return domain.Forecast{}, ErrWeatherNotConfigured
	}

	key := forecastCacheKey(coords)
	if cached, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		var forecast domain.Forecast
		if err := json.Unmarshal([]byte(cached), &forecast); err == nil {
			return forecast, nil
		}
	} else if err != nil && s.logger != nil {
		s.logger.Warn("forecast cache read failed", zap.Error(err))
	}

	forecast, err := s.provider.Forecast(ctx, coords)
	if err != nil {
		return domain.Forecast{}, err
	}

	if payload, err := json.Marshal(forecast); err == nil {
		if err := s.cache.Set(ctx, key, string(payload), s.cacheTTL); err != nil && s.logger != nil {
			s.logger.Warn("forecast cache write failed", zap.Error(err))
		}
	}
	return forecast, nil
}

func forecastCacheKey(coords weather.Coordinates) string {
	return fmt.Sprintf("weather:forecast:%.2f:%.2f", coords.Latitude, coords.Longitude)
}
