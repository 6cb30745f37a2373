package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"agrimarket/internal/domain"
	"agrimarket/internal/repository"
)

// MarketService lista precios de cultivos por país y mercado.
type MarketService struct {
	logger *zap.Logger
	prices repository.MarketPriceRepository
}

func NewMarketService(logger *zap.Logger, prices repository.MarketPriceRepository) *MarketService {
	return &MarketService{logger: logger, prices: prices}
}

var ErrMarketNotConfigured = errors.New("market service not configured")

// ListPrices devuelve los precios más recientes. El valor "all" en cualquiera
// de los filtros equivale a no filtrar.
func (s *MarketService) ListPrices(ctx context.Context, country, cropName string, limit int) ([]domain.MarketPrice, error) {
	if s.prices == nil {
		return nil, ErrMarketNotConfigured
	}

	filter := repository.MarketPriceFilter{
		Country:  normalizeFilterValue(country),
		CropName: normalizeFilterValue(cropName),
		Limit:    limit,
	}
	return s.prices.List(ctx, filter)
}

func normalizeFilterValue(value string) string {
	value = strings.TrimSpace(value)
	if strings.EqualFold(value, "all") {
		return ""
	}
	return value
}
