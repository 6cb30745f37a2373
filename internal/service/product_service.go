package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"agrimarket/internal/domain"
	"agrimarket/internal/repository"
)

// ProductService lista el catálogo de insumos del marketplace.
type ProductService struct {
	logger   *zap.Logger
	products repository.ProductRepository
}

func NewProductService(logger *zap.Logger, products repository.ProductRepository) *ProductService {
	return &ProductService{logger: logger, products: products}
}

var (
	ErrProductNotConfigured = errors.New("product service not configured")
	ErrProductNotFound      = errors.New("product not found")
)

// List devuelve productos con stock, filtrando por categoría y búsqueda por
// nombre. "all" como categoría equivale a no filtrar.
func (s *ProductService) List(ctx context.Context, category, search string, limit int) ([]domain.Product, error) {
	if s.products == nil {
		return nil, ErrProductNotConfigured
	}

	filter := repository.ProductFilter{
		Category: normalizeFilterValue(category),
		Search:   strings.TrimSpace(search),
		Limit:    limit,
	}
	return s.products.List(ctx, filter)
}

func (s *ProductService) GetByID(ctx context.Context, id string) (domain.Product, error) {
	if s.products == nil {
		return domain.Product{}, ErrProductNotConfigured
	}
	product, err := s.products.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Product{}, ErrProductNotFound
		}
		return domain.Product{}, err
	}
	return product, nil
}
