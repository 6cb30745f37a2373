package service

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"agrimarket/internal/domain"
	"agrimarket/internal/repository"
)

type mockProductRepo struct {
	lastFilter repository.ProductFilter
	products   map[string]domain.Product
	upserts    []domain.Product
}

func newMockProductRepo() *mockProductRepo {
	return &mockProductRepo{products: make(map[string]domain.Product)}
}

func (m *mockProductRepo) List(_ context.Context, filter repository.ProductFilter) ([]domain.Product, error) {
	m.lastFilter = filter
	var out []domain.Product
	for _, p := range m.products {
		out = append(out, p)
	}
	return out, nil
}

func (m *mockProductRepo) GetByID(_ context.Context, id string) (domain.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return domain.Product{}, pgx.ErrNoRows
	}
	return p, nil
}

func (m *mockProductRepo) Upsert(_ context.Context, product domain.Product) error {
	m.upserts = append(m.upserts, product)
	if m.products == nil {
		m.products = make(map[string]domain.Product)
	}
	m.products[product.ID] = product
	return nil
}

func TestProductServiceListNormalizesCategory(t *testing.T) {
	repo := newMockProductRepo()
	svc := NewProductService(zap.NewNop(), repo)

	if _, err := svc.List(context.Background(), "all", "  maize  ", 6); err != nil {
		t.Fatalf("list: %v", err)
	}
	if repo.lastFilter.Category != "" {
		t.Fatalf("expected all to clear category, got %q", repo.lastFilter.Category)
	}
	if repo.lastFilter.Search != "maize" {
		t.Fatalf("expected trimmed search, got %q", repo.lastFilter.Search)
	}
	if repo.lastFilter.Limit != 6 {
		t.Fatalf("expected limit 6, got %d", repo.lastFilter.Limit)
	}
}

func TestProductServiceGetByIDNotFound(t *testing.T) {
	svc := NewProductService(zap.NewNop(), newMockProductRepo())
	if _, err := svc.GetByID(context.Background(), "missing"); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}
