package service

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"agrimarket/internal/domain"
)

// CartService guarda el carrito de cada perfil como un hash de redis con un
// snapshot del producto por línea.
type CartService struct {
	logger   *zap.Logger
	store    cartStore
	products *ProductService
	ttl      time.Duration
}

type cartStore interface {
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	HDel(ctx context.Context, key string, fields ...string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

func NewCartService(logger *zap.Logger, store cartStore, products *ProductService) *CartService {
	return &CartService{
		logger:   logger,
		store:    store,
		products: products,
		ttl:      cartTTL,
	}
}

var (
	ErrCartNotConfigured = errors.New("cart service not configured")
	ErrCartInvalidInput  = errors.New("cart input invalid")
)

const (
	cartKeyPrefix = "cart:"
	cartTTL       = 7 * 24 * time.Hour
)

// Add incrementa la cantidad del producto en el carrito, creando la línea con
// un snapshot de nombre y precio si no existía.
func (s *CartService) Add(ctx context.Context, profileID, productID string, quantity int) (domain.CartItem, error) {
	if s == nil || s.store == nil || s.products == nil {
		return domain.CartItem{}, ErrCartNotConfigured
	}
	if profileID == "" || productID == "" || quantity <= 0 {
		return domain.CartItem{}, ErrCartInvalidInput
	}

	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return domain.CartItem{}, err
	}

	key := cartKeyPrefix + profileID
	item := domain.CartItem{
		ProductID: product.ID,
		Name:      product.Name,
		Price:     product.Price,
		Currency:  product.Currency,
		Quantity:  quantity,
	}
	if raw, err := s.store.HGetAll(ctx, key).Result(); err == nil {
		if prev, ok := raw[product.ID]; ok {
			var existing domain.CartItem
			if err := json.Unmarshal([]byte(prev), &existing); err == nil {
				item.Quantity += existing.Quantity
			}
		}
	}

	payload, err := json.Marshal(item)
	if err != nil {
		return domain.CartItem{}, err
	}
	if err := s.store.HSet(ctx, key, product.ID, string(payload)).Err(); err != nil {
		return domain.CartItem{}, err
	}
	if err := s.store.Expire(ctx, key, s.ttl).Err(); err != nil && s.logger != nil {
		s.logger.Warn("cart expire failed", zap.Error(err), zap.String("profile_id", profileID))
	}
	return item, nil
}

func (s *CartService) Remove(ctx context.Context, profileID, productID string) error {
	if s == nil || s.store == nil {
		return ErrCartNotConfigured
	}
	if profileID == "" || productID == "" {
		return ErrCartInvalidInput
	}
	return s.store.HDel(ctx, cartKeyPrefix+profileID, productID).Err()
}

// List devuelve las líneas del carrito ordenadas por nombre de producto.
func (s *CartService) List(ctx context.Context, profileID string) ([]domain.CartItem, error) {
	if s == nil || s.store == nil {
		return nil, ErrCartNotConfigured
	}
	if profileID == "" {
		return nil, ErrCartInvalidInput
	}

	raw, err := s.store.HGetAll(ctx, cartKeyPrefix+profileID).Result()
	if err != nil {
		return nil, err
	}

	items := make([]domain.CartItem, 0, len(raw))
	for _, payload := range raw {
		var item domain.CartItem
		if err := json.Unmarshal([]byte(payload), &item); err != nil {
			if s.logger != nil {
				s.logger.Warn("cart entry corrupted, skipping", zap.Error(err), zap.String("profile_id", profileID))
			}
			continue
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

// Total suma precio por cantidad de todas las líneas.
func (s *CartService) Total(ctx context.Context, profileID string) (float64, error) {
	items, err := s.List(ctx, profileID)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, item := range items {
		total += item.Price * float64(item.Quantity)
	}
	return total, nil
}
