package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"agrimarket/internal/domain"
	"agrimarket/internal/repository"
)

// SeedService rellena datos de muestra mediante upsert sobre claves
// naturales. Sólo lo invoca el binario de seed, nunca una lectura.
type SeedService struct {
	logger   *zap.Logger
	weather  repository.WeatherRepository
	prices   repository.MarketPriceRepository
	products repository.ProductRepository
	rng      *rand.Rand
	now      func() time.Time
}

func NewSeedService(logger *zap.Logger, weather repository.WeatherRepository, prices repository.MarketPriceRepository, products repository.ProductRepository, seed int64) *SeedService {
	return &SeedService{
		logger:   logger,
		weather:  weather,
		prices:   prices,
		products: products,
		rng:      rand.New(rand.NewSource(seed)),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

var ErrSeedNotConfigured = errors.New("seed service not configured")

type priceRange struct {
	min, max float64
	currency string
}

var seedCropPrices = map[string]priceRange{
	"Rice":    {0.8, 1.5, "USD"},
	"Maize":   {0.3, 0.8, "USD"},
	"Wheat":   {0.4, 0.9, "USD"},
	"Yam":     {0.6, 1.2, "USD"},
	"Cassava": {0.2, 0.5, "USD"},
	"Tomato":  {0.5, 1.8, "USD"},
	"Onion":   {0.4, 1.0, "USD"},
	"Pepper":  {2.0, 5.0, "USD"},
}

var seedCrops = []string{"Rice", "Maize", "Wheat", "Yam", "Cassava", "Tomato", "Onion", "Pepper"}

var seedMarkets = map[string][]string{
	"Nigeria":      {"Lagos Market", "Kano Market", "Abuja Market"},
	"Kenya":        {"Nairobi Market", "Mombasa Market", "Kisumu Market"},
	"Ghana":        {"Accra Market", "Kumasi Market", "Tamale Market"},
	"South Africa": {"Johannesburg Market", "Cape Town Market", "Durban Market"},
	"Uganda":       {"Kampala Market", "Entebbe Market", "Jinja Market"},
	"Tanzania":     {"Dar es Salaam Market", "Arusha Market", "Mwanza Market"},
}

var seedCountries = []string{"Nigeria", "Kenya", "Ghana", "South Africa", "Uganda", "Tanzania"}

var seedConditions = []string{"sunny", "partly_cloudy", "cloudy", "rainy"}

// SeedAll ejecuta todos los generadores de muestra.
func (s *SeedService) SeedAll(ctx context.Context, location, supplierID string) error {
	if err := s.SeedWeather(ctx, location); err != nil {
		return fmt.Errorf("seed weather: %w", err)
	}
	if err := s.SeedMarketPrices(ctx); err != nil {
		return fmt.Errorf("seed market prices: %w", err)
	}
	if err := s.SeedProducts(ctx, supplierID); err != nil {
		return fmt.Errorf("seed products: %w", err)
	}
	return nil
}

// SeedWeather inserta siete días de clima para la ubicación indicada.
func (s *SeedService) SeedWeather(ctx context.Context, location string) error {
	if s.weather == nil {
		return ErrSeedNotConfigured
	}
	if location == "" {
		location = "Local Area"
	}

	today := s.now()
	for i := 0; i < 7; i++ {
		advice := "Monitor crop growth conditions."
		if i == 0 {
			advice = "Good day for planting. Soil moisture is optimal."
		}
		entry := domain.WeatherEntry{
			ID:             uuid.NewString(),
			Location:       location,
			Date:           today.AddDate(0, 0, i).Format("2006-01-02"),
			TemperatureMin: s.rng.Intn(10) + 20,
			TemperatureMax: s.rng.Intn(10) + 30,
			Humidity:       s.rng.Intn(30) + 60,
			Precipitation:  s.rng.Intn(20),
			WindSpeed:      s.rng.Intn(15) + 5,
			Conditions:     seedConditions[s.rng.Intn(len(seedConditions))],
			Advice:         advice,
			CreatedAt:      today,
		}
		if err := s.weather.Upsert(ctx, entry); err != nil {
			return err
		}
	}
	if s.logger != nil {
		s.logger.Info("weather sample data seeded", zap.String("location", location))
	}
	return nil
}

// SeedMarketPrices inserta un precio del día por cultivo y mercado.
func (s *SeedService) SeedMarketPrices(ctx context.Context) error {
	if s.prices == nil {
		return ErrSeedNotConfigured
	}

	today := s.now()
	date := today.Format("2006-01-02")
	count := 0
	for _, crop := range seedCrops {
		rangeInfo := seedCropPrices[crop]
		for _, country := range seedCountries {
			for _, market := range seedMarkets[country] {
				base := s.rng.Float64()*(rangeInfo.max-rangeInfo.min) + rangeInfo.min
				price := domain.MarketPrice{
					ID:             uuid.NewString(),
					CropName:       crop,
					MarketLocation: market,
					Country:        country,
					PricePerKg:     math.Round(base*100) / 100,
					Currency:       rangeInfo.currency,
					Date:           date,
					Source:         country + " Agricultural Market Board",
					CreatedAt:      today,
				}
				if err := s.prices.Upsert(ctx, price); err != nil {
					return err
				}
				count++
			}
		}
	}
	if s.logger != nil {
		s.logger.Info("market price sample data seeded", zap.Int("rows", count))
	}
	return nil
}

// SeedProducts inserta el catálogo de demostración a nombre del proveedor.
func (s *SeedService) SeedProducts(ctx context.Context, supplierID string) error {
	if s.products == nil {
		return ErrSeedNotConfigured
	}
	if supplierID == "" {
		return errors.New("supplier id required")
	}

	now := s.now()
	samples := []domain.Product{
		{
			Name:          "Premium Maize Seeds",
			Category:      domain.CategorySeeds,
			Description:   "High-yield drought-resistant maize variety suitable for all seasons",
			Price:         25.00,
			StockQuantity: 500,
			Specifications: map[string]string{
				"variety":          "Premium Hybrid",
				"germination_rate": "95%",
				"maturity":         "90-120 days",
			},
		},
		{
			Name:          "Organic Compost Fertilizer",
			Category:      domain.CategoryFertilizers,
			Description:   "100% organic compost made from farm waste and natural materials",
			Price:         15.50,
			StockQuantity: 200,
			IsOrganic:     true,
			Specifications: map[string]string{
				"n_p_k":          "3-2-2",
				"organic_matter": "85%",
				"ph":             "6.5-7.0",
			},
		},
		{
			Name:          "Bio Pesticide Spray",
			Category:      domain.CategoryPesticides,
			Description:   "Natural pest control solution safe for crops and environment",
			Price:         32.00,
			StockQuantity: 150,
			IsOrganic:     true,
			Specifications: map[string]string{
				"active_ingredient": "Neem Extract",
				"concentration":     "2%",
				"application_rate":  "2ml/L",
			},
		},
		{
			Name:          "Rice Seeds - Premium Variety",
			Category:      domain.CategorySeeds,
			Description:   "High-quality rice seeds with excellent grain quality and yield",
			Price:         18.75,
			StockQuantity: 300,
			Specifications: map[string]string{
				"variety":         "FARO 44",
				"yield_potential": "6-8 tons/ha",
				"maturity":        "120-130 days",
			},
		},
		{
			Name:          "NPK Fertilizer 20:10:10",
			Category:      domain.CategoryFertilizers,
			Description:   "Balanced fertilizer perfect for vegetable and grain crops",
			Price:         28.00,
			StockQuantity: 180,
			Specifications: map[string]string{
				"n_p_k":         "20-10-10",
				"granule_size":  "2-4mm",
				"water_soluble": "95%",
			},
		},
		{
			Name:          "Hand Weeder Tool",
			Category:      domain.CategoryEquipment,
			Description:   "Durable hand tool for efficient weed removal in small farms",
			Price:         12.50,
			StockQuantity: 75,
			Specifications: map[string]string{
				"material": "Steel",
				"handle":   "Wooden",
				"weight":   "0.8kg",
			},
		},
	}

	for _, product := range samples {
		product.ID = uuid.NewString()
		product.SupplierID = supplierID
		product.Currency = "USD"
		product.CreatedAt = now
		if err := s.products.Upsert(ctx, product); err != nil {
			return err
		}
	}
	if s.logger != nil {
		s.logger.Info("product sample data seeded", zap.Int("rows", len(samples)), zap.String("supplier_id", supplierID))
	}
	return nil
}
