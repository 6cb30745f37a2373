package main

import (
	"context"
	"flag"
	"log"
	"time"

	"agrimarket/internal/config"
	"agrimarket/internal/db"
	"agrimarket/internal/repository"
	"agrimarket/internal/service"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	location := flag.String("location", "Lagos", "location for the generated weather entries")
	supplierID := flag.String("supplier", "", "profile id that owns the sample products (skips products when empty)")
	flag.Parse()

	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	seeder := service.NewSeedService(
		logger,
		repository.NewPgWeatherRepository(pool),
		repository.NewPgMarketPriceRepository(pool),
		repository.NewPgProductRepository(pool),
		time.Now().UnixNano(),
	)

	if *supplierID != "" {
		if err := seeder.SeedAll(ctx, *location, *supplierID); err != nil {
			logger.Fatal("seed failed", zap.Error(err))
		}
	} else {
		logger.Info("no supplier id given, skipping sample products")
		if err := seeder.SeedWeather(ctx, *location); err != nil {
			logger.Fatal("seed weather failed", zap.Error(err))
		}
		if err := seeder.SeedMarketPrices(ctx); err != nil {
			logger.Fatal("seed market prices failed", zap.Error(err))
		}
	}

	logger.Info("seed complete", zap.String("location", *location))
}
