package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"agrimarket/internal/domain"
	"agrimarket/internal/repository"
	"agrimarket/internal/security"
)

// FarmService administra el portafolio de fincas de un agricultor.
type FarmService struct {
	logger *zap.Logger
	farms  repository.FarmRepository
}

func NewFarmService(logger *zap.Logger, farms repository.FarmRepository) *FarmService {
	return &FarmService{logger: logger, farms: farms}
}

type CreateFarmInput struct {
	Name         string
	Location     string
	SizeHectares float64
	SoilType     string
	Crops        []string
}

var (
	ErrFarmNotConfigured = errors.New("farm service not configured")
	ErrFarmInvalidInput  = errors.New("farm input invalid")
)

func (s *FarmService) Create(ctx context.Context, farmerID string, input CreateFarmInput) (domain.Farm, error) {
	if s.farms == nil {
		return domain.Farm{}, ErrFarmNotConfigured
	}

	name := strings.TrimSpace(security.SanitizeText(input.Name))
	location := strings.TrimSpace(security.SanitizeText(input.Location))
	if farmerID == "" || name == "" || location == "" {
		return domain.Farm{}, ErrFarmInvalidInput
	}
	if input.SizeHectares <= 0 {
		return domain.Farm{}, ErrFarmInvalidInput
	}

	crops := make([]string, 0, len(input.Crops))
	for _, crop := range input.Crops {
		crop = strings.TrimSpace(security.SanitizeText(crop))
		if crop != "" {
			crops = append(crops, crop)
		}
	}

	farm := domain.Farm{
		ID:           uuid.NewString(),
		FarmerID:     farmerID,
		Name:         name,
		Location:     location,
		SizeHectares: input.SizeHectares,
		SoilType:     strings.TrimSpace(input.SoilType),
		Crops:        crops,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.farms.Create(ctx, farm); err != nil {
		return domain.Farm{}, err
	}
	return farm, nil
}

func (s *FarmService) List(ctx context.Context, farmerID string) ([]domain.Farm, error) {
	if s.farms == nil {
		return nil, ErrFarmNotConfigured
	}
	if farmerID == "" {
		return nil, ErrFarmInvalidInput
	}
	return s.farms.ListByFarmerID(ctx, farmerID)
}

// Delete elimina la finca sólo si pertenece al agricultor.
func (s *FarmService) Delete(ctx context.Context, id, farmerID string) error {
	if s.farms == nil {
		return ErrFarmNotConfigured
	}
	if id == "" || farmerID == "" {
		return ErrFarmInvalidInput
	}
	return s.farms.Delete(ctx, id, farmerID)
}

// Stats resume hectáreas totales y el cultivo más frecuente del portafolio.
func (s *FarmService) Stats(ctx context.Context, farmerID string) (domain.FarmStats, error) {
	farms, err := s.List(ctx, farmerID)
	if err != nil {
		return domain.FarmStats{}, err
	}

	stats := domain.FarmStats{TotalFarms: len(farms)}
	counts := make(map[string]int)
	for _, farm := range farms {
		stats.TotalHectares += farm.SizeHectares
		for _, crop := range farm.Crops {
			counts[strings.ToLower(crop)]++
		}
	}

	best := 0
	for crop, n := range counts {
		if n > best || (n == best && crop < strings.ToLower(stats.MostCommonCrop)) {
			best = n
			stats.MostCommonCrop = crop
		}
	}
	return stats, nil
}
