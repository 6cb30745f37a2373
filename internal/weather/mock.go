package weather

import (
	"context"

	"agrimarket/internal/domain"
)

// MockClient implementa Client para pruebas.
type MockClient struct {
	Coords        Coordinates
	GeocodeErr    error
	ForecastValue domain.Forecast
	ForecastErr   error

	GeocodeCalls  int
	ForecastCalls int
}

func (m *MockClient) Geocode(_ context.Context, _ string) (Coordinates, error) {
	m.GeocodeCalls++
	if m.GeocodeErr != nil {
		return Coordinates{}, m.GeocodeErr
	}
	return m.Coords, nil
}

func (m *MockClient) Forecast(_ context.Context, _ Coordinates) (domain.Forecast, error) {
	m.ForecastCalls++
	if m.ForecastErr != nil {
		return domain.Forecast{}, m.ForecastErr
	}
	return m.ForecastValue, nil
}
