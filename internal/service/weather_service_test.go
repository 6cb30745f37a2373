package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"agrimarket/internal/cache"
	"agrimarket/internal/domain"
	"agrimarket/internal/weather"
)

type mockWeatherRepo struct {
	entries   []domain.WeatherEntry
	lastFrom  string
	lastLimit int
	upserts   []domain.WeatherEntry
}

func (m *mockWeatherRepo) ListFromDate(_ context.Context, location, fromDate string, limit int) ([]domain.WeatherEntry, error) {
	m.lastFrom = fromDate
	m.lastLimit = limit
	var out []domain.WeatherEntry
	for _, e := range m.entries {
		if e.Location == location {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockWeatherRepo) Upsert(_ context.Context, entry domain.WeatherEntry) error {
	m.upserts = append(m.upserts, entry)
	return nil
}

func TestWeatherServiceListStoredUsesToday(t *testing.T) {
	repo := &mockWeatherRepo{entries: []domain.WeatherEntry{{Location: "Lagos", Date: "2026-08-30"}}}
	svc := NewWeatherService(zap.NewNop(), repo, nil, nil)
	svc.now = func() time.Time { return time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC) }

	entries, err := svc.ListStored(context.Background(), "Lagos", 7)
	if err != nil {
		t.Fatalf("list stored: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if repo.lastFrom != "2026-08-30" {
		t.Fatalf("expected from date today, got %q", repo.lastFrom)
	}
	if repo.lastLimit != 7 {
		t.Fatalf("expected limit 7, got %d", repo.lastLimit)
	}
}

func TestWeatherServiceListStoredRequiresLocation(t *testing.T) {
	svc := NewWeatherService(zap.NewNop(), &mockWeatherRepo{}, nil, nil)
	if _, err := svc.ListStored(context.Background(), "   ", 1); !errors.Is(err, ErrLocationRequired) {
		t.Fatalf("expected ErrLocationRequired, got %v", err)
	}
}

func TestWeatherServiceForecastIsCached(t *testing.T) {
	provider := &weather.MockClient{
		Coords: weather.Coordinates{Latitude: 6.45, Longitude: 3.39, Name: "Lagos, Lagos"},
		ForecastValue: domain.Forecast{
			Location: "Lagos, Lagos",
			Current:  domain.ForecastPoint{Temperature: 31, WeatherCode: 2},
		},
	}
	svc := NewWeatherService(zap.NewNop(), nil, provider, cache.NewMemoryCache())

	first, err := svc.LiveForecast(context.Background(), "Lagos")
	if err != nil {
		t.Fatalf("first forecast: %v", err)
	}
	second, err := svc.LiveForecast(context.Background(), "Lagos")
	if err != nil {
		t.Fatalf("second forecast: %v", err)
	}

	if provider.ForecastCalls != 1 {
		t.Fatalf("expected cached second read, provider called %d times", provider.ForecastCalls)
	}
	if first.Current.Temperature != 31 || second.Current.Temperature != 31 {
		t.Fatalf("forecast mismatch: %+v vs %+v", first.Current, second.Current)
	}
}

func TestWeatherServiceGeocodeFailurePropagates(t *testing.T) {
	provider := &weather.MockClient{GeocodeErr: weather.ErrPlaceNotFound}
	svc := NewWeatherService(zap.NewNop(), nil, provider, nil)

	if _, err := svc.LiveForecast(context.Background(), "Atlantis"); !errors.Is(err, weather.ErrPlaceNotFound) {
		t.Fatalf("expected ErrPlaceNotFound, got %v", err)
	}
}
