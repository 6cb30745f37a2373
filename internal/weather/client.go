package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"agrimarket/internal/domain"
)

// Client resuelve coordenadas y pronósticos contra Open-Meteo.
type Client interface {
	Geocode(ctx context.Context, place string) (Coordinates, error)
	Forecast(ctx context.Context, coords Coordinates) (domain.Forecast, error)
}

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name"`
}

var (
	ErrPlaceNotFound   = errors.New("place not found")
	ErrWeatherUpstream = errors.New("weather provider request failed")
)

type HTTPClient struct {
	forecastURL  string
	geocodingURL string
	httpClient   *http.Client
	logger       *zap.Logger
}

// NewHTTPClient crea el cliente con las URLs base configuradas.
func NewHTTPClient(forecastURL, geocodingURL string, logger *zap.Logger) *HTTPClient {
	return &HTTPClient{
		forecastURL:  forecastURL,
		geocodingURL: geocodingURL,
		httpClient:   &http.Client{Timeout: 15 * time.Second},
		logger:       logger,
	}
}

type geocodeResponse struct {
	Results []struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		Name      string  `json:"name"`
		Admin1    string  `json:"admin1"`
	} `json:"results"`
}

func (c *HTTPClient) Geocode(ctx context.Context, place string) (Coordinates, error) {
	q := url.Values{}
	q.Set("name", place)
	q.Set("count", "1")
	q.Set("language", "en")
	q.Set("format", "json")

	var payload geocodeResponse
	if err := c.getJSON(ctx, c.geocodingURL+"?"+q.Encode(), &payload); err != nil {
		return Coordinates{}, err
	}
	if len(payload.Results) == 0 {
		return Coordinates{}, ErrPlaceNotFound
	}

	r := payload.Results[0]
	name := r.Name
	if r.Admin1 != "" {
		name = r.Name + ", " + r.Admin1
	}
	return Coordinates{Latitude: r.Latitude, Longitude: r.Longitude, Name: name}, nil
}

type forecastResponse struct {
	Current struct {
		Temperature float64 `json:"temperature_2m"`
		Humidity    float64 `json:"relative_humidity_2m"`
		WeatherCode int     `json:"weather_code"`
		WindSpeed   float64 `json:"wind_speed_10m"`
	} `json:"current"`
	Daily struct {
		Time        []string  `json:"time"`
		TempMax     []float64 `json:"temperature_2m_max"`
		TempMin     []float64 `json:"temperature_2m_min"`
		WeatherCode []int     `json:"weather_code"`
	} `json:"daily"`
}

func (c *HTTPClient) Forecast(ctx context.Context, coords Coordinates) (domain.Forecast, error) {
	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%.4f", coords.Latitude))
	q.Set("longitude", fmt.Sprintf("%.4f", coords.Longitude))
	q.Set("current", "temperature_2m,relative_humidity_2m,weather_code,wind_speed_10m")
	q.Set("daily", "temperature_2m_max,temperature_2m_min,weather_code")
	q.Set("timezone", "auto")

	var payload forecastResponse
	if err := c.getJSON(ctx, c.forecastURL+"?"+q.Encode(), &payload); err != nil {
		return domain.Forecast{}, err
	}

	forecast := domain.Forecast{
		Location: coords.Name,
		Current: domain.ForecastPoint{
			Temperature: int(math.Round(payload.Current.Temperature)),
			WeatherCode: payload.Current.WeatherCode,
			WindSpeed:   int(math.Round(payload.Current.WindSpeed)),
			Humidity:    int(math.Round(payload.Current.Humidity)),
		},
	}
	for i, date := range payload.Daily.Time {
		if i >= len(payload.Daily.TempMax) || i >= len(payload.Daily.TempMin) || i >= len(payload.Daily.WeatherCode) {
			break
		}
		forecast.Daily = append(forecast.Daily, domain.ForecastDay{
			Date:        date,
			TempMax:     int(math.Round(payload.Daily.TempMax[i])),
			TempMin:     int(math.Round(payload.Daily.TempMin[i])),
			WeatherCode: payload.Daily.WeatherCode[i],
		})
	}
	return forecast, nil
}

func (c *HTTPClient) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		if c.logger != nil {
			c.logger.Warn("open-meteo request failed",
				zap.Int("status", resp.StatusCode),
				zap.String("body", string(body)),
			)
		}
		return fmt.Errorf("%w: status %d", ErrWeatherUpstream, resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// CodeDescription traduce el weather_code WMO a una condición legible.
func CodeDescription(code int) string {
	switch {
	case code == 0:
		return "Clear sky"
	case code <= 3:
		return "Partly cloudy"
	case code <= 48:
		return "Foggy"
	case code <= 57:
		return "Drizzle"
	case code <= 67:
		return "Rain"
	case code <= 77:
		return "Snow"
	case code <= 82:
		return "Rain showers"
	case code <= 86:
		return "Snow showers"
	default:
		return "Thunderstorm"
	}
}
