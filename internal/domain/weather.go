package domain

import "time"

// WeatherEntry es una fila persistida del pronóstico por ubicación y día.
type WeatherEntry struct {
	ID             string    `json:"id"`
	Location       string    `json:"location"`
	Date           string    `json:"date"` // YYYY-MM-DD
	TemperatureMin int       `json:"temperature_min"`
	TemperatureMax int       `json:"temperature_max"`
	Humidity       int       `json:"humidity"`
	Precipitation  int       `json:"precipitation"`
	WindSpeed      int       `json:"wind_speed"`
	Conditions     string    `json:"conditions"`
	Advice         string    `json:"advice,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Forecast es la respuesta del proveedor externo de clima, ya normalizada.
type Forecast struct {
	Location string        `json:"location"`
	Current  ForecastPoint `json:"current"`
	Daily    []ForecastDay `json:"daily"`
}

type ForecastPoint struct {
	Temperature int `json:"temperature"`
	WeatherCode int `json:"weather_code"`
	WindSpeed   int `json:"wind_speed"`
	Humidity    int `json:"humidity"`
}

type ForecastDay struct {
	Date        string `json:"date"`
	TempMax     int    `json:"temp_max"`
	TempMin     int    `json:"temp_min"`
	WeatherCode int    `json:"weather_code"`
}
