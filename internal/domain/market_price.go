package domain

import "time"

type MarketPrice struct {
	ID             string    `json:"id"`
	CropName       string    `json:"crop_name"`
	MarketLocation string    `json:"market_location"`
	Country        string    `json:"country"`
	PricePerKg     float64   `json:"price_per_kg"`
	Currency       string    `json:"currency"`
	Date           string    `json:"date"` // YYYY-MM-DD
	Source         string    `json:"source,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
