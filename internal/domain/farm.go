package domain

import "time"

type Farm struct {
	ID           string    `json:"id"`
	FarmerID     string    `json:"farmer_id"`
	Name         string    `json:"name"`
	Location     string    `json:"location"`
	SizeHectares float64   `json:"size_hectares"`
	SoilType     string    `json:"soil_type,omitempty"`
	Crops        []string  `json:"crops"`
	CreatedAt    time.Time `json:"created_at"`
}

// FarmStats resume el portafolio de fincas de un agricultor.
type FarmStats struct {
	TotalFarms     int     `json:"total_farms"`
	TotalHectares  float64 `json:"total_hectares"`
	MostCommonCrop string  `json:"most_common_crop"`
}
