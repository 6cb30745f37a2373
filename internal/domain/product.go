package domain

import "time"

const (
	CategorySeeds       = "seeds"
	CategoryFertilizers = "fertilizers"
	CategoryPesticides  = "pesticides"
	CategoryEquipment   = "equipment"
)

type Product struct {
	ID             string            `json:"id"`
	SupplierID     string            `json:"supplier_id"`
	Name           string            `json:"name"`
	Category       string            `json:"category"`
	Description    string            `json:"description,omitempty"`
	Price          float64           `json:"price"`
	Currency       string            `json:"currency"`
	StockQuantity  int               `json:"stock_quantity"`
	ImageURL       string            `json:"image_url,omitempty"`
	IsOrganic      bool              `json:"is_organic"`
	Specifications map[string]string `json:"specifications,omitempty"`
	SupplierName   string            `json:"supplier_name,omitempty"`
	SupplierVerified bool            `json:"supplier_verified,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
}

// CartItem es una línea del carrito con un snapshot del producto.
type CartItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Currency  string  `json:"currency"`
	Quantity  int     `json:"quantity"`
}
