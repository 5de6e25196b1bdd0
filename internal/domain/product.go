package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is an item a farm sells from its own inventory.
type Product struct {
	ID          int64           `json:"id"`
	FarmID      int64           `json:"farm_id"`
	SellerName  string          `json:"seller_name"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// CartLine builds the cart line for quantity units of p.
func (p *Product) CartLine(quantity int) CartLine {
	return CartLine{
		ProductID:   p.ID,
		ProductName: p.Name,
		SellerName:  p.SellerName,
		UnitPrice:   p.Price,
		Quantity:    quantity,
	}
}

// Product categories offered in the catalog.
var Categories = []string{
	"vegetables", "fruit", "dairy", "meat", "eggs", "bakery", "honey", "drinks", "other",
}
