package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event is a farmers' market. Farms open stalls at events and customers
// pre-order from them.
type Event struct {
	ID          int64     `json:"id"`
	OrganizerID int64     `json:"organizer_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// HasEnded reports whether the event is over at now.
func (e *Event) HasEnded(now time.Time) bool {
	return !now.Before(e.EndsAt)
}

// StallProduct is a product offered at an event stall. Its price and stock
// are independent of the farm's own inventory.
type StallProduct struct {
	ID          int64           `json:"id"`
	EventID     int64           `json:"event_id"`
	ProductID   int64           `json:"product_id"`
	FarmID      int64           `json:"farm_id"`
	FarmName    string          `json:"farm_name"`
	ProductName string          `json:"product_name"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	CreatedAt   time.Time       `json:"created_at"`
}

// CartLine builds the pre-order cart line for quantity units of s.
func (s *StallProduct) CartLine(quantity int) CartLine {
	return CartLine{
		ProductID:   s.ProductID,
		ProductName: s.ProductName,
		SellerName:  s.FarmName,
		UnitPrice:   s.Price,
		Quantity:    quantity,
	}
}
