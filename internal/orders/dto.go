package orders

import (
	"github.com/bilsportlisens/lisensbutikk-backend/pkg/db/models"
)

// OrderDetail aggregates everything the confirmation page and the receipt
// need for one order.
type OrderDetail struct {
	Order   models.Order
	License models.License
	Club    *models.Club

	// Ordinal is the 1-based position of this order within its checkout,
	// Total the number of orders bought together.
	Ordinal int
	Total   int
}
