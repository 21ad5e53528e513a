package trade

import (
	"time"

	"github.com/google/uuid"
	"github.com/rotem1230/gal1/internal/domain/cart"
	"github.com/rotem1230/gal1/internal/domain/pricing"
	"github.com/rotem1230/gal1/internal/domain/shared"
	"github.com/rotem1230/gal1/internal/domain/trade"
)

// SettleRequest settles the session cart for a customer
type SettleRequest struct {
	CustomerID uuid.UUID `json:"customer_id" binding:"required"`
}

// HistoryFilter represents the order history query string
type HistoryFilter struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by" binding:"omitempty,oneof=date created_at total_with_vat total_without_vat"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

func (f HistoryFilter) toDomain() shared.Filter {
	filter := shared.DefaultFilter()
	filter.OrderBy = "date"
	if f.Page > 0 {
		filter.Page = f.Page
	}
	if f.PageSize > 0 {
		filter.PageSize = f.PageSize
	}
	if f.OrderBy != "" {
		filter.OrderBy = f.OrderBy
	}
	if f.OrderDir != "" {
		filter.OrderDir = f.OrderDir
	}
	return filter
}

// CustomerInfo is the addressee block of an order document
type CustomerInfo struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Address string    `json:"address,omitempty"`
	Phone   string    `json:"phone,omitempty"`
}

// Snapshot is an order rebuilt from its stored rows. It never consults the
// live catalog, so it survives product deletion and price changes.
type Snapshot struct {
	OrderID  uuid.UUID       `json:"order_id"`
	Date     time.Time       `json:"date"`
	Customer CustomerInfo    `json:"customer"`
	Items    []cart.LineItem `json:"items"`
	Total    pricing.Pair    `json:"total"`
}

// OrderSummary is a row of the order history
type OrderSummary struct {
	ID           uuid.UUID    `json:"id"`
	Date         time.Time    `json:"date"`
	CustomerID   uuid.UUID    `json:"customer_id"`
	CustomerName string       `json:"customer_name"`
	Total        pricing.Pair `json:"total"`
}

// OrderResponse is returned after a settlement
type OrderResponse struct {
	ID         uuid.UUID       `json:"id"`
	Date       time.Time       `json:"date"`
	CustomerID uuid.UUID       `json:"customer_id"`
	Items      []cart.LineItem `json:"items"`
	Total      pricing.Pair    `json:"total"`
}

// ToOrderResponse pairs a new order with the aggregation it was built from
func ToOrderResponse(o *trade.Order, agg *cart.Aggregation) OrderResponse {
	return OrderResponse{
		ID:         o.ID,
		Date:       o.Date,
		CustomerID: o.CustomerID,
		Items:      agg.Items,
		Total:      o.Total,
	}
}

func toSummary(o *trade.Order) OrderSummary {
	return OrderSummary{
		ID:           o.ID,
		Date:         o.Date,
		CustomerID:   o.CustomerID,
		CustomerName: o.CustomerName,
		Total:        o.Total,
	}
}
