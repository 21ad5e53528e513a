package trade

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotem1230/gal1/internal/domain/cart"
	"github.com/rotem1230/gal1/internal/domain/pricing"
	"github.com/rotem1230/gal1/internal/domain/shared"
)

// Order is an immutable record of a settled cart
type Order struct {
	shared.BaseEntity
	Date       time.Time
	CustomerID uuid.UUID
	Total      pricing.Pair
	Items      []OrderItem
	// CustomerName is filled by listing queries only
	CustomerName string
}

// OrderItem is one line of an order. ProductName is a snapshot that already
// carries the variation label; ProductID is not enforced against the catalog.
type OrderItem struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	ProductID   uuid.UUID
	Quantity    int
	Price       pricing.Pair
	ProductName string
}

// NewOrder snapshots an aggregation into a new order for the customer
func NewOrder(customerID uuid.UUID, agg *cart.Aggregation, now time.Time) (*Order, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewValidationError("no customer selected")
	}
	if agg == nil || agg.IsEmpty() {
		return nil, shared.NewValidationError("cart is empty")
	}

	order := &Order{
		BaseEntity: shared.NewBaseEntityAt(now),
		Date:       now,
		CustomerID: customerID,
		Total:      agg.Total,
		Items:      make([]OrderItem, 0, len(agg.Items)),
	}
	for _, li := range agg.Items {
		order.Items = append(order.Items, OrderItem{
			ID:          uuid.New(),
			OrderID:     order.ID,
			ProductID:   li.ProductID,
			Quantity:    li.Quantity,
			Price:       li.UnitPrice,
			ProductName: li.DisplayName(),
		})
	}
	return order, nil
}

// LineItems rebuilds aggregated lines from the stored items
func (o *Order) LineItems() []cart.LineItem {
	items := make([]cart.LineItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, cart.LineItem{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.Price,
			LineTotal:   it.Price.Mul(it.Quantity),
		})
	}
	return items
}

// Repository defines persistence for orders. Save writes the order and its
// items atomically; Delete removes both as a unit.
type Repository interface {
	Save(ctx context.Context, order *Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	// FindAll lists orders newest first with customer names populated
	FindAll(ctx context.Context, filter shared.Filter) ([]Order, int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
