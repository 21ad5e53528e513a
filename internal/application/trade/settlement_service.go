// Package trade turns carts into orders and reads orders back.
package trade

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotem1230/gal1/internal/domain/cart"
	"github.com/rotem1230/gal1/internal/domain/partner"
	"github.com/rotem1230/gal1/internal/domain/shared"
	"github.com/rotem1230/gal1/internal/domain/trade"
	"github.com/rotem1230/gal1/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// CartAggregator yields the grouped view of a session cart
type CartAggregator interface {
	Aggregate(ctx context.Context, session cart.Session) (*cart.Aggregation, error)
}

// Metrics records settlement counters
type Metrics interface {
	RecordOrderSettled(ctx context.Context, items int, totalWithVAT decimal.Decimal)
}

// SettlementService records orders from carts and serves them back
type SettlementService struct {
	orders    trade.Repository
	customers partner.CustomerRepository
	carts     CartAggregator
	metrics   Metrics
	logger    *zap.Logger
	now       func() time.Time
}

// SettlementOption configures a SettlementService
type SettlementOption func(*SettlementService)

// WithMetrics sets the settlement counters
func WithMetrics(m Metrics) SettlementOption {
	return func(s *SettlementService) {
		s.metrics = m
	}
}

// WithClock overrides the order timestamp source
func WithClock(now func() time.Time) SettlementOption {
	return func(s *SettlementService) {
		s.now = now
	}
}

// NewSettlementService creates a new SettlementService
func NewSettlementService(
	orders trade.Repository,
	customers partner.CustomerRepository,
	carts CartAggregator,
	logger *zap.Logger,
	opts ...SettlementOption,
) *SettlementService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &SettlementService{
		orders:    orders,
		customers: customers,
		carts:     carts,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SettleNew records the session cart as an order for the customer. The cart
// is left as is; calling twice records two orders.
func (s *SettlementService) SettleNew(ctx context.Context, session cart.Session, customerID uuid.UUID) (order *trade.Order, agg *cart.Aggregation, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "settlement", "SettleNew",
		attribute.String("customer_id", customerID.String()))
	defer func() { telemetry.EndSpan(span, err) }()

	if customerID == uuid.Nil {
		return nil, nil, shared.NewValidationError("no customer selected")
	}
	customer, err := s.customers.FindByID(ctx, customerID)
	if err != nil {
		return nil, nil, err
	}

	agg, err = s.carts.Aggregate(ctx, session)
	if err != nil {
		return nil, nil, err
	}
	order, err = trade.NewOrder(customer.ID, agg, s.now().UTC())
	if err != nil {
		return nil, nil, err
	}
	if err = s.orders.Save(ctx, order); err != nil {
		return nil, nil, err
	}
	order.CustomerName = customer.Name
	span.SetAttributes(attribute.String("order_id", order.ID.String()))

	if s.metrics != nil {
		s.metrics.RecordOrderSettled(ctx, len(order.Items), order.Total.WithVAT)
	}
	s.logger.Info("Order settled",
		zap.String("order_id", order.ID.String()),
		zap.String("customer_id", customerID.String()),
		zap.Int("items", len(order.Items)),
		zap.String("total_with_vat", order.Total.WithVAT.StringFixed(2)),
	)
	return order, agg, nil
}

// Reopen rebuilds an order from its stored rows without writing anything
func (s *SettlementService) Reopen(ctx context.Context, orderID uuid.UUID) (*Snapshot, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return s.SnapshotOf(ctx, order)
}

// SnapshotOf builds the document view of an order
func (s *SettlementService) SnapshotOf(ctx context.Context, order *trade.Order) (*Snapshot, error) {
	info, err := s.customerInfo(ctx, order.CustomerID)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		OrderID:  order.ID,
		Date:     order.Date,
		Customer: info,
		Items:    order.LineItems(),
		Total:    order.Total,
	}, nil
}

// customerInfo tolerates a customer row that no longer exists
func (s *SettlementService) customerInfo(ctx context.Context, id uuid.UUID) (CustomerInfo, error) {
	customer, err := s.customers.FindByID(ctx, id)
	if err != nil {
		if shared.IsNotFound(err) {
			s.logger.Warn("Order customer not found", zap.String("customer_id", id.String()))
			return CustomerInfo{ID: id}, nil
		}
		return CustomerInfo{}, err
	}
	return CustomerInfo{
		ID:      customer.ID,
		Name:    customer.Name,
		Address: customer.Address,
		Phone:   customer.Phone,
	}, nil
}

// History lists orders newest first
func (s *SettlementService) History(ctx context.Context, filter HistoryFilter) (*shared.Paginated[OrderSummary], error) {
	f := filter.toDomain()
	orders, total, err := s.orders.FindAll(ctx, f)
	if err != nil {
		return nil, err
	}
	items := make([]OrderSummary, len(orders))
	for i := range orders {
		items[i] = toSummary(&orders[i])
	}
	page := shared.NewPaginated(items, total, f.Page, f.PageSize)
	return &page, nil
}

// Delete removes an order together with its items
func (s *SettlementService) Delete(ctx context.Context, orderID uuid.UUID) error {
	if err := s.orders.Delete(ctx, orderID); err != nil {
		return err
	}
	s.logger.Info("Order deleted", zap.String("order_id", orderID.String()))
	return nil
}
