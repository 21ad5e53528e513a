// Package cart implements the session cart use cases: adding units at a
// frozen price, resizing and removing groups, and the aggregated cart view.
package cart

import (
	"context"

	"github.com/google/uuid"
	"github.com/rotem1230/gal1/internal/domain/cart"
	"github.com/rotem1230/gal1/internal/domain/catalog"
	"github.com/rotem1230/gal1/internal/domain/partner"
	"github.com/rotem1230/gal1/internal/domain/pricing"
	"github.com/rotem1230/gal1/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AddItemRequest adds quantity units of a product to the cart
type AddItemRequest struct {
	ProductID   uuid.UUID  `json:"product_id" binding:"required"`
	Quantity    int        `json:"quantity" binding:"required"`
	VariationID *uuid.UUID `json:"variation_id"`
	// PriceWithVAT overrides the variation price for these units
	PriceWithVAT *decimal.Decimal `json:"price_with_vat"`
}

// SetQuantityRequest resizes one product group
type SetQuantityRequest struct {
	Quantity    *int       `json:"quantity" binding:"required"`
	VariationID *uuid.UUID `json:"variation_id"`
}

// FinishRequest closes the cart for a customer
type FinishRequest struct {
	CustomerID uuid.UUID `json:"customer_id" binding:"required"`
}

// CustomerOption is a customer entry of the cart page selector
type CustomerOption struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// View is the aggregated cart with the customers it can be settled for
type View struct {
	Items     []cart.LineItem  `json:"items"`
	Total     pricing.Pair     `json:"total"`
	Quantity  int              `json:"quantity"`
	Customers []CustomerOption `json:"customers"`
}

// Service implements the cart operations
type Service struct {
	store     cart.Store
	catalog   catalog.CatalogReader
	customers partner.CustomerRepository
	logger    *zap.Logger
}

// NewService creates a new cart Service
func NewService(store cart.Store, reader catalog.CatalogReader, customers partner.CustomerRepository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:     store,
		catalog:   reader,
		customers: customers,
		logger:    logger,
	}
}

// Add appends quantity units of a product (and variation) at the price
// current at insertion time.
func (s *Service) Add(ctx context.Context, session cart.Session, req AddItemRequest) (*cart.Aggregation, error) {
	if req.Quantity < 1 {
		return nil, shared.NewValidationError("quantity must be at least 1")
	}

	product, err := s.catalog.FindByID(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	entry := cart.Entry{ProductID: product.ID, Price: product.Price}
	switch {
	case req.VariationID != nil:
		variation, ok := product.Variation(*req.VariationID)
		if !ok {
			return nil, shared.NewNotFoundError("variation", *req.VariationID)
		}
		id := variation.ID
		entry.VariationID = &id
		entry.Price = variation.Price
		if req.PriceWithVAT != nil {
			override, err := pricing.Derive(*req.PriceWithVAT, pricing.Inclusive)
			if err != nil {
				return nil, err
			}
			entry.Price = override
		}
	case product.HasVariations():
		return nil, shared.NewValidationError("product has variations, variation is required")
	}

	entries, err := s.store.Get(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	entries = append(entries, cart.Repeat(entry, req.Quantity)...)
	if err := s.store.Put(ctx, session.ID, entries); err != nil {
		return nil, err
	}

	s.logger.Debug("Cart items added",
		zap.String("session_id", session.ID),
		zap.String("product_id", product.ID.String()),
		zap.Int("quantity", req.Quantity),
	)
	return s.Aggregate(ctx, session)
}

// SetQuantity resizes the product's group in the cart. Zero removes it.
func (s *Service) SetQuantity(ctx context.Context, session cart.Session, productID uuid.UUID, req SetQuantityRequest) (*cart.Aggregation, error) {
	if req.Quantity == nil {
		return nil, shared.NewValidationError("quantity is required")
	}
	entries, err := s.store.Get(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	entries, err = cart.SetQuantity(entries, productID, req.VariationID, *req.Quantity)
	if err != nil {
		return nil, err
	}
	if err := s.store.Put(ctx, session.ID, entries); err != nil {
		return nil, err
	}
	return s.Aggregate(ctx, session)
}

// Remove drops every unit of the product, whatever its variation
func (s *Service) Remove(ctx context.Context, session cart.Session, productID uuid.UUID) (*cart.Aggregation, error) {
	entries, err := s.store.Get(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	if err := s.store.Put(ctx, session.ID, cart.RemoveProduct(entries, productID)); err != nil {
		return nil, err
	}
	return s.Aggregate(ctx, session)
}

// Clear empties the cart
func (s *Service) Clear(ctx context.Context, session cart.Session) error {
	return s.store.Delete(ctx, session.ID)
}

// Aggregate groups the session's entries into line items
func (s *Service) Aggregate(ctx context.Context, session cart.Session) (*cart.Aggregation, error) {
	entries, err := s.store.Get(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	agg, err := cart.Aggregate(ctx, entries, s.catalog)
	if err != nil {
		return nil, err
	}
	for _, id := range agg.Dropped {
		s.logger.Debug("Cart entry skipped, product no longer exists",
			zap.String("session_id", session.ID),
			zap.String("product_id", id.String()),
		)
	}
	return agg, nil
}

// View returns the cart page: line items, totals and customers by name
func (s *Service) View(ctx context.Context, session cart.Session) (*View, error) {
	agg, err := s.Aggregate(ctx, session)
	if err != nil {
		return nil, err
	}
	customers, err := s.customers.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	view := &View{
		Items:     agg.Items,
		Total:     agg.Total,
		Quantity:  agg.Quantity(),
		Customers: make([]CustomerOption, len(customers)),
	}
	for i, c := range customers {
		view.Customers[i] = CustomerOption{ID: c.ID, Name: c.Name}
	}
	return view, nil
}

// Finish checks the customer and clears the cart without recording an order
func (s *Service) Finish(ctx context.Context, session cart.Session, customerID uuid.UUID) error {
	if customerID == uuid.Nil {
		return shared.NewValidationError("no customer selected")
	}
	if _, err := s.customers.FindByID(ctx, customerID); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, session.ID); err != nil {
		return err
	}
	s.logger.Info("Cart finished",
		zap.String("session_id", session.ID),
		zap.String("customer_id", customerID.String()),
	)
	return nil
}
