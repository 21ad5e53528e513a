package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rotem1230/gal1/internal/domain/catalog"
	"github.com/rotem1230/gal1/internal/domain/pricing"
	"github.com/rotem1230/gal1/internal/domain/shared"
)

// LineItem is a group of identical entries resolved against the catalog
type LineItem struct {
	ProductID     uuid.UUID    `json:"product_id"`
	VariationID   *uuid.UUID   `json:"variation_id,omitempty"`
	ProductName   string       `json:"product_name"`
	VariationName string       `json:"variation_name,omitempty"`
	Quantity      int          `json:"quantity"`
	UnitPrice     pricing.Pair `json:"unit_price"`
	LineTotal     pricing.Pair `json:"line_total"`
}

// DisplayName is the product name with the variation label in parentheses
func (li LineItem) DisplayName() string {
	if li.VariationName == "" {
		return li.ProductName
	}
	return li.ProductName + " (" + li.VariationName + ")"
}

// Aggregation is the grouped view of a cart
type Aggregation struct {
	Items []LineItem   `json:"items"`
	Total pricing.Pair `json:"total"`
	// Dropped lists products that no longer exist in the catalog
	Dropped []uuid.UUID `json:"-"`
}

// IsEmpty reports whether no line item survived aggregation
func (a *Aggregation) IsEmpty() bool {
	return len(a.Items) == 0
}

// Quantity returns the total number of units
func (a *Aggregation) Quantity() int {
	n := 0
	for _, li := range a.Items {
		n += li.Quantity
	}
	return n
}

type group struct {
	first Entry
	count int
}

// Aggregate groups entries by (product, variation) in first-seen order.
// Each group is priced with the frozen price of its first entry. Groups whose
// product is gone are dropped; a vanished variation leaves an empty label.
func Aggregate(ctx context.Context, entries []Entry, reader catalog.CatalogReader) (*Aggregation, error) {
	var order []Key
	groups := make(map[Key]*group)
	for _, e := range entries {
		k := e.Key()
		g, ok := groups[k]
		if !ok {
			g = &group{first: e}
			groups[k] = g
			order = append(order, k)
		}
		g.count++
	}

	products := make(map[uuid.UUID]*catalog.Product)
	missing := make(map[uuid.UUID]bool)
	agg := &Aggregation{Items: make([]LineItem, 0, len(order)), Total: pricing.Zero}

	for _, k := range order {
		if missing[k.ProductID] {
			continue
		}
		product, ok := products[k.ProductID]
		if !ok {
			p, err := reader.FindByID(ctx, k.ProductID)
			if err != nil {
				if errors.Is(err, shared.ErrNotFound) {
					missing[k.ProductID] = true
					agg.Dropped = append(agg.Dropped, k.ProductID)
					continue
				}
				return nil, err
			}
			product = p
			products[k.ProductID] = p
		}

		g := groups[k]
		item := LineItem{
			ProductID:   k.ProductID,
			VariationID: g.first.VariationID,
			ProductName: product.Name,
			Quantity:    g.count,
			UnitPrice:   g.first.Price,
			LineTotal:   g.first.Price.Mul(g.count),
		}
		if g.first.VariationID != nil {
			if v, found := product.Variation(*g.first.VariationID); found {
				item.VariationName = v.Name
			}
		}

		agg.Items = append(agg.Items, item)
		agg.Total = agg.Total.Add(item.LineTotal)
	}

	return agg, nil
}
