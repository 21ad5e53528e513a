// Package cart models a shopping cart as an ordered log of unit insertions
// and derives grouped line items from it.
package cart

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rotem1230/gal1/internal/domain/pricing"
	"github.com/rotem1230/gal1/internal/domain/shared"
)

// Entry is one unit placed in the cart with the price frozen at insertion
type Entry struct {
	ProductID   uuid.UUID    `json:"product_id"`
	VariationID *uuid.UUID   `json:"variation_id,omitempty"`
	Price       pricing.Pair `json:"price"`
}

// Key identifies the group an entry aggregates into
func (e Entry) Key() Key {
	k := Key{ProductID: e.ProductID}
	if e.VariationID != nil {
		k.VariationID = *e.VariationID
	}
	return k
}

// Key is the (product, variation) grouping key. A zero VariationID means none.
type Key struct {
	ProductID   uuid.UUID
	VariationID uuid.UUID
}

// Session identifies whose cart an operation acts on
type Session struct {
	ID string
}

// NewSession validates a session identifier
func NewSession(id string) (Session, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Session{}, shared.NewValidationError("cart session is required")
	}
	return Session{ID: id}, nil
}

// Store keeps the entry log of each session. A missing session reads as an
// empty cart. Get then Put is the unit of atomicity; the last write wins.
type Store interface {
	Get(ctx context.Context, sessionID string) ([]Entry, error)
	Put(ctx context.Context, sessionID string, entries []Entry) error
	Delete(ctx context.Context, sessionID string) error
}

// Inspector answers questions across every stored cart
type Inspector interface {
	ReferencesProduct(ctx context.Context, productID uuid.UUID) (bool, error)
}

// Repeat returns n copies of an entry
func Repeat(e Entry, n int) []Entry {
	out := make([]Entry, n)
	for i := range out {
		out[i] = e
	}
	return out
}

// RemoveProduct drops every entry of the product, whatever its variation
func RemoveProduct(entries []Entry, productID uuid.UUID) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.ProductID != productID {
			out = append(out, e)
		}
	}
	return out
}

// SetQuantity resizes one group of the product to qty entries. The resized
// group keeps its position and the frozen data of its first entry; a quantity
// of zero removes the group. variationID is required when the product sits in
// the cart under more than one variation.
func SetQuantity(entries []Entry, productID uuid.UUID, variationID *uuid.UUID, qty int) ([]Entry, error) {
	if qty < 0 {
		return nil, shared.NewValidationError("quantity cannot be negative")
	}

	var keys []Key
	seen := make(map[Key]bool)
	for _, e := range entries {
		if e.ProductID != productID {
			continue
		}
		if k := e.Key(); !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return nil, shared.NewNotFoundError("cart product", productID)
	}

	var target Key
	switch {
	case variationID != nil:
		target = Key{ProductID: productID, VariationID: *variationID}
		if !seen[target] {
			return nil, shared.NewNotFoundError("cart variation", *variationID)
		}
	case len(keys) > 1:
		return nil, shared.NewValidationError("product has several variations in the cart, variation is required")
	default:
		target = keys[0]
	}

	out := make([]Entry, 0, len(entries)-1+qty)
	placed := false
	for _, e := range entries {
		if e.Key() != target {
			out = append(out, e)
			continue
		}
		if !placed {
			out = append(out, Repeat(e, qty)...)
			placed = true
		}
	}
	return out, nil
}
