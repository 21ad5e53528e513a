// Package pricing derives the tax-exclusive and tax-inclusive price of an
// amount from whichever of the two is authoritative.
package pricing

import (
	"strings"

	"github.com/rotem1230/gal1/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Scale is the number of decimal places prices are stored with
const Scale = 6

// TaxRate is the VAT rate applied to every price
var TaxRate = decimal.RequireFromString("0.18")

var taxFactor = decimal.NewFromInt(1).Add(TaxRate)

// Basis names which side of a price pair was supplied by the caller
type Basis string

const (
	Exclusive Basis = "exclusive"
	Inclusive Basis = "inclusive"
)

// Pair holds a price with and without VAT
type Pair struct {
	WithoutVAT decimal.Decimal `json:"price_without_vat"`
	WithVAT    decimal.Decimal `json:"price_with_vat"`
}

// Zero is the empty price pair
var Zero = Pair{WithoutVAT: decimal.Zero, WithVAT: decimal.Zero}

// Derive computes the full pair from one authoritative value.
// The derived side is rounded to Scale; the authoritative side is kept as given.
func Derive(value decimal.Decimal, basis Basis) (Pair, error) {
	if value.IsNegative() {
		return Pair{}, shared.NewValidationError("price cannot be negative")
	}
	switch basis {
	case Exclusive:
		return Pair{
			WithoutVAT: value,
			WithVAT:    value.Mul(taxFactor).Round(Scale),
		}, nil
	case Inclusive:
		return Pair{
			WithoutVAT: value.DivRound(taxFactor, Scale),
			WithVAT:    value,
		}, nil
	default:
		return Pair{}, shared.NewValidationError("unknown price basis " + string(basis))
	}
}

// ParseAndDerive parses a textual price and derives the pair from it
func ParseAndDerive(raw string, basis Basis) (Pair, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Pair{}, shared.NewValidationError("price is required")
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return Pair{}, shared.NewValidationError("price must be a number: " + raw)
	}
	return Derive(value, basis)
}

// Mul returns the pair scaled by a quantity
func (p Pair) Mul(qty int) Pair {
	q := decimal.NewFromInt(int64(qty))
	return Pair{
		WithoutVAT: p.WithoutVAT.Mul(q),
		WithVAT:    p.WithVAT.Mul(q),
	}
}

// Add sums two pairs
func (p Pair) Add(o Pair) Pair {
	return Pair{
		WithoutVAT: p.WithoutVAT.Add(o.WithoutVAT),
		WithVAT:    p.WithVAT.Add(o.WithVAT),
	}
}

// Div returns the per-unit pair of a line total
func (p Pair) Div(qty int) Pair {
	if qty == 0 {
		return Zero
	}
	q := decimal.NewFromInt(int64(qty))
	return Pair{
		WithoutVAT: p.WithoutVAT.DivRound(q, Scale),
		WithVAT:    p.WithVAT.DivRound(q, Scale),
	}
}

// VAT returns the tax portion of the pair
func (p Pair) VAT() decimal.Decimal {
	return p.WithVAT.Sub(p.WithoutVAT)
}

// Equal compares both sides numerically
func (p Pair) Equal(o Pair) bool {
	return p.WithoutVAT.Equal(o.WithoutVAT) && p.WithVAT.Equal(o.WithVAT)
}
