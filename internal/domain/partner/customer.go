package partner

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rotem1230/gal1/internal/domain/shared"
)

// Customer is the addressee of an order
type Customer struct {
	shared.BaseEntity
	Name    string
	Address string
	Phone   string
	Email   string
}

// NewCustomer creates a customer; only the name is mandatory
func NewCustomer(name, address, phone, email string) (*Customer, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewValidationError("customer name is required")
	}
	email = strings.TrimSpace(email)
	if email != "" && !strings.Contains(email, "@") {
		return nil, shared.NewValidationError("invalid email address")
	}
	return &Customer{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
		Address:    strings.TrimSpace(address),
		Phone:      strings.TrimSpace(phone),
		Email:      email,
	}, nil
}

// CustomerRepository defines persistence for customers
type CustomerRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)
	// FindAll returns customers ordered by name
	FindAll(ctx context.Context) ([]Customer, error)
	Save(ctx context.Context, customer *Customer) error
}
