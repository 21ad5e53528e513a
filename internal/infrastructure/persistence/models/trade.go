package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/rotem1230/gal1/internal/domain/pricing"
	"github.com/rotem1230/gal1/internal/domain/trade"
	"github.com/shopspring/decimal"
)

// OrderModel is the persistence model for the Order domain entity.
type OrderModel struct {
	BaseModel
	Date            time.Time        `gorm:"not null;index"`
	CustomerID      uuid.UUID        `gorm:"type:uuid;not null;index"`
	TotalWithoutVAT decimal.Decimal  `gorm:"column:total_without_vat;type:decimal(18,6);not null"`
	TotalWithVAT    decimal.Decimal  `gorm:"column:total_with_vat;type:decimal(18,6);not null"`
	Items           []OrderItemModel `gorm:"foreignKey:OrderID"`
	// CustomerName is read by the history query join only
	CustomerName string `gorm:"->;-:migration"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order entity.
func (m *OrderModel) ToDomain() *trade.Order {
	o := &trade.Order{
		BaseEntity:   m.BaseModel.ToDomain(),
		Date:         m.Date,
		CustomerID:   m.CustomerID,
		Total:        pricing.Pair{WithoutVAT: m.TotalWithoutVAT, WithVAT: m.TotalWithVAT},
		CustomerName: m.CustomerName,
	}
	for i := range m.Items {
		o.Items = append(o.Items, m.Items[i].ToDomain())
	}
	return o
}

// OrderModelFromDomain creates a new persistence model from a domain Order
// entity, items included.
func OrderModelFromDomain(o *trade.Order) *OrderModel {
	m := &OrderModel{
		Date:            o.Date,
		CustomerID:      o.CustomerID,
		TotalWithoutVAT: o.Total.WithoutVAT,
		TotalWithVAT:    o.Total.WithVAT,
	}
	m.FromDomainBaseEntity(o.BaseEntity)
	for i, it := range o.Items {
		m.Items = append(m.Items, OrderItemModel{
			ID:              it.ID,
			OrderID:         o.ID,
			ProductID:       it.ProductID,
			Position:        i,
			Quantity:        it.Quantity,
			PriceWithoutVAT: it.Price.WithoutVAT,
			PriceWithVAT:    it.Price.WithVAT,
			ProductName:     it.ProductName,
		})
	}
	return m
}

// OrderItemModel is the persistence model for an order line.
// ProductID carries no constraint so the line survives catalog deletion.
type OrderItemModel struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	Position        int             `gorm:"not null;default:0"`
	Quantity        int             `gorm:"not null"`
	PriceWithoutVAT decimal.Decimal `gorm:"column:price_without_vat;type:decimal(18,6);not null"`
	PriceWithVAT    decimal.Decimal `gorm:"column:price_with_vat;type:decimal(18,6);not null"`
	ProductName     string          `gorm:"type:varchar(500);not null"`
}

// TableName returns the table name for GORM
func (OrderItemModel) TableName() string {
	return "order_items"
}

// ToDomain converts the persistence model to a domain OrderItem.
func (m *OrderItemModel) ToDomain() trade.OrderItem {
	return trade.OrderItem{
		ID:          m.ID,
		OrderID:     m.OrderID,
		ProductID:   m.ProductID,
		Quantity:    m.Quantity,
		Price:       pricing.Pair{WithoutVAT: m.PriceWithoutVAT, WithVAT: m.PriceWithVAT},
		ProductName: m.ProductName,
	}
}

