package printing

import (
	"time"

	"github.com/google/uuid"
	tradeapp "github.com/rotem1230/gal1/internal/application/trade"
	"github.com/rotem1230/gal1/internal/domain/shared"
	infra "github.com/rotem1230/gal1/internal/infrastructure/printing"
)

// DocumentQuery selects the document variant from the query string
type DocumentQuery struct {
	Type string `form:"type" binding:"omitempty,max=32"`
}

// Mode resolves the requested variant; empty means warehouse
func (q DocumentQuery) Mode() infra.Mode {
	return infra.ParseMode(q.Type)
}

// CartDocumentQuery settles the session cart and prints it
type CartDocumentQuery struct {
	DocumentQuery
	CustomerID string `form:"customer_id" binding:"required,uuid"`
}

// Customer returns the parsed customer id
func (q CartDocumentQuery) Customer() (uuid.UUID, error) {
	id, err := uuid.Parse(q.CustomerID)
	if err != nil {
		return uuid.Nil, shared.NewValidationError("customer_id must be a UUID")
	}
	return id, nil
}

// Document is a rendered PDF ready to be sent to the client
type Document struct {
	OrderID    uuid.UUID
	Mode       infra.Mode
	Filename   string
	Data       []byte
	Pages      int
	StoredPath string
	RenderedIn time.Duration
}

// ContentType of every rendered document
const ContentType = "application/pdf"

// toLayoutDocument maps an order snapshot onto the printable document
func toLayoutDocument(snap *tradeapp.Snapshot) infra.Document {
	lines := make([]infra.Line, 0, len(snap.Items))
	for _, item := range snap.Items {
		lines = append(lines, infra.Line{
			Name:      item.DisplayName(),
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal,
		})
	}
	return infra.Document{
		Date: snap.Date,
		Customer: infra.Customer{
			Name:    snap.Customer.Name,
			Address: snap.Customer.Address,
			Phone:   snap.Customer.Phone,
		},
		Lines: lines,
		Total: snap.Total,
	}
}
