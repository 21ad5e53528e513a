// Package printing settles or reopens orders and turns them into PDF
// documents.
package printing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	tradeapp "github.com/rotem1230/gal1/internal/application/trade"
	"github.com/rotem1230/gal1/internal/domain/cart"
	"github.com/rotem1230/gal1/internal/domain/shared"
	"github.com/rotem1230/gal1/internal/domain/trade"
	infra "github.com/rotem1230/gal1/internal/infrastructure/printing"
	"github.com/rotem1230/gal1/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Settler is the part of the settlement service documents are built from
type Settler interface {
	SettleNew(ctx context.Context, session cart.Session, customerID uuid.UUID) (*trade.Order, *cart.Aggregation, error)
	Reopen(ctx context.Context, orderID uuid.UUID) (*tradeapp.Snapshot, error)
	SnapshotOf(ctx context.Context, order *trade.Order) (*tradeapp.Snapshot, error)
}

// Metrics records rendered documents
type Metrics interface {
	RecordDocumentRendered(ctx context.Context, mode string)
}

// Service renders order documents
type Service struct {
	settler  Settler
	engine   *infra.TemplateEngine
	renderer infra.PDFRenderer
	storage  infra.PDFStorage
	metrics  Metrics
	timeout  time.Duration
	logger   *zap.Logger
}

// Option configures a Service
type Option func(*Service)

// WithStorage keeps a copy of every rendered PDF
func WithStorage(storage infra.PDFStorage) Option {
	return func(s *Service) { s.storage = storage }
}

// WithMetrics sets the metrics recorder
func WithMetrics(m Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithTimeout bounds a single PDF conversion
func WithTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// NewService creates a document service. A nil renderer disables PDF output;
// HTML previews keep working.
func NewService(settler Settler, engine *infra.TemplateEngine, renderer infra.PDFRenderer, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		settler:  settler,
		engine:   engine,
		renderer: renderer,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enabled reports whether PDF output is available
func (s *Service) Enabled() bool {
	return s.renderer != nil
}

// RenderCart settles the session cart for the customer and prints the new
// order. The order stays committed when rendering fails.
func (s *Service) RenderCart(ctx context.Context, session cart.Session, customerID uuid.UUID, mode infra.Mode) (*Document, error) {
	if !s.Enabled() {
		return nil, errPrintingDisabled
	}

	order, _, err := s.settler.SettleNew(ctx, session, customerID)
	if err != nil {
		return nil, err
	}
	snap, err := s.settler.SnapshotOf(ctx, order)
	if err != nil {
		return nil, err
	}

	doc, err := s.render(ctx, snap, mode)
	if err != nil {
		s.logger.Error("Document rendering failed for settled order",
			zap.String("order_id", order.ID.String()),
			zap.String("mode", string(mode)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("order %s was saved but its document could not be rendered: %w", order.ID, err)
	}
	return doc, nil
}

// RenderOrder reprints a stored order without writing anything
func (s *Service) RenderOrder(ctx context.Context, orderID uuid.UUID, mode infra.Mode) (*Document, error) {
	if !s.Enabled() {
		return nil, errPrintingDisabled
	}
	snap, err := s.settler.Reopen(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return s.render(ctx, snap, mode)
}

// Preview returns the HTML of a stored order's document
func (s *Service) Preview(ctx context.Context, orderID uuid.UUID, mode infra.Mode) (string, error) {
	snap, err := s.settler.Reopen(ctx, orderID)
	if err != nil {
		return "", err
	}
	return s.engine.Render(infra.Layout(toLayoutDocument(snap), mode))
}

var errPrintingDisabled = shared.NewUnavailableError("document printing is disabled")

func (s *Service) render(ctx context.Context, snap *tradeapp.Snapshot, mode infra.Mode) (_ *Document, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "printing", "Render",
		attribute.String("order_id", snap.OrderID.String()),
		attribute.String("document_mode", string(mode)))
	defer func() { telemetry.EndSpan(span, err) }()

	page := infra.Layout(toLayoutDocument(snap), mode)
	html, err := s.engine.Render(page)
	if err != nil {
		return nil, err
	}

	result, err := s.renderer.Render(ctx, &infra.RenderRequest{
		HTML:    html,
		Title:   mode.Filename(),
		Timeout: s.timeout,
	})
	if err != nil {
		return nil, err
	}

	doc := &Document{
		OrderID:    snap.OrderID,
		Mode:       mode,
		Filename:   mode.Filename(),
		Data:       result.PDFData,
		Pages:      result.PageCount,
		RenderedIn: result.RenderDuration,
	}

	if s.storage != nil {
		stored, err := s.storage.Store(ctx, &infra.StoreRequest{
			OrderID: snap.OrderID,
			Mode:    mode,
			PDFData: result.PDFData,
			Date:    snap.Date,
		})
		if err != nil {
			s.logger.Warn("Failed to keep a copy of the document",
				zap.String("order_id", snap.OrderID.String()),
				zap.Error(err),
			)
		} else {
			doc.StoredPath = stored.Path
		}
	}

	if s.metrics != nil {
		s.metrics.RecordDocumentRendered(ctx, string(mode))
	}
	s.logger.Info("Document rendered",
		zap.String("order_id", snap.OrderID.String()),
		zap.String("mode", string(mode)),
		zap.Int("pages", doc.Pages),
		zap.Int("bytes", len(doc.Data)),
	)
	return doc, nil
}
