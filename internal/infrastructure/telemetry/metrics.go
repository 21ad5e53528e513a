package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/rotem1230/gal1/internal/infrastructure/config"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"
)

const defaultExportInterval = 60 * time.Second

// MeterProvider wraps the OpenTelemetry MeterProvider with lifecycle management.
type MeterProvider struct {
	provider *sdkmetric.MeterProvider
	logger   *zap.Logger
}

// NewMeterProvider exports metrics over OTLP when both telemetry and metrics
// are enabled; otherwise meters come from the global no-op provider.
func NewMeterProvider(ctx context.Context, cfg config.TelemetryConfig, logger *zap.Logger) (*MeterProvider, error) {
	mp := &MeterProvider{logger: logger}
	if !cfg.Enabled || !cfg.MetricsEnabled {
		logger.Info("Metrics disabled, using no-op meter provider")
		return mp, nil
	}

	exporterOpts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(cfg.CollectorEndpoint),
	}
	if cfg.Insecure {
		exporterOpts = append(exporterOpts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, exporterOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
	}

	res, err := newResource(cfg.ServiceName)
	if err != nil {
		return nil, err
	}

	mp.provider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter,
			sdkmetric.WithInterval(defaultExportInterval))),
	)
	otel.SetMeterProvider(mp.provider)

	logger.Info("OpenTelemetry MeterProvider initialized",
		zap.String("collector_endpoint", cfg.CollectorEndpoint),
		zap.String("service_name", cfg.ServiceName),
	)
	return mp, nil
}

// Shutdown flushes pending metrics and stops the reader.
func (mp *MeterProvider) Shutdown(ctx context.Context) error {
	if mp.provider == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := mp.provider.Shutdown(shutdownCtx); err != nil {
		mp.logger.Error("Error shutting down meter provider", zap.Error(err))
		return fmt.Errorf("failed to shutdown meter provider: %w", err)
	}
	return nil
}

// Meter returns a named meter from the provider.
func (mp *MeterProvider) Meter(name string, opts ...metric.MeterOption) metric.Meter {
	if mp.provider == nil {
		return otel.GetMeterProvider().Meter(name, opts...)
	}
	return mp.provider.Meter(name, opts...)
}

// IsEnabled returns whether metrics are exported.
func (mp *MeterProvider) IsEnabled() bool {
	return mp.provider != nil
}

// Counter is a monotonically increasing metric.
type Counter struct {
	counter metric.Int64Counter
}

// NewCounter creates a new Counter metric.
func NewCounter(meter metric.Meter, name, description, unit string) (*Counter, error) {
	c, err := meter.Int64Counter(name, metric.WithDescription(description), metric.WithUnit(unit))
	if err != nil {
		return nil, fmt.Errorf("failed to create counter %s: %w", name, err)
	}
	return &Counter{counter: c}, nil
}

// Add increments the counter by value.
func (c *Counter) Add(ctx context.Context, value int64, attrs ...attribute.KeyValue) {
	c.counter.Add(ctx, value, metric.WithAttributes(attrs...))
}

// Inc increments the counter by 1.
func (c *Counter) Inc(ctx context.Context, attrs ...attribute.KeyValue) {
	c.counter.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// Histogram records a distribution.
type Histogram struct {
	histogram metric.Float64Histogram
}

// HistogramOpts provides options for creating a histogram.
type HistogramOpts struct {
	Name        string
	Description string
	Unit        string
	Boundaries  []float64
}

// NewHistogram creates a new Histogram metric.
func NewHistogram(meter metric.Meter, opts HistogramOpts) (*Histogram, error) {
	histogramOpts := []metric.Float64HistogramOption{
		metric.WithDescription(opts.Description),
		metric.WithUnit(opts.Unit),
	}
	if len(opts.Boundaries) > 0 {
		histogramOpts = append(histogramOpts, metric.WithExplicitBucketBoundaries(opts.Boundaries...))
	}
	h, err := meter.Float64Histogram(opts.Name, histogramOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create histogram %s: %w", opts.Name, err)
	}
	return &Histogram{histogram: h}, nil
}

// Record records a value to the histogram.
func (h *Histogram) Record(ctx context.Context, value float64, attrs ...attribute.KeyValue) {
	h.histogram.Record(ctx, value, metric.WithAttributes(attrs...))
}

// RecordDuration records a duration in seconds.
func (h *Histogram) RecordDuration(ctx context.Context, d time.Duration, attrs ...attribute.KeyValue) {
	h.histogram.Record(ctx, d.Seconds(), metric.WithAttributes(attrs...))
}

// Attribute keys shared by the shop metrics.
var (
	AttrDocumentMode   = attribute.Key("document_mode")
	AttrEntity         = attribute.Key("entity")
	AttrHTTPMethod     = attribute.Key("http.method")
	AttrHTTPRoute      = attribute.Key("http.route")
	AttrHTTPStatusCode = attribute.Key("http.status_code")
)

// Histogram bucket boundaries.
var (
	// HTTPDurationBuckets are in seconds
	HTTPDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
	// OrderValueBuckets are in shekels including VAT
	OrderValueBuckets = []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000}
)

// ShopMetrics holds the business counters of the shop.
type ShopMetrics struct {
	ordersSettled     *Counter
	orderLines        *Counter
	orderValue        *Histogram
	documentsRendered *Counter
	rowsImported      *Counter
}

// NewShopMetrics registers the business instruments on meter.
func NewShopMetrics(meter metric.Meter) (*ShopMetrics, error) {
	ordersSettled, err := NewCounter(meter, "orders_settled_total", "Orders recorded from carts", "{order}")
	if err != nil {
		return nil, err
	}
	orderLines, err := NewCounter(meter, "order_lines_total", "Line items recorded on orders", "{line}")
	if err != nil {
		return nil, err
	}
	orderValue, err := NewHistogram(meter, HistogramOpts{
		Name:        "order_value_with_vat",
		Description: "Order totals including VAT",
		Unit:        "ILS",
		Boundaries:  OrderValueBuckets,
	})
	if err != nil {
		return nil, err
	}
	documentsRendered, err := NewCounter(meter, "documents_rendered_total", "Order documents rendered to PDF", "{document}")
	if err != nil {
		return nil, err
	}
	rowsImported, err := NewCounter(meter, "bulk_rows_imported_total", "Rows written by catalog imports", "{row}")
	if err != nil {
		return nil, err
	}
	return &ShopMetrics{
		ordersSettled:     ordersSettled,
		orderLines:        orderLines,
		orderValue:        orderValue,
		documentsRendered: documentsRendered,
		rowsImported:      rowsImported,
	}, nil
}

// RecordOrderSettled counts a recorded order and its value.
func (m *ShopMetrics) RecordOrderSettled(ctx context.Context, items int, totalWithVAT decimal.Decimal) {
	m.ordersSettled.Inc(ctx)
	m.orderLines.Add(ctx, int64(items))
	m.orderValue.Record(ctx, totalWithVAT.InexactFloat64())
}

// RecordDocumentRendered counts a rendered PDF by mode.
func (m *ShopMetrics) RecordDocumentRendered(ctx context.Context, mode string) {
	m.documentsRendered.Inc(ctx, AttrDocumentMode.String(mode))
}

// RecordRowsImported counts rows written for one entity of an import.
func (m *ShopMetrics) RecordRowsImported(ctx context.Context, entity string, rows int64) {
	if rows <= 0 {
		return
	}
	m.rowsImported.Add(ctx, rows, AttrEntity.String(entity))
}
