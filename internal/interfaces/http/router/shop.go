package router

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/rotem1230/gal1/internal/infrastructure/logger"
	"github.com/rotem1230/gal1/internal/interfaces/http/handler"
	"github.com/rotem1230/gal1/internal/interfaces/http/middleware"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Handlers groups every handler the shop API serves
type Handlers struct {
	Cart     *handler.CartHandler
	Order    *handler.OrderHandler
	Document *handler.DocumentHandler
	Bulk     *handler.BulkHandler
	Category *handler.CategoryHandler
	Product  *handler.ProductHandler
	Customer *handler.CustomerHandler
	System   *handler.SystemHandler
}

// Options configures the engine middleware chain
type Options struct {
	ServiceName    string
	Tracing        bool
	TracerProvider trace.TracerProvider
	Meter          metric.Meter // nil disables HTTP metrics
	Profiling      bool
	Session        middleware.SessionConfig
	CORS           middleware.CORSConfig
	MaxBodySize    int64
	TrustedProxies []string
}

// DefaultOptions returns options with tracing, metrics and profiling off
func DefaultOptions() Options {
	return Options{
		ServiceName: "gal1",
		Session:     middleware.DefaultSessionConfig(),
		CORS:        middleware.DefaultCORSConfig(),
	}
}

// NewEngine builds the gin engine with the middleware chain and every shop
// route mounted under /api/v1. /health lives outside the API prefix.
func NewEngine(log *zap.Logger, opts Options, h Handlers) (*gin.Engine, error) {
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(opts.TrustedProxies); err != nil {
		return nil, fmt.Errorf("set trusted proxies: %w", err)
	}

	engine.Use(
		middleware.RequestID(),
		logger.Recovery(log),
		middleware.Secure(),
		middleware.CORSWithConfig(opts.CORS),
		middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName:    opts.ServiceName,
			Enabled:        opts.Tracing,
			TracerProvider: opts.TracerProvider,
		}),
		middleware.SpanErrorMarker(),
		middleware.HTTPMetrics(opts.Meter),
	)
	if opts.Profiling {
		engine.Use(middleware.ProfilingWithConfig(middleware.DefaultProfilingConfig()))
	}
	engine.Use(
		middleware.CartSession(opts.Session),
		logger.GinMiddleware(log),
		middleware.SpanAttributes(),
		middleware.BodyLimit(opts.MaxBodySize),
	)

	engine.GET("/health", h.System.Health)
	engine.NoRoute(h.System.NoRoute)

	r := NewRouter(engine, WithAPIVersion("v1"))
	for _, group := range shopGroups(h) {
		r.Register(group)
	}
	r.Setup()

	return engine, nil
}

func shopGroups(h Handlers) []*DomainGroup {
	cart := NewDomainGroup("cart", "/cart").
		GET("", h.Cart.View).
		DELETE("", h.Cart.Clear).
		POST("/items", h.Cart.AddItem).
		PUT("/items/:product_id", h.Cart.SetQuantity).
		DELETE("/items/:product_id", h.Cart.RemoveItem).
		POST("/finish", h.Cart.Finish)

	orders := NewDomainGroup("orders", "/orders").
		POST("", h.Order.Settle).
		GET("", h.Order.List).
		GET("/:id", h.Order.Get).
		DELETE("/:id", h.Order.Delete)

	documents := NewDomainGroup("documents", "/documents").
		GET("/cart", h.Document.Cart).
		GET("/orders/:id", h.Document.Order).
		GET("/orders/:id/preview", h.Document.Preview)

	bulk := NewDomainGroup("bulk", "/bulk").
		GET("/export", h.Bulk.Export).
		POST("/import", h.Bulk.Import)

	categories := NewDomainGroup("categories", "/categories").
		POST("", h.Category.Create).
		GET("", h.Category.List).
		GET("/:id", h.Category.GetByID).
		PUT("/:id", h.Category.Update).
		DELETE("/:id", h.Category.Delete)

	products := NewDomainGroup("products", "/products").
		POST("", h.Product.Create).
		GET("", h.Product.List).
		DELETE("", h.Product.DeleteAll).
		GET("/search", h.Product.Search).
		GET("/:id", h.Product.GetByID).
		PUT("/:id", h.Product.Update).
		DELETE("/:id", h.Product.Delete).
		POST("/:id/variations", h.Product.AddVariation).
		GET("/:id/variations", h.Product.ListVariations)

	customers := NewDomainGroup("customers", "/customers").
		POST("", h.Customer.Create).
		GET("", h.Customer.List).
		GET("/:id", h.Customer.GetByID)

	return []*DomainGroup{cart, orders, documents, bulk, categories, products, customers}
}
