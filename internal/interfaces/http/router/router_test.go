package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestNewRouter(t *testing.T) {
	t.Run("defaults to v1", func(t *testing.T) {
		r := NewRouter(gin.New())
		assert.Equal(t, "v1", r.apiVersion)
		assert.Empty(t, r.registrars)
	})

	t.Run("custom version", func(t *testing.T) {
		r := NewRouter(gin.New(), WithAPIVersion("v2"))
		assert.Equal(t, "v2", r.apiVersion)
	})
}

func TestRouterSetup(t *testing.T) {
	t.Run("mounts groups under the version prefix", func(t *testing.T) {
		engine := gin.New()
		orders := NewDomainGroup("orders", "/orders").
			GET("", func(c *gin.Context) { c.String(http.StatusOK, "history") })

		NewRouter(engine, WithAPIVersion("v2")).Register(orders).Setup()

		w := serve(engine, http.MethodGet, "/api/v2/orders")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "history", w.Body.String())
		assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodGet, "/api/v1/orders").Code)
	})

	t.Run("api middleware runs only for api routes", func(t *testing.T) {
		engine := gin.New()
		engine.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
		mark := func(c *gin.Context) {
			c.Header("X-Api", "1")
			c.Next()
		}
		cart := NewDomainGroup("cart", "/cart").
			GET("", func(c *gin.Context) { c.String(http.StatusOK, "cart") })

		NewRouter(engine, WithAPIMiddleware(mark)).Register(cart).Setup()

		assert.Equal(t, "1", serve(engine, http.MethodGet, "/api/v1/cart").Header().Get("X-Api"))
		assert.Empty(t, serve(engine, http.MethodGet, "/health").Header().Get("X-Api"))
	})
}

func TestDomainGroup(t *testing.T) {
	t.Run("name and prefix", func(t *testing.T) {
		g := NewDomainGroup("products", "/products")
		assert.Equal(t, "products", g.Name())
		assert.Equal(t, "/products", g.Prefix())
	})

	t.Run("registers every method", func(t *testing.T) {
		engine := gin.New()
		ok := func(c *gin.Context) { c.String(http.StatusOK, c.Request.Method) }
		NewDomainGroup("categories", "/categories").
			GET("/:id", ok).
			POST("", ok).
			PUT("/:id", ok).
			DELETE("/:id", ok).
			RegisterRoutes(engine.Group("/api/v1"))

		tests := []struct {
			method string
			path   string
		}{
			{http.MethodGet, "/api/v1/categories/1"},
			{http.MethodPost, "/api/v1/categories"},
			{http.MethodPut, "/api/v1/categories/1"},
			{http.MethodDelete, "/api/v1/categories/1"},
		}
		for _, tt := range tests {
			w := serve(engine, tt.method, tt.path)
			assert.Equal(t, http.StatusOK, w.Code, "%s %s", tt.method, tt.path)
			assert.Equal(t, tt.method, w.Body.String())
		}
	})

	t.Run("static segment next to a parameter", func(t *testing.T) {
		engine := gin.New()
		NewDomainGroup("products", "/products").
			GET("/search", func(c *gin.Context) { c.String(http.StatusOK, "search") }).
			GET("/:id", func(c *gin.Context) { c.String(http.StatusOK, "id="+c.Param("id")) }).
			RegisterRoutes(engine.Group("/api/v1"))

		assert.Equal(t, "search", serve(engine, http.MethodGet, "/api/v1/products/search").Body.String())
		assert.Equal(t, "id=42", serve(engine, http.MethodGet, "/api/v1/products/42").Body.String())
	})

	t.Run("group middleware", func(t *testing.T) {
		engine := gin.New()
		NewDomainGroup("bulk", "/bulk").
			Use(func(c *gin.Context) {
				c.Header("X-Bulk", "applied")
				c.Next()
			}).
			GET("/export", func(c *gin.Context) { c.Status(http.StatusOK) }).
			RegisterRoutes(engine.Group("/api/v1"))

		assert.Equal(t, "applied", serve(engine, http.MethodGet, "/api/v1/bulk/export").Header().Get("X-Bulk"))
	})
}
