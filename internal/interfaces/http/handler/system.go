package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rotem1230/gal1/internal/interfaces/http/dto"
)

// HealthCheck probes one dependency
type HealthCheck func(ctx context.Context) error

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status   string            `json:"status"`
	Time     time.Time         `json:"time"`
	Printing bool              `json:"printing"`
	Checks   map[string]string `json:"checks,omitempty"`
}

// SystemHandler serves liveness information
type SystemHandler struct {
	BaseHandler
	checks   map[string]HealthCheck
	printing bool
	now      func() time.Time
}

// NewSystemHandler creates a SystemHandler. printing reports whether PDF
// rendering is configured; checks are run on every health request.
func NewSystemHandler(printing bool, checks map[string]HealthCheck) *SystemHandler {
	return &SystemHandler{checks: checks, printing: printing, now: time.Now}
}

// Health answers 200 when every check passes and 503 otherwise
// GET /health
func (h *SystemHandler) Health(c *gin.Context) {
	resp := HealthResponse{Status: "ok", Time: h.now().UTC(), Printing: h.printing}
	if len(h.checks) > 0 {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		resp.Checks = make(map[string]string, len(h.checks))
		for name, check := range h.checks {
			if err := check(ctx); err != nil {
				resp.Checks[name] = err.Error()
				resp.Status = "degraded"
				continue
			}
			resp.Checks[name] = "ok"
		}
	}

	if resp.Status != "ok" {
		c.JSON(http.StatusServiceUnavailable, dto.Response{Success: false, Data: resp})
		return
	}
	h.Success(c, resp)
}

// NoRoute answers unknown paths with the standard envelope
func (h *SystemHandler) NoRoute(c *gin.Context) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeRouteNotFound, "route not found")
}
