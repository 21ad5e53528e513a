package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rotem1230/gal1/internal/domain/shared"
	"github.com/rotem1230/gal1/internal/interfaces/http/dto"
	"github.com/rotem1230/gal1/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newContext() (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Set(middleware.RequestIDKey, "req-1")
	return c, w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func TestHandleError(t *testing.T) {
	h := &BaseHandler{}

	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    string
		wantMessage string
	}{
		{"validation", shared.NewValidationError("quantity must be at least 1"), http.StatusBadRequest, dto.ErrCodeValidation, "quantity must be at least 1"},
		{"not found", shared.ErrNotFound, http.StatusNotFound, dto.ErrCodeNotFound, shared.ErrNotFound.Message},
		{"wrapped not found", fmt.Errorf("load order: %w", shared.ErrNotFound), http.StatusNotFound, dto.ErrCodeNotFound, shared.ErrNotFound.Message},
		{"conflict", shared.NewReferentialConflictError("category still owns products"), http.StatusConflict, dto.ErrCodeReferentialConflict, "category still owns products"},
		{"unavailable", shared.NewUnavailableError("printing is disabled"), http.StatusServiceUnavailable, dto.ErrCodeUnavailable, "printing is disabled"},
		{"unknown", errors.New("driver exploded"), http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newContext()
			h.HandleError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Equal(t, tt.wantMessage, resp.Error.Message)
			assert.Equal(t, "req-1", resp.Error.RequestID)
		})
	}

	t.Run("persistence failure hides the cause", func(t *testing.T) {
		c, w := newContext()
		h.HandleError(c, shared.NewPersistenceError(errors.New("pq: relation orders does not exist")))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "pq:")
		assert.Equal(t, dto.ErrCodePersistence, decodeResponse(t, w).Error.Code)
	})

	t.Run("details are forwarded", func(t *testing.T) {
		c, w := newContext()
		err := shared.NewValidationError("products.csv has errors").WithDetails(map[string]any{"file": "products.csv"})
		h.HandleError(c, err)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"file":"products.csv"}`, mustJSON(t, decodeResponse(t, w).Error.Details))
	})

	t.Run("nil error writes nothing", func(t *testing.T) {
		c, w := newContext()
		h.HandleError(c, nil)
		assert.Empty(t, w.Body.String())
	})
}

func jsonBody(s string) *strings.Reader {
	return strings.NewReader(s)
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return string(raw)
}

func TestBindError(t *testing.T) {
	middleware.SetupValidator()
	h := &BaseHandler{}

	t.Run("validation errors list fields", func(t *testing.T) {
		type body struct {
			Name string `json:"name" binding:"required"`
		}
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/", jsonBody(`{}`))
		c.Request.Header.Set("Content-Type", "application/json")

		var b body
		err := c.ShouldBindJSON(&b)
		require.Error(t, err)
		h.BindError(c, err)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeResponse(t, w)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		assert.Contains(t, mustJSON(t, resp.Error.Details), `"field":"name"`)
	})

	t.Run("malformed body is a bad request", func(t *testing.T) {
		c, w := newContext()
		h.BindError(c, errors.New("unexpected EOF"))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeBadRequest, decodeResponse(t, w).Error.Code)
	})

	t.Run("oversized body", func(t *testing.T) {
		c, w := newContext()
		h.BindError(c, fmt.Errorf("read body: %w", &http.MaxBytesError{Limit: 10}))

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Equal(t, dto.ErrCodeRequestTooLarge, decodeResponse(t, w).Error.Code)
	})
}

func TestAttachment(t *testing.T) {
	c, w := newContext()
	(&BaseHandler{}).Attachment(c, "הזמנה.pdf", "application/pdf", []byte("%PDF"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "filename*=utf-8''")
	assert.Equal(t, "%PDF", w.Body.String())
}

func TestUUIDParam(t *testing.T) {
	h := &BaseHandler{}

	t.Run("valid", func(t *testing.T) {
		c, w := newContext()
		c.Params = gin.Params{{Key: "id", Value: "7f1c4a52-2a3e-4d41-9a59-6c2f1d7d9c11"}}
		id, ok := h.uuidParam(c, "id")
		assert.True(t, ok)
		assert.Equal(t, "7f1c4a52-2a3e-4d41-9a59-6c2f1d7d9c11", id.String())
		assert.Empty(t, w.Body.String())
	})

	t.Run("invalid", func(t *testing.T) {
		c, w := newContext()
		c.Params = gin.Params{{Key: "id", Value: "42"}}
		_, ok := h.uuidParam(c, "id")
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "invalid id", decodeResponse(t, w).Error.Message)
	})
}

func TestSessionRequired(t *testing.T) {
	c, w := newContext()
	_, ok := (&BaseHandler{}).session(c)
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
