package dto

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeReferentialConflict, http.StatusConflict},
		{ErrCodePersistence, http.StatusInternalServerError},
		{ErrCodeUnavailable, http.StatusServiceUnavailable},
		{ErrCodeBadRequest, http.StatusBadRequest},
		{ErrCodeRequestTooLarge, http.StatusRequestEntityTooLarge},
		{ErrCodeRouteNotFound, http.StatusNotFound},
		{ErrCodeInternal, http.StatusInternalServerError},
		{"SOMETHING_ELSE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestResponseJSON(t *testing.T) {
	t.Run("success omits error", func(t *testing.T) {
		raw, err := json.Marshal(NewSuccessResponse(map[string]int{"n": 1}))
		require.NoError(t, err)
		assert.JSONEq(t, `{"success":true,"data":{"n":1}}`, string(raw))
	})

	t.Run("error carries details", func(t *testing.T) {
		resp := NewDetailedErrorResponse(ErrCodeValidation, "bad file", "req-1", []string{"row 2"})
		raw, err := json.Marshal(resp)
		require.NoError(t, err)
		assert.JSONEq(t, `{"success":false,"error":{"code":"VALIDATION_ERROR","message":"bad file","request_id":"req-1","details":["row 2"]}}`, string(raw))
	})

	t.Run("validation without fields has no details", func(t *testing.T) {
		resp := NewValidationErrorResponse("invalid", "", nil)
		assert.Nil(t, resp.Error.Details)
		assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	})

	t.Run("pagination meta", func(t *testing.T) {
		resp := NewSuccessResponseWithMeta([]int{1, 2}, 5, 1, 2)
		require.NotNil(t, resp.Meta)
		assert.Equal(t, 3, resp.Meta.TotalPages)

		empty := NewSuccessResponseWithMeta([]int{}, 0, 1, 0)
		assert.Equal(t, 0, empty.Meta.TotalPages)
	})
}
