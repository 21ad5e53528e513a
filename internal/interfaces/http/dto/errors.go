package dto

import (
	"net/http"

	"github.com/rotem1230/gal1/internal/domain/shared"
)

// Error codes carried in the response envelope. Domain codes pass through
// unchanged; the rest are raised by the transport layer itself.
const (
	ErrCodeValidation          = shared.CodeValidation
	ErrCodeNotFound            = shared.CodeNotFound
	ErrCodeReferentialConflict = shared.CodeReferentialConflict
	ErrCodePersistence         = shared.CodePersistence
	ErrCodeUnavailable         = shared.CodeUnavailable

	// ErrCodeBadRequest is used for malformed JSON, query strings and uploads
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeRequestTooLarge is used when the body exceeds the configured limit
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
	// ErrCodeRouteNotFound is used for unknown paths
	ErrCodeRouteNotFound = "ROUTE_NOT_FOUND"
	// ErrCodeInternal is used for errors that are not domain errors
	ErrCodeInternal = "INTERNAL_ERROR"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeValidation:          http.StatusBadRequest,
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeReferentialConflict: http.StatusConflict,
	ErrCodePersistence:         http.StatusInternalServerError,
	ErrCodeUnavailable:         http.StatusServiceUnavailable,

	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeRouteNotFound:   http.StatusNotFound,
	ErrCodeInternal:        http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes map to 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
