package csvimport

import (
	"errors"
	"fmt"
	"strings"
)

// Row error codes
const (
	ErrCodeMissingColumn    = "ERR_IMPORT_MISSING_COLUMN"
	ErrCodeRequiredField    = "ERR_IMPORT_REQUIRED_FIELD"
	ErrCodeInvalidPrice     = "ERR_IMPORT_INVALID_PRICE"
	ErrCodeInvalidID        = "ERR_IMPORT_INVALID_ID"
	ErrCodeDuplicateInFile  = "ERR_IMPORT_DUPLICATE_IN_FILE"
	ErrCodeUnknownReference = "ERR_IMPORT_REFERENCE_NOT_FOUND"
	ErrCodeMalformedRow     = "ERR_IMPORT_MALFORMED_ROW"
)

var (
	// ErrEmptyFile is returned when the CSV file is empty
	ErrEmptyFile = errors.New("CSV file is empty")

	// ErrInvalidEncoding is returned when the file is not valid UTF-8
	ErrInvalidEncoding = errors.New("invalid file encoding, expected UTF-8")

	// ErrMissingHeader is returned when the CSV file has no header row
	ErrMissingHeader = errors.New("CSV file missing header row")

	// ErrFileTooLarge is returned when an upload or archive entry exceeds the limit
	ErrFileTooLarge = errors.New("file exceeds maximum allowed size")
)

// MissingColumnsError lists required columns absent from a header row
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Columns, ", "))
}

// RowError is an error tied to a line of the input file
type RowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

func (e RowError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("row %d, column '%s': %s", e.Row, e.Column, e.Message)
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// NewRowError creates a RowError carrying the offending value
func NewRowError(row int, column, code, message, value string) RowError {
	return RowError{
		Row:     row,
		Column:  column,
		Code:    code,
		Message: message,
		Value:   value,
	}
}

// ErrorCollection accumulates row errors up to a limit while still counting
// every error seen.
type ErrorCollection struct {
	errors     []RowError
	maxErrors  int
	totalCount int
}

// NewErrorCollection creates an ErrorCollection; maxErrors <= 0 means 100
func NewErrorCollection(maxErrors int) *ErrorCollection {
	if maxErrors <= 0 {
		maxErrors = 100
	}
	return &ErrorCollection{
		errors:    make([]RowError, 0),
		maxErrors: maxErrors,
	}
}

// Add records an error
func (ec *ErrorCollection) Add(err RowError) {
	ec.totalCount++
	if len(ec.errors) < ec.maxErrors {
		ec.errors = append(ec.errors, err)
	}
}

// AddRequired records an empty required cell
func (ec *ErrorCollection) AddRequired(row int, column string) {
	ec.Add(NewRowError(row, column, ErrCodeRequiredField, fmt.Sprintf("field '%s' is required", column), ""))
}

// AddInvalidPrice records a price that could not be parsed or was negative
func (ec *ErrorCollection) AddInvalidPrice(row int, column, value string, cause error) {
	ec.Add(NewRowError(row, column, ErrCodeInvalidPrice, fmt.Sprintf("invalid price: %v", cause), value))
}

// AddInvalidID records a malformed identifier
func (ec *ErrorCollection) AddInvalidID(row int, column, value string) {
	ec.Add(NewRowError(row, column, ErrCodeInvalidID, "invalid identifier", value))
}

// AddDuplicate records an identifier seen earlier in the same file
func (ec *ErrorCollection) AddDuplicate(row int, column, value string, firstRow int) {
	ec.Add(NewRowError(row, column, ErrCodeDuplicateInFile,
		fmt.Sprintf("duplicate value (first seen in row %d)", firstRow), value))
}

// AddReference records a reference to an entity that does not exist
func (ec *ErrorCollection) AddReference(row int, column, value, refType string) {
	ec.Add(NewRowError(row, column, ErrCodeUnknownReference, fmt.Sprintf("%s '%s' not found", refType, value), value))
}

// AddInvalid records any other row-level validation failure
func (ec *ErrorCollection) AddInvalid(row int, column, message, value string) {
	ec.Add(NewRowError(row, column, ErrCodeMalformedRow, message, value))
}

// Errors returns the kept errors
func (ec *ErrorCollection) Errors() []RowError {
	return ec.errors
}

// HasErrors reports whether any error was recorded
func (ec *ErrorCollection) HasErrors() bool {
	return ec.totalCount > 0
}

// TotalCount returns every recorded error, including dropped ones
func (ec *ErrorCollection) TotalCount() int {
	return ec.totalCount
}

// Truncated reports whether errors were dropped because of the limit
func (ec *ErrorCollection) Truncated() bool {
	return ec.totalCount > len(ec.errors)
}

// Summary renders a one-line description such as "3 row errors in products.csv"
func (ec *ErrorCollection) Summary(file string) string {
	if ec.totalCount == 1 {
		return fmt.Sprintf("1 row error in %s", file)
	}
	return fmt.Sprintf("%d row errors in %s", ec.totalCount, file)
}
