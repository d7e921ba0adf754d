package errors

import (
	"fmt"
	"net/http"

	"github.com/go-chi/render"
)

// Error codes carried in the error_code extension of every problem.
const (
	CodeInvalidRequest          = "INVALID_REQUEST"
	CodeInvalidJSON             = "INVALID_JSON"
	CodeValidationFailed        = "VALIDATION_FAILED"
	CodePayloadTooLarge         = "PAYLOAD_TOO_LARGE"
	CodeNotFound                = "NOT_FOUND"
	CodeNoRecords               = "NO_RECORDS"
	CodeNothingToPlot           = "NOTHING_TO_PLOT"
	CodeChartNotFound           = "CHART_NOT_FOUND"
	CodeInternal                = "INTERNAL_SERVER_ERROR"
	CodeExportFailed            = "EXPORT_FAILED"
	CodeBoundariesUnavailable   = "BOUNDARIES_UNAVAILABLE"
	CodeBoundariesNotConfigured = "BOUNDARIES_NOT_CONFIGURED"
)

// APIError is an error that already knows its HTTP status.
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// Render implements render.Renderer.
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// ValidationError names one rejected field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is the details payload of a multi-field rejection.
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{StatusCode: statusCode, ErrorCode: errorCode, Message: message}
}

func NewWithDetails(statusCode int, errorCode, message string, details interface{}) *APIError {
	return &APIError{StatusCode: statusCode, ErrorCode: errorCode, Message: message, Details: details}
}

var (
	ErrChartNotFound = New(http.StatusNotFound, CodeChartNotFound, "Chart not found")

	// ErrBoundariesNotConfigured is returned when no boundary source URL is set.
	ErrBoundariesNotConfigured = New(http.StatusServiceUnavailable, CodeBoundariesNotConfigured,
		"No municipal boundary source is configured")
)

func InvalidRequestWithError(err error) *APIError {
	return NewWithDetails(http.StatusBadRequest, CodeInvalidRequest, "Invalid request format", err.Error())
}

// InvalidJSON rejects a body that does not parse.
func InvalidJSON() *APIError {
	return New(http.StatusBadRequest, CodeInvalidJSON, "Request body contains invalid JSON")
}

// ErrValidation rejects a single query parameter or field.
func ErrValidation(field, message string) *APIError {
	return NewWithDetails(http.StatusBadRequest, CodeValidationFailed, "Request validation failed",
		ValidationError{Field: field, Message: message})
}

func NewValidationErrors(errs []ValidationError) *APIError {
	return NewWithDetails(http.StatusBadRequest, CodeValidationFailed, "Request validation failed",
		ValidationErrors{Errors: errs})
}

// TooLarge rejects a body over max bytes.
func TooLarge(max, size int64) *APIError {
	return NewWithDetails(http.StatusRequestEntityTooLarge, CodePayloadTooLarge,
		"Request body exceeds maximum allowed size",
		map[string]int64{"max_size": max, "size": size})
}

func NotFoundError(resource string) *APIError {
	return NewWithDetails(http.StatusNotFound, CodeNotFound, fmt.Sprintf("%s not found", resource), resource)
}

// NoRecordsError reports an empty selection for something that cannot be
// produced from zero rows (a download, a chart image). message is shown to
// the user as is.
func NoRecordsError(message, subject string) *APIError {
	return NewWithDetails(http.StatusNotFound, CodeNoRecords, message, subject)
}

// NothingToPlotError reports a chart whose selected records are all zero.
func NothingToPlotError(message, chart string) *APIError {
	return NewWithDetails(http.StatusUnprocessableEntity, CodeNothingToPlot, message, chart)
}

// ExportError wraps a failure while serializing the filtered table.
func ExportError(format string, err error) *APIError {
	return NewWithDetails(http.StatusInternalServerError, CodeExportFailed,
		fmt.Sprintf("Failed to export table as %s", format), err.Error())
}

// BoundariesError wraps a failure of the remote boundary source.
func BoundariesError(err error) *APIError {
	return NewWithDetails(http.StatusBadGateway, CodeBoundariesUnavailable,
		"Municipal boundaries could not be retrieved", err.Error())
}

func NewInternalError(message string) *APIError {
	return New(http.StatusInternalServerError, CodeInternal, message)
}
