// internal/api/response/response.go
package response

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/newthinker/crossover/internal/core"
	"github.com/newthinker/crossover/internal/storage/archive"
)

// Meta contains response metadata.
type Meta struct {
	Timestamp time.Time `json:"timestamp"`
}

// SuccessResponse is the standard success response format.
type SuccessResponse struct {
	Data any  `json:"data"`
	Meta Meta `json:"meta"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Cause   string `json:"cause,omitempty"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// JSON writes a success response with data.
func JSON(w http.ResponseWriter, status int, data any) {
	resp := SuccessResponse{
		Data: data,
		Meta: Meta{Timestamp: time.Now().UTC()},
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

// Error writes an error response.
func Error(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: Detail(err)})
}

// Fail writes err with the status StatusOf picks for it.
func Fail(w http.ResponseWriter, err error) {
	Error(w, StatusOf(err), err)
}

// Detail converts err into its wire form. Errors without a code are
// reported as INTERNAL_ERROR without leaking their text.
func Detail(err error) ErrorDetail {
	var coreErr *core.Error
	switch {
	case errors.As(err, &coreErr):
		d := ErrorDetail{Code: coreErr.Code, Message: coreErr.Message}
		if coreErr.Cause != nil {
			d.Cause = coreErr.Cause.Error()
		}
		return d
	case errors.Is(err, archive.ErrNotFound):
		return ErrorDetail{Code: "NOT_FOUND", Message: "result not found"}
	case errors.Is(err, context.DeadlineExceeded):
		return ErrorDetail{Code: "TIMEOUT", Message: "request timed out"}
	case errors.Is(err, context.Canceled):
		return ErrorDetail{Code: "CANCELED", Message: "request canceled"}
	default:
		return ErrorDetail{Code: "INTERNAL_ERROR", Message: "an internal error occurred"}
	}
}

// StatusOf maps an error to its HTTP status.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, core.ErrInvalidParameters),
		errors.Is(err, core.ErrConfigInvalid):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrInsufficientData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, core.ErrNoData),
		errors.Is(err, core.ErrJobNotFound),
		errors.Is(err, archive.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrTooManyJobs):
		return http.StatusTooManyRequests
	case errors.Is(err, core.ErrConfigMissing):
		return http.StatusNotImplemented
	case errors.Is(err, core.ErrSourceFailed),
		errors.Is(err, core.ErrReviewFailed):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
