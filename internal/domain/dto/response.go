package dto

import (
	"fmt"
	"net/http"
	"time"

	"github.com/guttosm/packing-service/internal/domain/model"
)

const (
	// ErrCodeInvalidRequest indicates an invalid request.
	ErrCodeInvalidRequest = "invalid_request"
	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal = "internal_error"
	// ErrCodeNotFound indicates a resource was not found.
	ErrCodeNotFound = "not_found"
	// ErrCodeUnprocessable indicates a valid request that cannot be fulfilled.
	ErrCodeUnprocessable = "unprocessable_entity"
	// ErrCodeRateLimit indicates rate limit exceeded.
	ErrCodeRateLimit = "rate_limit_exceeded"
	// ErrCodeTimeout indicates a request timeout.
	ErrCodeTimeout = "timeout"
	// ErrCodeUnavailable indicates a required dependency is not available.
	ErrCodeUnavailable = "service_unavailable"
)

// SuccessResponse wraps successful API responses with metadata.
type SuccessResponse struct {
	// Data contains the actual response data.
	Data interface{} `json:"data"`
	// RequestID is the unique request identifier
	RequestID string `json:"request_id,omitempty"`
	// Timestamp is when the response was generated
	Timestamp time.Time `json:"timestamp"`
}

// ErrorResponse represents a standardized error response for the API.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	// Details contains additional error details (optional)
	Details   map[string]string `json:"details,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	TraceID   string            `json:"trace_id,omitempty"`
}

// BoxResponse describes the chosen packaging.
type BoxResponse struct {
	ID         int64   `json:"id"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Length     float64 `json:"length"`
	MaxWeight  float64 `json:"max_weight"`
	Dimensions string  `json:"dimensions"`
}

// NewBoxResponse builds a BoxResponse from a packaging.
func NewBoxResponse(p model.Packaging) BoxResponse {
	return BoxResponse{
		ID:         p.ID,
		Width:      p.Width,
		Height:     p.Height,
		Length:     p.Length,
		MaxWeight:  p.MaxWeight,
		Dimensions: fmt.Sprintf("%.2f × %.2f × %.2f cm", p.Width, p.Height, p.Length),
	}
}

// NewBoxListResponse builds BoxResponses for a catalog.
func NewBoxListResponse(packagings []model.Packaging) []BoxResponse {
	boxes := make([]BoxResponse, len(packagings))
	for i, p := range packagings {
		boxes[i] = NewBoxResponse(p)
	}
	return boxes
}

// DecisionListResponse is a page of the decision log.
type DecisionListResponse struct {
	Decisions []*model.DecisionRecord `json:"decisions"`
	Total     int64                   `json:"total"`
	Limit     int                     `json:"limit"`
	Skip      int                     `json:"skip"`
}

// NewError creates a new ErrorResponse with the given code and message.
func NewError(code, message string) ErrorResponse {
	return ErrorResponse{
		Error:     code,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// WithRequestID adds a request ID to the error response.
func (e ErrorResponse) WithRequestID(requestID string) ErrorResponse {
	e.RequestID = requestID
	return e
}

// ErrCodeFromStatus returns the appropriate error code for an HTTP status.
func ErrCodeFromStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return ErrCodeInvalidRequest
	case http.StatusNotFound:
		return ErrCodeNotFound
	case http.StatusUnprocessableEntity:
		return ErrCodeUnprocessable
	case http.StatusTooManyRequests:
		return ErrCodeRateLimit
	case http.StatusGatewayTimeout, http.StatusRequestTimeout:
		return ErrCodeTimeout
	case http.StatusServiceUnavailable:
		return ErrCodeUnavailable
	default:
		return ErrCodeInternal
	}
}
