package http

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/trace"

	"github.com/guttosm/packing-service/internal/domain/dto"
	"github.com/guttosm/packing-service/internal/i18n"
	"github.com/guttosm/packing-service/internal/middleware"
)

// envelopePool recycles response envelopes. put zeroes the value first, so
// no field of one response leaks into the next.
type envelopePool[T any] struct {
	p sync.Pool
}

func (e *envelopePool[T]) get() *T {
	if v, ok := e.p.Get().(*T); ok {
		return v
	}
	return new(T)
}

func (e *envelopePool[T]) put(v *T) {
	var zero T
	*v = zero
	e.p.Put(v)
}

var (
	successEnvelopes envelopePool[dto.SuccessResponse]
	errorEnvelopes   envelopePool[dto.ErrorResponse]
)

// Validator interface for types that can validate themselves.
type Validator interface {
	Validate() error
}

// BuildRequestAndValidate binds the JSON body into T and runs its Validate
// method when T implements Validator.
func BuildRequestAndValidate[T any](c *gin.Context) (*T, error) {
	var req T
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, err
	}
	if v, ok := any(&req).(Validator); ok {
		if err := v.Validate(); err != nil {
			return nil, err
		}
	}
	return &req, nil
}

// validationDetails maps a binding or validation failure to per-field messages.
// It returns nil when err is not a validation failure (malformed JSON, wrong types).
func validationDetails(err error) map[string]string {
	var verr *dto.ValidationError
	if errors.As(err, &verr) {
		return map[string]string{verr.Field: verr.Message}
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		details := make(map[string]string, len(fieldErrs))
		for _, fe := range fieldErrs {
			details[fe.Namespace()] = fe.Tag()
		}
		return details
	}

	return nil
}

// ResponseBuilder writes the success and error envelopes for one request.
type ResponseBuilder struct {
	c *gin.Context
}

// NewResponseBuilder creates a new response builder for the given context.
func NewResponseBuilder(c *gin.Context) *ResponseBuilder {
	return &ResponseBuilder{c: c}
}

// Success sends a successful response with the given data.
func (b *ResponseBuilder) Success(statusCode int, data interface{}) {
	resp := successEnvelopes.get()
	resp.Data = data
	resp.RequestID = middleware.GetRequestID(b.c)
	resp.Timestamp = time.Now()

	// gin has serialized resp by the time JSON returns.
	b.c.JSON(statusCode, resp)
	successEnvelopes.put(resp)
}

// SuccessOK is Success with 200.
func (b *ResponseBuilder) SuccessOK(data interface{}) {
	b.Success(http.StatusOK, data)
}

// Error sends an error response with the given status code and message key.
func (b *ResponseBuilder) Error(statusCode int, messageKey string, err error) {
	b.ErrorWithDetails(statusCode, messageKey, err, nil)
}

// ErrorWithDetails sends an error response carrying per-field details.
func (b *ResponseBuilder) ErrorWithDetails(statusCode int, messageKey string, err error, details map[string]string) {
	resp := errorEnvelopes.get()
	resp.Error = dto.ErrCodeFromStatus(statusCode)
	resp.Message = i18n.GetTranslator().Translate(messageKey, i18n.GetLocale(b.c))
	resp.RequestID = middleware.GetRequestID(b.c)
	resp.Timestamp = time.Now()
	resp.Details = details
	if sc := trace.SpanContextFromContext(b.c.Request.Context()); sc.HasTraceID() {
		resp.TraceID = sc.TraceID().String()
	}

	// Only server-side failures reach the error handler log.
	if err != nil && statusCode >= http.StatusInternalServerError {
		_ = b.c.Error(err)
	}

	b.c.AbortWithStatusJSON(statusCode, resp)
	errorEnvelopes.put(resp)
}
