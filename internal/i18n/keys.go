// Package i18n provides internationalization support for the packing service.
package i18n

// Error message translation keys.
const (
	// ErrKeyInvalidRequest indicates an invalid request.
	ErrKeyInvalidRequest = "error.invalid_request"
	// ErrKeyInvalidRequestBody indicates an invalid request body.
	ErrKeyInvalidRequestBody = "error.invalid_request_body"
	// ErrKeyValidationProducts indicates a product list that failed validation.
	ErrKeyValidationProducts = "error.validation.products"
	// ErrKeyInternalError indicates an internal server error.
	ErrKeyInternalError = "error.internal_error"
	// ErrKeyNotFound indicates a resource was not found.
	ErrKeyNotFound = "error.not_found"
	// ErrKeyRateLimitExceeded indicates rate limit exceeded.
	ErrKeyRateLimitExceeded = "error.rate_limit_exceeded"
	// ErrKeyTimeout indicates a request timeout.
	ErrKeyTimeout = "error.timeout"
	// ErrKeyNoPackagingAvailable indicates an empty packaging catalog.
	ErrKeyNoPackagingAvailable = "error.no_packaging_available"
	// ErrKeyNoAppropriatePackaging indicates no single box can hold the products.
	ErrKeyNoAppropriatePackaging = "error.no_appropriate_packaging"
	// ErrKeyServiceUnavailable indicates a disabled or unreachable dependency.
	ErrKeyServiceUnavailable = "error.service_unavailable"
)

// AllKeys lists every translation key. Each supported locale must define all of them.
var AllKeys = []string{
	ErrKeyInvalidRequest,
	ErrKeyInvalidRequestBody,
	ErrKeyValidationProducts,
	ErrKeyInternalError,
	ErrKeyNotFound,
	ErrKeyRateLimitExceeded,
	ErrKeyTimeout,
	ErrKeyNoPackagingAvailable,
	ErrKeyNoAppropriatePackaging,
	ErrKeyServiceUnavailable,
}
