// Package dto defines Data Transfer Objects for HTTP request and response handling.
//
// DTOs are used to decouple the HTTP layer from the domain model,
// providing validation and serialization for API communication.
package dto

import (
	"fmt"

	"github.com/guttosm/packing-service/internal/domain/model"
)

// PackRequest represents the JSON request body for the packing endpoint.
//
// At least one product is required and every measure must be positive and
// at most model.MaxMeasure.
// Validation is performed using gin's binding tags.
type PackRequest struct {
	Products []ProductRequest `json:"products" binding:"required,min=1,dive"`
}

// ProductRequest is one product of a PackRequest. Width, height and length
// are in centimetres, weight in kilograms. ID is informational only and does
// not take part in the decision.
type ProductRequest struct {
	ID     string  `json:"id,omitempty"`
	Width  float64 `json:"width" binding:"required,gt=0,lte=1000000"`
	Height float64 `json:"height" binding:"required,gt=0,lte=1000000"`
	Length float64 `json:"length" binding:"required,gt=0,lte=1000000"`
	Weight float64 `json:"weight" binding:"required,gt=0,lte=1000000"`
}

// ValidationError represents a field validation error.
type ValidationError struct {
	Field   string
	Message string
}

var (
	// ErrNoProducts is returned when the request carries no products.
	ErrNoProducts = &ValidationError{
		Field:   "products",
		Message: "must contain at least one product",
	}
)

// Validate performs custom validation on the request.
// Returns an error if validation fails, nil otherwise.
func (r *PackRequest) Validate() error {
	if len(r.Products) == 0 {
		return ErrNoProducts
	}
	for i, p := range r.Products {
		measures := []struct {
			name  string
			value float64
		}{
			{"width", p.Width},
			{"height", p.Height},
			{"length", p.Length},
			{"weight", p.Weight},
		}
		for _, m := range measures {
			if m.value <= 0 {
				return &ValidationError{
					Field:   fmt.Sprintf("products[%d].%s", i, m.name),
					Message: "must be a positive number",
				}
			}
			if !model.ValidMeasure(m.value) {
				return &ValidationError{
					Field:   fmt.Sprintf("products[%d].%s", i, m.name),
					Message: fmt.Sprintf("must not exceed %d", model.MaxMeasure),
				}
			}
		}
	}
	return nil
}

// ToProducts converts the request into domain products.
func (r *PackRequest) ToProducts() []model.Product {
	products := make([]model.Product, len(r.Products))
	for i, p := range r.Products {
		products[i] = model.Product{
			Width:  p.Width,
			Height: p.Height,
			Length: p.Length,
			Weight: p.Weight,
		}
	}
	return products
}

// Error returns the error message for ValidationError.
func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
