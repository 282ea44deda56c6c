package service

import "errors"

var (
	// ErrInvalidParameter is returned when a calculation is asked for with no bins or no items.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrNoPackagingInDatabase is returned when the packaging catalog is empty.
	ErrNoPackagingInDatabase = errors.New("no packaging in database")

	// ErrNoAppropriatePackagingFound is returned when no single catalog box can hold the products.
	ErrNoAppropriatePackagingFound = errors.New("no appropriate packaging found")

	// ErrRepositoryNotConfigured is returned when the repository is not configured.
	ErrRepositoryNotConfigured = errors.New("repository not configured")
)
