//go:build integration

// Package testutil starts the database containers used by integration tests.
package testutil

import (
	"context"
	"fmt"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

const (
	mongoImage    = "mongo:7.0"
	postgresImage = "postgres:16-alpine"
)

// Container is a running database container and the URI to reach it.
type Container struct {
	testcontainers.Container
	URI string
}

// StartMongoDB starts a MongoDB container.
func StartMongoDB(ctx context.Context) (*Container, error) {
	c, err := mongodb.Run(ctx, mongoImage)
	if err != nil {
		return nil, fmt.Errorf("failed to start MongoDB container: %w", err)
	}

	uri, err := c.ConnectionString(ctx)
	if err != nil {
		_ = c.Terminate(ctx)
		return nil, fmt.Errorf("failed to get MongoDB connection string: %w", err)
	}
	return &Container{Container: c, URI: uri}, nil
}

// StartPostgres starts a PostgreSQL container. URI is a postgres:// URL with
// TLS disabled, ready for repository.OpenSQL.
func StartPostgres(ctx context.Context) (*Container, error) {
	c, err := postgres.Run(ctx, postgresImage,
		postgres.WithDatabase("packing"),
		postgres.WithUsername("packing"),
		postgres.WithPassword("packing"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start PostgreSQL container: %w", err)
	}

	uri, err := c.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = c.Terminate(ctx)
		return nil, fmt.Errorf("failed to get PostgreSQL connection string: %w", err)
	}
	return &Container{Container: c, URI: uri}, nil
}

// Cleanup terminates the container. It is safe on a nil receiver.
func (c *Container) Cleanup(ctx context.Context) error {
	if c == nil || c.Container == nil {
		return nil
	}
	if err := c.Terminate(ctx); err != nil {
		return fmt.Errorf("failed to terminate container: %w", err)
	}
	return nil
}
