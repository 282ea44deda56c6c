// Package app provides service initialization.
package app

import (
	"github.com/guttosm/packing-service/config"
	"github.com/guttosm/packing-service/internal/circuitbreaker"
	"github.com/guttosm/packing-service/internal/packer"
	"github.com/guttosm/packing-service/internal/service"
)

// ServiceComponents holds service-related components.
type ServiceComponents struct {
	Packing       *service.PackingServiceImpl
	Decisions     service.DecisionLogService
	Recorder      *service.AsyncDecisionRecorder
	PackerBreaker *circuitbreaker.CircuitBreaker
}

// InitializeServices wires the packer client, the decision cache and the
// packing service over storage. The decision log is only available when the
// backend provides one.
func InitializeServices(cfg config.PackerConfig, storage *StorageComponents) *ServiceComponents {
	packerCB := circuitbreaker.New(circuitbreaker.Config{
		FailureThreshold: cfg.CircuitBreaker.FailureThreshold,
		SuccessThreshold: cfg.CircuitBreaker.SuccessThreshold,
		Timeout:          cfg.CircuitBreaker.Timeout,
		Name:             "packer-api",
	})

	client := packer.NewClient(packer.Config{
		BaseURL:        cfg.URL,
		APIKey:         cfg.APIKey,
		Username:       cfg.Username,
		Environment:    cfg.Environment,
		ConnectTimeout: cfg.ConnectTimeout,
		Timeout:        cfg.Timeout,
		Retry: packer.RetryConfig{
			MaxAttempts:  cfg.RetryMaxAttempts,
			InitialDelay: cfg.RetryInitialDelay,
			MaxDelay:     cfg.RetryMaxDelay,
		},
	}, packer.WithCircuitBreaker(packerCB))

	components := &ServiceComponents{PackerBreaker: packerCB}

	var opts []service.Option
	if storage.DecisionLog != nil {
		components.Recorder = service.NewAsyncDecisionRecorder(storage.DecisionLog, service.DefaultDecisionRecorderConfig())
		components.Decisions = service.NewDecisionLogService(storage.DecisionLog)
		opts = append(opts, service.WithDecisionRecorder(components.Recorder))
	}

	components.Packing = service.NewPackingService(
		storage.Catalog,
		service.NewPackingCache(storage.Cache),
		client,
		opts...,
	)

	return components
}
