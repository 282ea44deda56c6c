// Package app provides router configuration.
package app

import (
	"github.com/guttosm/packing-service/config"
	"github.com/guttosm/packing-service/internal/http"
)

// RouterComponents holds router-related components.
type RouterComponents struct {
	Handler       *http.Handler
	HealthHandler *http.HealthHandler
	Config        http.RouterConfig
}

// InitializeRouter initializes HTTP handlers and router configuration.
func InitializeRouter(services *ServiceComponents, storage *StorageComponents, cfg config.ServerConfig) *RouterComponents {
	handler := http.NewHandler(services.Packing, services.Decisions)

	healthHandler := http.NewHealthHandler()
	for name, checker := range storage.Checkers {
		healthHandler.RegisterChecker(name, checker)
	}
	for name, cb := range storage.CircuitBreakers {
		healthHandler.RegisterCircuitBreaker(name, cb)
	}
	healthHandler.RegisterCircuitBreaker("packer_api", services.PackerBreaker)

	return &RouterComponents{
		Handler:       handler,
		HealthHandler: healthHandler,
		Config: http.RouterConfig{
			RateLimit:      cfg.RateLimit,
			RateWindow:     cfg.RateWindow,
			CORSOrigins:    cfg.CORSOrigins,
			RequestTimeout: cfg.RequestTimeout,
		},
	}
}
