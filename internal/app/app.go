// Package app provides application initialization and dependency injection.
package app

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/guttosm/packing-service/config"
	"github.com/guttosm/packing-service/internal/http"
)

// App holds the wired application.
type App struct {
	Router *gin.Engine

	storage    *StorageComponents
	services   *ServiceComponents
	stopRouter func()
}

// InitializeApp creates and wires all application dependencies.
// This is the main orchestration function that initializes all components.
func InitializeApp(ctx context.Context, cfg config.Config) *App {
	// Initialize logger first (needed by other components)
	InitializeLogger(cfg.Log)

	storage := InitializeStorage(ctx, cfg.Storage)
	services := InitializeServices(cfg.Packer, storage)
	routerComponents := InitializeRouter(services, storage, cfg.Server)

	router, stopRouter := http.NewRouter(routerComponents.Handler, routerComponents.HealthHandler, routerComponents.Config)

	log.Info().
		Str("backend", storage.Backend).
		Bool("decision_log", services.Decisions != nil).
		Msg("Application initialized")

	return &App{
		Router:     router,
		storage:    storage,
		services:   services,
		stopRouter: stopRouter,
	}
}

// Close stops background workers, flushing pending decision records, and
// closes the storage connections. Call it after the HTTP server has stopped.
func (a *App) Close(ctx context.Context) error {
	if a.stopRouter != nil {
		a.stopRouter()
	}
	a.services.Recorder.Stop()
	return a.storage.Close(ctx)
}
