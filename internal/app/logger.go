package app

import (
	"github.com/guttosm/packing-service/config"
	"github.com/guttosm/packing-service/internal/logger"
)

// InitializeLogger initializes the global logger from the log configuration.
func InitializeLogger(cfg config.LogConfig) {
	logger.Init(cfg.Level, cfg.Pretty)
}
