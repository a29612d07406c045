package app

import (
	"go.uber.org/zap"

	"mcpdiscover/internal/infra/telemetry"
)

// LoggingConfig configures logging wiring.
type LoggingConfig struct {
	Level  string
	Format string
	// Logger overrides Level and Format when set.
	Logger *zap.Logger
}

// NewLogger constructs the application logger.
func NewLogger(cfg LoggingConfig) (*zap.Logger, error) {
	if cfg.Logger != nil {
		return cfg.Logger.Named("app"), nil
	}
	level := cfg.Level
	if level == "" {
		level = "info"
	}
	logger, err := telemetry.NewLogger(level, cfg.Format)
	if err != nil {
		return nil, err
	}
	return logger.Named("app"), nil
}
