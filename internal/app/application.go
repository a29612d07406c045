package app

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"mcpdiscover/internal/discovery"
	"mcpdiscover/internal/domain"
	"mcpdiscover/internal/infra/config"
	"mcpdiscover/internal/infra/telemetry"
)

// Application bundles the loaded config with the discovery service.
type Application struct {
	config   domain.Config
	service  *discovery.Service
	registry *prometheus.Registry
	logger   *zap.Logger
}

func NewApplication(cfg domain.Config, service *discovery.Service, registry *prometheus.Registry, logger *zap.Logger) *Application {
	return &Application{
		config:   cfg,
		service:  service,
		registry: registry,
		logger:   logger,
	}
}

func (a *Application) Config() domain.Config {
	return a.config
}

func (a *Application) Service() *discovery.Service {
	return a.service
}

func (a *Application) Logger() *zap.Logger {
	return a.logger
}

// Server selects a configured server by name.
func (a *Application) Server(name string) (domain.ServerConfig, error) {
	return config.SelectServer(a.config, name)
}

// WriteMetrics dumps the collected metrics in the Prometheus text format.
func (a *Application) WriteMetrics(w io.Writer) error {
	return telemetry.WriteText(w, a.registry)
}
