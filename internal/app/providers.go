package app

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"mcpdiscover/internal/discovery"
	"mcpdiscover/internal/domain"
	"mcpdiscover/internal/infra/catalog"
	"mcpdiscover/internal/infra/config"
	"mcpdiscover/internal/infra/credentials"
	"mcpdiscover/internal/infra/probe"
	"mcpdiscover/internal/infra/telemetry"
	"mcpdiscover/internal/infra/transport"
)

const defaultPingTimeout = 5 * time.Second

// ConfigPath is the location of the YAML config file.
type ConfigPath string

func NewMetricsRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	registry.MustRegister(prometheus.NewGoCollector())
	return registry
}

func NewMetrics(registry *prometheus.Registry) domain.Metrics {
	return telemetry.NewPrometheusMetrics(registry)
}

func LoadConfig(ctx context.Context, path ConfigPath, logger *zap.Logger) (domain.Config, error) {
	cfg, err := config.NewLoader(logger).Load(ctx, string(path))
	if err != nil {
		return domain.Config{}, domain.Wrap(domain.CodeFailedPrecond, "load config", err)
	}
	return cfg, nil
}

// NewCredentialStore opens the token store when at least one server uses
// OAuth2. Otherwise it returns a nil store and no file is created.
func NewCredentialStore(cfg domain.Config, logger *zap.Logger) (*credentials.Store, func(), error) {
	if !usesOAuth2(cfg) {
		return nil, func() {}, nil
	}
	store, err := credentials.OpenStore(cfg.CredentialStore)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("credential store opened", zap.String("path", store.Path()))
	cleanup := func() {
		if err := store.Close(); err != nil {
			logger.Warn("close credential store failed", zap.Error(err))
		}
	}
	return store, cleanup, nil
}

// NewTokenStore exposes the store as an interface, keeping a nil store nil.
func NewTokenStore(store *credentials.Store) credentials.TokenStore {
	if store == nil {
		return nil
	}
	return store
}

func NewHeaderBuilder(store credentials.TokenStore) domain.AuthHeaderBuilder {
	return credentials.NewHeaderBuilder(store)
}

func NewCredentialRefresher(store credentials.TokenStore, logger *zap.Logger) domain.CredentialRefresher {
	return credentials.NewRefresher(credentials.RefresherOptions{
		Store:  store,
		Logger: logger,
	})
}

func NewConnector(logger *zap.Logger, metrics domain.Metrics) *transport.Connector {
	return transport.NewConnector(transport.ConnectorOptions{
		Logger:  logger,
		Metrics: metrics,
	})
}

// NewSessionConnector adapts the transport connector to the discovery
// service. A failed connect yields a nil interface, not a typed nil.
func NewSessionConnector(connector *transport.Connector) discovery.SessionConnector {
	return discovery.SessionConnectorFunc(func(ctx context.Context, desc domain.ConnectionDescriptor) (discovery.Session, error) {
		session, err := connector.Connect(ctx, desc)
		if err != nil {
			return nil, err
		}
		return session, nil
	})
}

func NewFetcher(logger *zap.Logger, metrics domain.Metrics) *catalog.Fetcher {
	return catalog.NewFetcher(logger, metrics)
}

func NewPingProbe() *probe.PingProbe {
	return &probe.PingProbe{Timeout: defaultPingTimeout}
}

func NewDiscoveryService(
	cfg domain.Config,
	headers domain.AuthHeaderBuilder,
	refresher domain.CredentialRefresher,
	connector discovery.SessionConnector,
	fetcher *catalog.Fetcher,
	prober *probe.PingProbe,
	logger *zap.Logger,
	metrics domain.Metrics,
) *discovery.Service {
	return discovery.NewService(discovery.ServiceOptions{
		Headers:    headers,
		Refresher:  refresher,
		Connector:  connector,
		Fetcher:    fetcher,
		Probe:      prober,
		ClientName: cfg.ClientName,
		Logger:     logger,
		Metrics:    metrics,
	})
}

func usesOAuth2(cfg domain.Config) bool {
	for _, server := range cfg.Servers {
		if server.Authentication == domain.AuthOAuth2 {
			return true
		}
	}
	return false
}
