package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"mcpdiscover/internal/domain"
)

type PrometheusMetrics struct {
	connectAttempts   *prometheus.CounterVec
	credentialRefresh *prometheus.CounterVec
	discoveryDuration *prometheus.HistogramVec
	catalogSize       prometheus.Histogram
}

func NewPrometheusMetrics(registerer prometheus.Registerer) *PrometheusMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registerer)

	return &PrometheusMetrics{
		connectAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mcpdiscover_connect_attempts_total",
				Help: "Total number of MCP session connection attempts",
			},
			[]string{"transport", "outcome"},
		),
		credentialRefresh: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mcpdiscover_credential_refresh_total",
				Help: "Total number of credential refreshes after an authorization challenge",
			},
			[]string{"outcome"},
		),
		discoveryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mcpdiscover_discovery_duration_seconds",
				Help:    "Duration of discovery operations in seconds",
				Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"operation", "status"},
		),
		catalogSize: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "mcpdiscover_catalog_tools",
				Help:    "Number of tools returned by a catalog listing",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250},
			},
		),
	}
}

func (p *PrometheusMetrics) ObserveConnectAttempt(transport domain.TransportKind, outcome domain.ConnectOutcome) {
	p.connectAttempts.WithLabelValues(string(transport), string(outcome)).Inc()
}

func (p *PrometheusMetrics) ObserveCredentialRefresh(outcome domain.RefreshOutcome) {
	p.credentialRefresh.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusMetrics) ObserveDiscovery(operation domain.DiscoveryOperation, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	p.discoveryDuration.WithLabelValues(string(operation), status).Observe(duration.Seconds())
}

func (p *PrometheusMetrics) ObserveCatalogSize(count int) {
	p.catalogSize.Observe(float64(count))
}

var _ domain.Metrics = (*PrometheusMetrics)(nil)
