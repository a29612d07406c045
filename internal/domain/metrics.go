package domain

import "time"

// ConnectOutcome labels how a single connection attempt ended.
type ConnectOutcome string

const (
	ConnectOutcomeSuccess      ConnectOutcome = "success"
	ConnectOutcomeUnauthorized ConnectOutcome = "unauthorized"
	ConnectOutcomeError        ConnectOutcome = "error"
)

// RefreshOutcome labels the result of a credential refresh.
type RefreshOutcome string

const (
	RefreshOutcomeRefreshed   RefreshOutcome = "refreshed"
	RefreshOutcomeUnavailable RefreshOutcome = "unavailable"
	RefreshOutcomeError       RefreshOutcome = "error"
)

// DiscoveryOperation names an exposed discovery operation.
type DiscoveryOperation string

const (
	OperationToolNames          DiscoveryOperation = "tool_names"
	OperationFilteredParameters DiscoveryOperation = "filtered_parameters"
	OperationToolParameters     DiscoveryOperation = "tool_parameters"
	OperationPing               DiscoveryOperation = "ping"
)

// Metrics records discovery telemetry.
type Metrics interface {
	ObserveConnectAttempt(transport TransportKind, outcome ConnectOutcome)
	ObserveCredentialRefresh(outcome RefreshOutcome)
	ObserveDiscovery(operation DiscoveryOperation, duration time.Duration, err error)
	ObserveCatalogSize(count int)
}

// NoopMetrics discards all observations.
type NoopMetrics struct{}

func (NoopMetrics) ObserveConnectAttempt(TransportKind, ConnectOutcome) {}

func (NoopMetrics) ObserveCredentialRefresh(RefreshOutcome) {}

func (NoopMetrics) ObserveDiscovery(DiscoveryOperation, time.Duration, error) {}

func (NoopMetrics) ObserveCatalogSize(int) {}
