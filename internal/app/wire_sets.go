//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
)

var CoreInfraSet = wire.NewSet(
	NewLogger,
	NewMetricsRegistry,
	NewMetrics,
	LoadConfig,
)

var CredentialSet = wire.NewSet(
	NewCredentialStore,
	NewTokenStore,
	NewHeaderBuilder,
	NewCredentialRefresher,
)

var DiscoverySet = wire.NewSet(
	NewConnector,
	NewSessionConnector,
	NewFetcher,
	NewPingProbe,
	NewDiscoveryService,
)

var AppSet = wire.NewSet(
	CoreInfraSet,
	CredentialSet,
	DiscoverySet,
	NewApplication,
)
