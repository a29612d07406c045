package discovery

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"mcpdiscover/internal/domain"
	"mcpdiscover/internal/infra/catalog"
	"mcpdiscover/internal/infra/probe"
	"mcpdiscover/internal/infra/telemetry"
)

const connectFailedMessage = "Could not connect to your MCP server"

var (
	// ConfigureEndpointOption is returned when no endpoint is configured.
	ConfigureEndpointOption = domain.Option{
		Name:        "⚠️ Configure endpoint first",
		Value:       "",
		Description: "Please configure the MCP server endpoint above",
	}
	// ConnectFailedOption is returned when the server cannot be reached.
	ConnectFailedOption = domain.Option{
		Name:        "❌ Failed to connect to MCP server",
		Value:       "",
		Description: "Check your endpoint and authentication settings",
	}
)

// Session is a live connection that can list tools.
type Session interface {
	catalog.ToolLister
	probe.Pinger
	Close() error
}

// SessionConnector opens a session for a descriptor.
type SessionConnector interface {
	Connect(ctx context.Context, desc domain.ConnectionDescriptor) (Session, error)
}

// SessionConnectorFunc adapts a function to SessionConnector.
type SessionConnectorFunc func(ctx context.Context, desc domain.ConnectionDescriptor) (Session, error)

func (f SessionConnectorFunc) Connect(ctx context.Context, desc domain.ConnectionDescriptor) (Session, error) {
	return f(ctx, desc)
}

// ParameterListing is the outcome of the best-effort parameter listing.
// Options is always safe to render; Err records the swallowed cause.
type ParameterListing struct {
	Options []domain.Option
	Err     error
}

// Service exposes the discovery operations. Every call builds a fresh
// descriptor and session; nothing is cached between calls.
type Service struct {
	headers    domain.AuthHeaderBuilder
	refresher  domain.CredentialRefresher
	connector  SessionConnector
	fetcher    *catalog.Fetcher
	prober     *probe.PingProbe
	clientName string
	logger     *zap.Logger
	metrics    domain.Metrics
}

// ServiceOptions configures the discovery service.
type ServiceOptions struct {
	Headers    domain.AuthHeaderBuilder
	Refresher  domain.CredentialRefresher
	Connector  SessionConnector
	Fetcher    *catalog.Fetcher
	Probe      *probe.PingProbe
	ClientName string
	Logger     *zap.Logger
	Metrics    domain.Metrics
}

func NewService(opts ServiceOptions) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = domain.NoopMetrics{}
	}
	fetcher := opts.Fetcher
	if fetcher == nil {
		fetcher = catalog.NewFetcher(logger, metrics)
	}
	prober := opts.Probe
	if prober == nil {
		prober = &probe.PingProbe{}
	}
	clientName := strings.TrimSpace(opts.ClientName)
	if clientName == "" {
		clientName = domain.DefaultClientName
	}
	return &Service{
		headers:    opts.Headers,
		refresher:  opts.Refresher,
		connector:  opts.Connector,
		fetcher:    fetcher,
		prober:     prober,
		clientName: clientName,
		logger:     logger.Named("discovery"),
		metrics:    metrics,
	}
}

// BuildDescriptor resolves a server config into a connection descriptor.
func (s *Service) BuildDescriptor(ctx context.Context, cfg domain.ServerConfig) (domain.ConnectionDescriptor, error) {
	target := domain.ResolveConnection(cfg)
	if target.EndpointURL == "" {
		return domain.ConnectionDescriptor{}, fmt.Errorf("%w: endpoint url is not set", domain.ErrConfigurationIncomplete)
	}

	headers := map[string]string{}
	if s.headers != nil {
		built, err := s.headers.AuthHeaders(ctx, cfg)
		if err != nil {
			return domain.ConnectionDescriptor{}, fmt.Errorf("build auth headers: %w", err)
		}
		headers = built
	}

	desc := domain.ConnectionDescriptor{
		Transport:     target.Transport,
		EndpointURL:   target.EndpointURL,
		Headers:       headers,
		ClientName:    s.clientName,
		ClientVersion: domain.ClientVersion(cfg),
	}
	if s.refresher != nil {
		refresher := s.refresher
		desc.OnUnauthorized = func(ctx context.Context, current map[string]string) (map[string]string, error) {
			return refresher.Refresh(ctx, cfg, current)
		}
	}
	return desc, nil
}

// ListTools connects, fetches the full catalog and closes the session.
func (s *Service) ListTools(ctx context.Context, cfg domain.ServerConfig) (tools []domain.Tool, err error) {
	err = s.withSession(ctx, cfg, func(session Session) error {
		tools, err = s.fetcher.ListTools(ctx, session)
		return err
	})
	return tools, err
}

// Ping connects and measures one ping round trip.
func (s *Service) Ping(ctx context.Context, cfg domain.ServerConfig) (rtt time.Duration, err error) {
	ctx, _, done := s.begin(ctx, domain.OperationPing, cfg)
	defer func() { done(err) }()

	err = s.withSession(ctx, cfg, func(session Session) error {
		rtt, err = s.prober.Ping(ctx, session)
		return err
	})
	return rtt, err
}

func (s *Service) withSession(ctx context.Context, cfg domain.ServerConfig, fn func(Session) error) error {
	if s.connector == nil {
		return errors.New("session connector is not configured")
	}
	desc, err := s.BuildDescriptor(ctx, cfg)
	if err != nil {
		return err
	}
	session, err := s.connector.Connect(ctx, desc)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := session.Close(); closeErr != nil {
			telemetry.LoggerWithRequest(ctx, s.logger).Debug("close session failed", zap.Error(closeErr))
		}
	}()
	return fn(session)
}

// ToolNames lists every tool on the server. Connection failures are
// returned to the caller.
func (s *Service) ToolNames(ctx context.Context, cfg domain.ServerConfig) (options []domain.Option, err error) {
	ctx, logger, done := s.begin(ctx, domain.OperationToolNames, cfg)
	defer func() { done(err) }()

	tools, err := s.ListTools(ctx, cfg)
	if err != nil {
		return nil, connectError("tool names", err)
	}
	logger.Debug("listed tools", zap.Int("count", len(tools)))

	options = make([]domain.Option, 0, len(tools))
	for _, tool := range tools {
		options = append(options, domain.Option{
			Name:        tool.Name,
			Value:       tool.Name,
			Description: tool.Description,
		})
	}
	return options, nil
}

// FilteredToolParameters lists the parameters of the tools selected by
// policy. It never fails: a missing endpoint or an unreachable server yield
// a placeholder entry and any other error an empty list.
func (s *Service) FilteredToolParameters(ctx context.Context, cfg domain.ServerConfig, policy domain.FilterPolicy) (listing ParameterListing) {
	ctx, logger, done := s.begin(ctx, domain.OperationFilteredParameters, cfg)
	defer func() {
		if r := recover(); r != nil {
			listing = ParameterListing{Options: []domain.Option{}, Err: fmt.Errorf("list parameters: panic: %v", r)}
		}
		if listing.Err != nil {
			logger.Warn("parameter listing degraded", zap.Error(listing.Err))
		}
		done(listing.Err)
	}()

	if domain.ResolveConnection(cfg).EndpointURL == "" {
		return ParameterListing{
			Options: []domain.Option{ConfigureEndpointOption},
			Err:     domain.ErrConfigurationIncomplete,
		}
	}

	tools, err := s.ListTools(ctx, cfg)
	if err != nil {
		if errors.Is(err, domain.ErrConnectionFailure) {
			return ParameterListing{Options: []domain.Option{ConnectFailedOption}, Err: err}
		}
		return ParameterListing{Options: []domain.Option{}, Err: err}
	}

	filtered := Filter(tools, policy)
	logger.Debug("filtered tools", zap.Int("total", len(tools)), zap.Int("kept", len(filtered)))
	return ParameterListing{Options: MultiToolParameters(filtered)}
}

// SingleToolParameters lists the parameters of one tool. An empty or
// unknown tool name yields an empty list; connection failures are returned.
func (s *Service) SingleToolParameters(ctx context.Context, cfg domain.ServerConfig, toolName string) (options []domain.Option, err error) {
	ctx, _, done := s.begin(ctx, domain.OperationToolParameters, cfg)
	defer func() { done(err) }()

	toolName = strings.TrimSpace(toolName)
	if toolName == "" {
		return []domain.Option{}, nil
	}
	tools, err := s.ListTools(ctx, cfg)
	if err != nil {
		return nil, connectError("tool parameters", err)
	}
	return SingleToolParameters(tools, toolName), nil
}

// connectError gives a missing endpoint and an unreachable server the same
// user-facing message. The code still tells the two apart.
func connectError(op string, err error) error {
	switch {
	case errors.Is(err, domain.ErrConnectionFailure):
		return domain.E(domain.CodeUnavailable, op, connectFailedMessage, err)
	case errors.Is(err, domain.ErrConfigurationIncomplete):
		return domain.E(domain.CodeFailedPrecond, op, connectFailedMessage, err)
	default:
		return err
	}
}

func (s *Service) begin(ctx context.Context, op domain.DiscoveryOperation, cfg domain.ServerConfig) (context.Context, *zap.Logger, func(error)) {
	ctx, _ = telemetry.EnsureRequestMeta(ctx)
	logger := telemetry.LoggerWithRequest(ctx, s.logger).With(
		telemetry.OperationField(string(op)),
		telemetry.ServerField(cfg.Name),
	)
	start := time.Now()
	return ctx, logger, func(err error) {
		duration := time.Since(start)
		s.metrics.ObserveDiscovery(op, duration, err)
		logger.Debug("discovery finished", telemetry.DurationField(duration), zap.Bool("ok", err == nil))
	}
}
