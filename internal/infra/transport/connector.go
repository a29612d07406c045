package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"mcpdiscover/internal/domain"
)

// connectState tracks the bounded authorization retry.
type connectState int

const (
	stateInitial connectState = iota
	stateRetriedOnce
)

// Connector opens MCP client sessions over SSE or streamable HTTP.
type Connector struct {
	logger     *zap.Logger
	metrics    domain.Metrics
	base       http.RoundTripper
	maxRetries int
}

// ConnectorOptions configures the connector.
type ConnectorOptions struct {
	Logger  *zap.Logger
	Metrics domain.Metrics
	// BaseTransport carries the requests after headers are injected.
	// Defaults to http.DefaultTransport.
	BaseTransport http.RoundTripper
	// MaxRetries bounds reconnects of the streamable HTTP event stream.
	MaxRetries int
}

// NewConnector creates a new connector.
func NewConnector(opts ConnectorOptions) *Connector {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = domain.NoopMetrics{}
	}
	return &Connector{
		logger:     logger.Named("connector"),
		metrics:    metrics,
		base:       opts.BaseTransport,
		maxRetries: effectiveMaxRetries(opts.MaxRetries),
	}
}

// Connect establishes a session for the descriptor. An authorization
// challenge triggers exactly one credential refresh and one more attempt.
func (c *Connector) Connect(ctx context.Context, desc domain.ConnectionDescriptor) (*Session, error) {
	kind := domain.NormalizeTransport(desc.Transport)
	if kind != domain.TransportSSE && kind != domain.TransportStreamableHTTP {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedTransport, desc.Transport)
	}
	endpoint := strings.TrimSpace(desc.EndpointURL)
	if endpoint == "" {
		return nil, fmt.Errorf("%w: endpoint url is required", domain.ErrConfigurationIncomplete)
	}

	headers := desc.Headers
	state := stateInitial
	for {
		session, err := c.attempt(ctx, kind, endpoint, headers, desc)
		if err == nil {
			return session, nil
		}
		if state == stateRetriedOnce || !errors.Is(err, domain.ErrUnauthorized) || desc.OnUnauthorized == nil {
			return nil, connectionFailure(err)
		}
		state = stateRetriedOnce

		c.logger.Info("authorization challenge, refreshing credentials",
			zap.String("endpoint", endpoint),
			zap.String("transport", string(kind)),
		)
		refreshed, refreshErr := desc.OnUnauthorized(ctx, cloneHeaders(headers))
		if refreshErr != nil {
			c.metrics.ObserveCredentialRefresh(domain.RefreshOutcomeError)
			return nil, connectionFailure(fmt.Errorf("refresh credentials: %w", refreshErr))
		}
		if refreshed == nil {
			c.metrics.ObserveCredentialRefresh(domain.RefreshOutcomeUnavailable)
			return nil, connectionFailure(err)
		}
		c.metrics.ObserveCredentialRefresh(domain.RefreshOutcomeRefreshed)
		headers = refreshed
	}
}

func (c *Connector) attempt(ctx context.Context, kind domain.TransportKind, endpoint string, headers map[string]string, desc domain.ConnectionDescriptor) (*Session, error) {
	recorder := newResultRecorder()
	roundTripper, err := buildHeaderRoundTripper(c.base, headers)
	if err != nil {
		return nil, err
	}
	httpClient := &http.Client{Transport: roundTripper}

	var transport mcp.Transport
	switch kind {
	case domain.TransportSSE:
		transport = &mcp.SSEClientTransport{
			Endpoint:   endpoint,
			HTTPClient: httpClient,
		}
	default:
		// The recording wrapper hides the SDK's session hook, so the
		// negotiated protocol version header is set here.
		roundTripper.protocolVersion = recorder.negotiatedVersion
		transport = &mcp.StreamableClientTransport{
			Endpoint:   endpoint,
			HTTPClient: httpClient,
			MaxRetries: c.maxRetries,
		}
	}
	transport = &recordingTransport{inner: transport, recorder: recorder}

	name := strings.TrimSpace(desc.ClientName)
	if name == "" {
		name = domain.DefaultClientName
	}
	client := mcp.NewClient(&mcp.Implementation{
		Name:    name,
		Version: desc.ClientVersion,
	}, nil)

	c.logger.Debug("connecting", zap.String("endpoint", endpoint), zap.String("transport", string(kind)))
	clientSession, err := client.Connect(ctx, transport, nil)
	if err != nil {
		if roundTripper.sawChallenge() {
			c.metrics.ObserveConnectAttempt(kind, domain.ConnectOutcomeUnauthorized)
			return nil, fmt.Errorf("connect %s: %w: %w", kind, domain.ErrUnauthorized, err)
		}
		c.metrics.ObserveConnectAttempt(kind, domain.ConnectOutcomeError)
		return nil, fmt.Errorf("connect %s: %w", kind, err)
	}
	c.metrics.ObserveConnectAttempt(kind, domain.ConnectOutcomeSuccess)
	return &Session{session: clientSession, transport: kind, recorder: recorder}, nil
}

func connectionFailure(err error) error {
	return domain.E(domain.CodeUnavailable, "connect", "", fmt.Errorf("%w: %w", domain.ErrConnectionFailure, err))
}

func effectiveMaxRetries(value int) int {
	if value == 0 {
		return domain.DefaultStreamableHTTPMaxRetries
	}
	return value
}
