package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/buger/jsonparser"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"mcpdiscover/internal/domain"
)

func newToolServer(t *testing.T) *mcp.Server {
	t.Helper()
	server := mcp.NewServer(&mcp.Implementation{Name: "remote", Version: "0.1.0"}, nil)
	server.AddTool(&mcp.Tool{
		Name:        "echo",
		Description: "Echo the input",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"text":{"type":"string"}},"required":["text"]}`),
	}, func(context.Context, *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return &mcp.CallToolResult{}, nil
	})
	return server
}

func mcpHandler(t *testing.T, kind domain.TransportKind) http.Handler {
	t.Helper()
	server := newToolServer(t)
	getServer := func(*http.Request) *mcp.Server { return server }
	if kind == domain.TransportSSE {
		return mcp.NewSSEHandler(getServer, nil)
	}
	return mcp.NewStreamableHTTPHandler(getServer, &mcp.StreamableHTTPOptions{JSONResponse: true})
}

// tokenGate rejects requests whose Authorization header differs from the
// accepted value.
type tokenGate struct {
	accepted   string
	next       http.Handler
	challenges atomic.Int32
}

func (g *tokenGate) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != g.accepted {
		g.challenges.Add(1)
		w.Header().Set("WWW-Authenticate", `Bearer realm="test"`)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	g.next.ServeHTTP(w, r)
}

type recordingMetrics struct {
	domain.NoopMetrics
	mu       sync.Mutex
	attempts []domain.ConnectOutcome
	refresh  []domain.RefreshOutcome
}

func (m *recordingMetrics) ObserveConnectAttempt(_ domain.TransportKind, outcome domain.ConnectOutcome) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts = append(m.attempts, outcome)
}

func (m *recordingMetrics) ObserveCredentialRefresh(outcome domain.RefreshOutcome) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refresh = append(m.refresh, outcome)
}

var transportKinds = []domain.TransportKind{domain.TransportSSE, domain.TransportStreamableHTTP}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestConnector_ConnectAndListTools(t *testing.T) {
	for _, kind := range transportKinds {
		t.Run(string(kind), func(t *testing.T) {
			httpServer := httptest.NewServer(mcpHandler(t, kind))
			t.Cleanup(httpServer.Close)

			connector := NewConnector(ConnectorOptions{MaxRetries: -1})
			session, err := connector.Connect(testContext(t), domain.ConnectionDescriptor{
				Transport:     kind,
				EndpointURL:   httpServer.URL,
				ClientName:    "test-client",
				ClientVersion: "2",
			})
			require.NoError(t, err)
			defer session.Close()
			require.Equal(t, kind, session.Transport())

			result, err := session.ListTools(testContext(t), nil)
			require.NoError(t, err)
			require.Len(t, result.Tools, 1)
			require.Equal(t, "echo", result.Tools[0].Name)
		})
	}
}

func TestConnector_InjectsHeaders(t *testing.T) {
	for _, kind := range transportKinds {
		t.Run(string(kind), func(t *testing.T) {
			gate := &tokenGate{accepted: "Bearer token", next: mcpHandler(t, kind)}
			var sawCustom atomic.Bool
			httpServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Header.Get("X-Api-Key") == "secret" {
					sawCustom.Store(true)
				}
				gate.ServeHTTP(w, r)
			}))
			t.Cleanup(httpServer.Close)

			connector := NewConnector(ConnectorOptions{MaxRetries: -1})
			session, err := connector.Connect(testContext(t), domain.ConnectionDescriptor{
				Transport:   kind,
				EndpointURL: httpServer.URL,
				Headers: map[string]string{
					"authorization": "Bearer token",
					"x-api-key":     "secret",
				},
			})
			require.NoError(t, err)
			defer session.Close()
			require.True(t, sawCustom.Load())
			require.Zero(t, gate.challenges.Load())
		})
	}
}

func TestConnector_RefreshesOnceAfterChallenge(t *testing.T) {
	for _, kind := range transportKinds {
		t.Run(string(kind), func(t *testing.T) {
			gate := &tokenGate{accepted: "Bearer fresh", next: mcpHandler(t, kind)}
			httpServer := httptest.NewServer(gate)
			t.Cleanup(httpServer.Close)

			metrics := &recordingMetrics{}
			var calls atomic.Int32
			connector := NewConnector(ConnectorOptions{Metrics: metrics, MaxRetries: -1})
			session, err := connector.Connect(testContext(t), domain.ConnectionDescriptor{
				Transport:   kind,
				EndpointURL: httpServer.URL,
				Headers:     map[string]string{"Authorization": "Bearer stale"},
				OnUnauthorized: func(_ context.Context, current map[string]string) (map[string]string, error) {
					calls.Add(1)
					require.Equal(t, "Bearer stale", current["Authorization"])
					return map[string]string{"Authorization": "Bearer fresh"}, nil
				},
			})
			require.NoError(t, err)
			defer session.Close()

			result, err := session.ListTools(testContext(t), nil)
			require.NoError(t, err)
			require.Len(t, result.Tools, 1)
			require.Equal(t, int32(1), calls.Load())
			require.Equal(t, []domain.RefreshOutcome{domain.RefreshOutcomeRefreshed}, metrics.refresh)
			require.Equal(t, []domain.ConnectOutcome{domain.ConnectOutcomeUnauthorized, domain.ConnectOutcomeSuccess}, metrics.attempts)
		})
	}
}

func TestConnector_FailsAfterSecondChallenge(t *testing.T) {
	for _, kind := range transportKinds {
		t.Run(string(kind), func(t *testing.T) {
			gate := &tokenGate{accepted: "Bearer never-issued", next: mcpHandler(t, kind)}
			httpServer := httptest.NewServer(gate)
			t.Cleanup(httpServer.Close)

			var calls atomic.Int32
			connector := NewConnector(ConnectorOptions{MaxRetries: -1})
			_, err := connector.Connect(testContext(t), domain.ConnectionDescriptor{
				Transport:   kind,
				EndpointURL: httpServer.URL,
				OnUnauthorized: func(context.Context, map[string]string) (map[string]string, error) {
					calls.Add(1)
					return map[string]string{"Authorization": "Bearer still-wrong"}, nil
				},
			})
			require.Error(t, err)
			require.ErrorIs(t, err, domain.ErrConnectionFailure)
			require.ErrorIs(t, err, domain.ErrUnauthorized)
			require.Equal(t, int32(1), calls.Load())
		})
	}
}

func TestConnector_NilRefreshDoesNotRetry(t *testing.T) {
	gate := &tokenGate{accepted: "Bearer fresh", next: mcpHandler(t, domain.TransportStreamableHTTP)}
	httpServer := httptest.NewServer(gate)
	t.Cleanup(httpServer.Close)

	metrics := &recordingMetrics{}
	var calls atomic.Int32
	connector := NewConnector(ConnectorOptions{Metrics: metrics, MaxRetries: -1})
	_, err := connector.Connect(testContext(t), domain.ConnectionDescriptor{
		Transport:   domain.TransportStreamableHTTP,
		EndpointURL: httpServer.URL,
		OnUnauthorized: func(context.Context, map[string]string) (map[string]string, error) {
			calls.Add(1)
			return nil, nil
		},
	})
	require.ErrorIs(t, err, domain.ErrConnectionFailure)
	require.Equal(t, int32(1), calls.Load())
	require.Equal(t, []domain.RefreshOutcome{domain.RefreshOutcomeUnavailable}, metrics.refresh)
	require.Equal(t, []domain.ConnectOutcome{domain.ConnectOutcomeUnauthorized}, metrics.attempts)
}

func TestConnector_RefreshErrorFails(t *testing.T) {
	gate := &tokenGate{accepted: "Bearer fresh", next: mcpHandler(t, domain.TransportStreamableHTTP)}
	httpServer := httptest.NewServer(gate)
	t.Cleanup(httpServer.Close)

	connector := NewConnector(ConnectorOptions{MaxRetries: -1})
	_, err := connector.Connect(testContext(t), domain.ConnectionDescriptor{
		Transport:   domain.TransportStreamableHTTP,
		EndpointURL: httpServer.URL,
		OnUnauthorized: func(context.Context, map[string]string) (map[string]string, error) {
			return nil, errors.New("token endpoint down")
		},
	})
	require.ErrorIs(t, err, domain.ErrConnectionFailure)
	require.ErrorContains(t, err, "token endpoint down")
}

func TestConnector_ChallengeWithoutHandlerFails(t *testing.T) {
	gate := &tokenGate{accepted: "Bearer fresh", next: mcpHandler(t, domain.TransportSSE)}
	httpServer := httptest.NewServer(gate)
	t.Cleanup(httpServer.Close)

	connector := NewConnector(ConnectorOptions{})
	_, err := connector.Connect(testContext(t), domain.ConnectionDescriptor{
		Transport:   domain.TransportSSE,
		EndpointURL: httpServer.URL,
	})
	require.ErrorIs(t, err, domain.ErrConnectionFailure)
	require.ErrorIs(t, err, domain.ErrUnauthorized)
	require.Equal(t, int32(1), gate.challenges.Load())
}

func TestConnector_UnreachableServerSkipsRefresh(t *testing.T) {
	httpServer := httptest.NewServer(mcpHandler(t, domain.TransportStreamableHTTP))
	endpoint := httpServer.URL
	httpServer.Close()

	var calls atomic.Int32
	connector := NewConnector(ConnectorOptions{MaxRetries: -1})
	_, err := connector.Connect(testContext(t), domain.ConnectionDescriptor{
		Transport:   domain.TransportStreamableHTTP,
		EndpointURL: endpoint,
		OnUnauthorized: func(context.Context, map[string]string) (map[string]string, error) {
			calls.Add(1)
			return map[string]string{}, nil
		},
	})
	require.ErrorIs(t, err, domain.ErrConnectionFailure)
	require.NotErrorIs(t, err, domain.ErrUnauthorized)
	require.Zero(t, calls.Load())
}

func TestConnector_RejectsInvalidDescriptors(t *testing.T) {
	connector := NewConnector(ConnectorOptions{})

	_, err := connector.Connect(context.Background(), domain.ConnectionDescriptor{
		Transport:   "stdio",
		EndpointURL: "http://localhost",
	})
	require.ErrorIs(t, err, domain.ErrUnsupportedTransport)

	_, err = connector.Connect(context.Background(), domain.ConnectionDescriptor{
		Transport:   domain.TransportSSE,
		EndpointURL: "  ",
	})
	require.ErrorIs(t, err, domain.ErrConfigurationIncomplete)

	_, err = connector.Connect(context.Background(), domain.ConnectionDescriptor{
		Transport:   domain.TransportSSE,
		EndpointURL: "http://localhost",
		Headers:     map[string]string{" ": "x"},
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "empty key")
}

func TestSession_CloseNil(t *testing.T) {
	var session *Session
	require.NoError(t, session.Close())
}

func TestEffectiveMaxRetries(t *testing.T) {
	require.Equal(t, domain.DefaultStreamableHTTPMaxRetries, effectiveMaxRetries(0))
	require.Equal(t, 3, effectiveMaxRetries(3))
	require.Equal(t, -1, effectiveMaxRetries(-1))
}

func propertyKeys(t *testing.T, schema any) []string {
	t.Helper()
	raw, ok := schema.(json.RawMessage)
	require.True(t, ok, "input schema is %T", schema)
	var keys []string
	require.NoError(t, jsonparser.ObjectEach(raw, func(key []byte, _ []byte, _ jsonparser.ValueType, _ int) error {
		keys = append(keys, string(key))
		return nil
	}, "properties"))
	return keys
}

func TestConnector_KeepsSchemaPropertyOrder(t *testing.T) {
	for _, kind := range transportKinds {
		t.Run(string(kind), func(t *testing.T) {
			server := mcp.NewServer(&mcp.Implementation{Name: "remote", Version: "0.1.0"}, nil)
			server.AddTool(&mcp.Tool{
				Name:        "lookup",
				InputSchema: json.RawMessage(`{"type":"object","properties":{"zeta":{"type":"string"},"alpha":{"type":"number"},"mid":{}},"required":["alpha"]}`),
			}, func(context.Context, *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return &mcp.CallToolResult{}, nil
			})
			getServer := func(*http.Request) *mcp.Server { return server }
			var handler http.Handler = mcp.NewStreamableHTTPHandler(getServer, &mcp.StreamableHTTPOptions{JSONResponse: true})
			if kind == domain.TransportSSE {
				handler = mcp.NewSSEHandler(getServer, nil)
			}
			httpServer := httptest.NewServer(handler)
			t.Cleanup(httpServer.Close)

			session, err := NewConnector(ConnectorOptions{MaxRetries: -1}).Connect(testContext(t), domain.ConnectionDescriptor{
				Transport:   kind,
				EndpointURL: httpServer.URL,
			})
			require.NoError(t, err)
			defer session.Close()

			for i := 0; i < 2; i++ {
				result, err := session.ListTools(testContext(t), nil)
				require.NoError(t, err)
				require.Len(t, result.Tools, 1)
				require.Equal(t, []string{"zeta", "alpha", "mid"}, propertyKeys(t, result.Tools[0].InputSchema))
			}
		})
	}
}

func TestConnector_SendsNegotiatedProtocolVersion(t *testing.T) {
	var mu sync.Mutex
	var versions []string
	next := mcpHandler(t, domain.TransportStreamableHTTP)
	httpServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			mu.Lock()
			versions = append(versions, r.Header.Get(protocolVersionHeader))
			mu.Unlock()
		}
		next.ServeHTTP(w, r)
	}))
	t.Cleanup(httpServer.Close)

	session, err := NewConnector(ConnectorOptions{MaxRetries: -1}).Connect(testContext(t), domain.ConnectionDescriptor{
		Transport:   domain.TransportStreamableHTTP,
		EndpointURL: httpServer.URL,
	})
	require.NoError(t, err)
	defer session.Close()
	_, err = session.ListTools(testContext(t), nil)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.GreaterOrEqual(t, len(versions), 3)
	require.Empty(t, versions[0], "initialize carries no version")
	require.NotEmpty(t, versions[len(versions)-1])
}
