package transport

import (
	"errors"
	"net/http"
	"strings"
	"sync/atomic"
)

const protocolVersionHeader = "Mcp-Protocol-Version"

func buildHeaderRoundTripper(base http.RoundTripper, headers map[string]string) (*headerRoundTripper, error) {
	normalized := http.Header{}
	for key, value := range headers {
		name := http.CanonicalHeaderKey(strings.TrimSpace(key))
		if name == "" {
			return nil, errors.New("http headers contain empty key")
		}
		normalized.Set(name, value)
	}

	if base == nil {
		base = http.DefaultTransport
	}
	if base == nil {
		return nil, errors.New("default http transport is nil")
	}

	return &headerRoundTripper{
		base:    base,
		headers: normalized,
	}, nil
}

// headerRoundTripper injects the descriptor headers and remembers whether
// the server answered with an authorization challenge.
type headerRoundTripper struct {
	base       http.RoundTripper
	headers    http.Header
	challenged atomic.Bool
	// protocolVersion reports the negotiated MCP version, empty before
	// initialization completes.
	protocolVersion func() string
}

func (h *headerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	for key, values := range h.headers {
		out.Header.Del(key)
		for _, value := range values {
			out.Header.Add(key, value)
		}
	}
	if h.protocolVersion != nil && out.Header.Get(protocolVersionHeader) == "" {
		if version := h.protocolVersion(); version != "" {
			out.Header.Set(protocolVersionHeader, version)
		}
	}
	resp, err := h.base.RoundTrip(out)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		h.challenged.Store(true)
	}
	return resp, nil
}

func (h *headerRoundTripper) sawChallenge() bool {
	return h.challenged.Load()
}

func cloneHeaders(headers map[string]string) map[string]string {
	if headers == nil {
		return nil
	}
	out := make(map[string]string, len(headers))
	for key, value := range headers {
		out[key] = value
	}
	return out
}
