package domain

import (
	"context"
	"encoding/json"
	"strings"
)

// TransportKind selects the wire mechanism carrying the MCP session.
type TransportKind string

const (
	// TransportSSE is the legacy server-sent events transport.
	TransportSSE TransportKind = "sse"
	// TransportStreamableHTTP is the streamable HTTP transport.
	TransportStreamableHTTP TransportKind = "httpStreamable"
)

// NormalizeTransport maps accepted spellings onto a TransportKind.
// An empty value selects the default transport. Unknown values are returned
// trimmed and unchanged so callers can reject them.
func NormalizeTransport(kind TransportKind) TransportKind {
	value := strings.TrimSpace(string(kind))
	switch strings.ToLower(value) {
	case "":
		return DefaultTransport
	case "sse":
		return TransportSSE
	case "httpstreamable", "streamable_http", "streamable-http", "http":
		return TransportStreamableHTTP
	default:
		return TransportKind(value)
	}
}

// AuthMode names how credentials are presented to the server.
type AuthMode string

const (
	AuthNone   AuthMode = "none"
	AuthHeader AuthMode = "headerAuth"
	AuthBearer AuthMode = "bearerAuth"
	AuthOAuth2 AuthMode = "mcpOAuth2Api"
)

// IncludeMode is the configured tool include policy.
type IncludeMode string

const (
	IncludeAll      IncludeMode = "all"
	IncludeSelected IncludeMode = "selected"
	IncludeExcept   IncludeMode = "except"
)

// UnauthorizedHandler returns refreshed headers after an authorization
// challenge. A nil map means no refresh was possible.
type UnauthorizedHandler func(ctx context.Context, headers map[string]string) (map[string]string, error)

// ConnectionDescriptor carries everything needed for one connection attempt.
type ConnectionDescriptor struct {
	Transport      TransportKind
	EndpointURL    string
	Headers        map[string]string
	ClientName     string
	ClientVersion  string
	OnUnauthorized UnauthorizedHandler
}

// Tool is a server-declared callable capability.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"inputSchema,omitempty"`
}

// Option is a user-facing selectable entry.
type Option struct {
	Name        string `json:"name"`
	Value       string `json:"value"`
	Description string `json:"description"`
}

// ParameterDescriptor describes one top-level property of an input schema.
type ParameterDescriptor struct {
	Name        string
	Required    bool
	Description string
}

// OAuth2Credentials holds the OAuth2 client and token settings of a server.
type OAuth2Credentials struct {
	ClientID     string   `json:"clientId"`
	ClientSecret string   `json:"clientSecret"`
	TokenURL     string   `json:"tokenUrl"`
	Scopes       []string `json:"scopes,omitempty"`
	AccessToken  string   `json:"accessToken,omitempty"`
	RefreshToken string   `json:"refreshToken,omitempty"`
}

// Credentials are the stored secrets referenced by an AuthMode.
type Credentials struct {
	HeaderName  string            `json:"headerName,omitempty"`
	HeaderValue string            `json:"headerValue,omitempty"`
	BearerToken string            `json:"bearerToken,omitempty"`
	OAuth2      OAuth2Credentials `json:"oauth2"`
}

// ServerConfig is the host-side parameter set describing one MCP server.
type ServerConfig struct {
	Name            string            `json:"name"`
	TypeVersion     int               `json:"typeVersion"`
	ServerTransport TransportKind     `json:"serverTransport"`
	EndpointURL     string            `json:"endpointUrl,omitempty"`
	SSEEndpoint     string            `json:"sseEndpoint,omitempty"`
	Authentication  AuthMode          `json:"authentication"`
	Headers         map[string]string `json:"headers,omitempty"`
	Credentials     Credentials       `json:"credentials"`
	Include         IncludeMode       `json:"include"`
	IncludeTools    []string          `json:"includeTools,omitempty"`
	ExcludeTools    []string          `json:"excludeTools,omitempty"`
	TimeoutSeconds  int               `json:"timeoutSeconds"`
}

// Config is the full host configuration.
type Config struct {
	ClientName      string
	CredentialStore string
	Servers         map[string]ServerConfig
}

// AuthHeaderBuilder produces the headers for a server's authentication mode.
type AuthHeaderBuilder interface {
	AuthHeaders(ctx context.Context, server ServerConfig) (map[string]string, error)
}

// CredentialRefresher refreshes credentials after an authorization challenge.
// It returns nil headers when the authentication mode cannot be refreshed.
type CredentialRefresher interface {
	Refresh(ctx context.Context, server ServerConfig, current map[string]string) (map[string]string, error)
}
