package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"mcpdiscover/internal/domain"
)

type Loader struct {
	logger *zap.Logger
}

func NewLoader(logger *zap.Logger) *Loader {
	if logger == nil {
		return &Loader{logger: zap.NewNop()}
	}
	return &Loader{logger: logger.Named("config")}
}

func newConfigViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetDefault("clientName", domain.DefaultClientName)
	return v
}

type rawConfig struct {
	ClientName      string            `mapstructure:"clientName"`
	CredentialStore string            `mapstructure:"credentialStore"`
	Servers         []rawServerConfig `mapstructure:"servers"`
}

type rawServerConfig struct {
	Name            string            `mapstructure:"name"`
	TypeVersion     int               `mapstructure:"typeVersion"`
	ServerTransport string            `mapstructure:"serverTransport"`
	EndpointURL     string            `mapstructure:"endpointUrl"`
	SSEEndpoint     string            `mapstructure:"sseEndpoint"`
	Authentication  string            `mapstructure:"authentication"`
	Headers         map[string]string `mapstructure:"headers"`
	Credentials     rawCredentials    `mapstructure:"credentials"`
	Include         string            `mapstructure:"include"`
	IncludeTools    []string          `mapstructure:"includeTools"`
	ExcludeTools    []string          `mapstructure:"excludeTools"`
	TimeoutSeconds  *int              `mapstructure:"timeoutSeconds"`
}

type rawCredentials struct {
	HeaderName  string    `mapstructure:"headerName"`
	HeaderValue string    `mapstructure:"headerValue"`
	BearerToken string    `mapstructure:"bearerToken"`
	OAuth2      rawOAuth2 `mapstructure:"oauth2"`
}

type rawOAuth2 struct {
	ClientID     string   `mapstructure:"clientId"`
	ClientSecret string   `mapstructure:"clientSecret"`
	TokenURL     string   `mapstructure:"tokenUrl"`
	Scopes       []string `mapstructure:"scopes"`
	AccessToken  string   `mapstructure:"accessToken"`
	RefreshToken string   `mapstructure:"refreshToken"`
}

// Load reads, expands, validates and normalizes a config file.
func (l *Loader) Load(ctx context.Context, path string) (domain.Config, error) {
	if path == "" {
		return domain.Config{}, errors.New("config path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return domain.Config{}, fmt.Errorf("config %s is empty", path)
	}

	expanded, unset, err := expandConfigEnv(data)
	if err != nil {
		return domain.Config{}, err
	}
	if len(unset) > 0 {
		l.logger.Warn("unset environment variables in config",
			zap.String("path", path),
			zap.Stringers("variables", unset),
		)
	}

	if err := validateConfigSchema(expanded); err != nil {
		return domain.Config{}, err
	}

	v := newConfigViper()
	if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
		return domain.Config{}, fmt.Errorf("parse config: %w", err)
	}

	var raw rawConfig
	if err := v.Unmarshal(&raw); err != nil {
		return domain.Config{}, fmt.Errorf("decode config: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return domain.Config{}, err
	}

	servers := make(map[string]domain.ServerConfig, len(raw.Servers))
	var validationErrors []string
	for i, server := range raw.Servers {
		normalized := normalizeServerConfig(server)
		if _, exists := servers[normalized.Name]; exists {
			validationErrors = append(validationErrors, fmt.Sprintf("servers[%d]: duplicate name %q", i, normalized.Name))
			continue
		}
		if errs := validateServerConfig(normalized, i); len(errs) > 0 {
			validationErrors = append(validationErrors, errs...)
			continue
		}
		if normalized.TypeVersion == domain.LegacyTypeVersion && normalized.EndpointURL != "" {
			l.logger.Warn("legacy server ignores endpointUrl; sseEndpoint is used",
				zap.String("server", normalized.Name),
				zap.Int("index", i),
			)
		}
		servers[normalized.Name] = normalized
	}

	if len(validationErrors) > 0 {
		return domain.Config{}, errors.New(strings.Join(validationErrors, "; "))
	}

	clientName := strings.TrimSpace(raw.ClientName)
	if clientName == "" {
		clientName = domain.DefaultClientName
	}
	return domain.Config{
		ClientName:      clientName,
		CredentialStore: credentialStorePath(path, raw.CredentialStore),
		Servers:         servers,
	}, nil
}

// SelectServer picks a server by name. An empty name selects the only
// configured server.
func SelectServer(cfg domain.Config, name string) (domain.ServerConfig, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		if len(cfg.Servers) == 1 {
			for _, server := range cfg.Servers {
				return server, nil
			}
		}
		return domain.ServerConfig{}, fmt.Errorf("%w: choose one of %s", domain.ErrServerNotFound, strings.Join(ServerNames(cfg), ", "))
	}
	server, ok := cfg.Servers[name]
	if !ok {
		return domain.ServerConfig{}, fmt.Errorf("%w: %q", domain.ErrServerNotFound, name)
	}
	return server, nil
}

// ServerNames lists the configured server names in sorted order.
func ServerNames(cfg domain.Config) []string {
	names := make([]string, 0, len(cfg.Servers))
	for name := range cfg.Servers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func credentialStorePath(configPath, configured string) string {
	trimmed := strings.TrimSpace(configured)
	if trimmed == "" {
		return filepath.Join(filepath.Dir(configPath), domain.DefaultCredentialStoreFile)
	}
	if filepath.IsAbs(trimmed) {
		return trimmed
	}
	return filepath.Join(filepath.Dir(configPath), trimmed)
}

func normalizeServerConfig(raw rawServerConfig) domain.ServerConfig {
	typeVersion := raw.TypeVersion
	if typeVersion == 0 {
		typeVersion = domain.DefaultTypeVersion
	}
	auth := domain.AuthMode(strings.TrimSpace(raw.Authentication))
	if auth == "" {
		auth = domain.DefaultAuthMode
	}
	include := domain.IncludeMode(strings.ToLower(strings.TrimSpace(raw.Include)))
	if include == "" {
		include = domain.DefaultIncludeMode
	}
	timeout := domain.DefaultTimeoutSeconds
	if raw.TimeoutSeconds != nil {
		timeout = *raw.TimeoutSeconds
	}

	return domain.ServerConfig{
		Name:            strings.TrimSpace(raw.Name),
		TypeVersion:     typeVersion,
		ServerTransport: domain.NormalizeTransport(domain.TransportKind(raw.ServerTransport)),
		EndpointURL:     strings.TrimSpace(raw.EndpointURL),
		SSEEndpoint:     strings.TrimSpace(raw.SSEEndpoint),
		Authentication:  auth,
		Headers:         normalizeHTTPHeaders(raw.Headers),
		Credentials: domain.Credentials{
			HeaderName:  strings.TrimSpace(raw.Credentials.HeaderName),
			HeaderValue: raw.Credentials.HeaderValue,
			BearerToken: strings.TrimSpace(raw.Credentials.BearerToken),
			OAuth2: domain.OAuth2Credentials{
				ClientID:     strings.TrimSpace(raw.Credentials.OAuth2.ClientID),
				ClientSecret: raw.Credentials.OAuth2.ClientSecret,
				TokenURL:     strings.TrimSpace(raw.Credentials.OAuth2.TokenURL),
				Scopes:       raw.Credentials.OAuth2.Scopes,
				AccessToken:  strings.TrimSpace(raw.Credentials.OAuth2.AccessToken),
				RefreshToken: strings.TrimSpace(raw.Credentials.OAuth2.RefreshToken),
			},
		},
		Include:        include,
		IncludeTools:   raw.IncludeTools,
		ExcludeTools:   raw.ExcludeTools,
		TimeoutSeconds: timeout,
	}
}

func normalizeHTTPHeaders(headers map[string]string) map[string]string {
	if len(headers) == 0 {
		return nil
	}

	keys := make([]string, 0, len(headers))
	for key := range headers {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	normalized := make(map[string]string, len(headers))
	for _, key := range keys {
		trimmedKey := strings.TrimSpace(key)
		value := strings.TrimSpace(headers[key])
		if trimmedKey == "" {
			normalized[""] = value
			continue
		}
		normalized[http.CanonicalHeaderKey(trimmedKey)] = value
	}
	return normalized
}

func validateServerConfig(server domain.ServerConfig, index int) []string {
	var errs []string

	if server.Name == "" {
		errs = append(errs, fmt.Sprintf("servers[%d]: name is required", index))
	}
	switch server.ServerTransport {
	case domain.TransportSSE, domain.TransportStreamableHTTP:
	default:
		errs = append(errs, fmt.Sprintf("servers[%d]: serverTransport must be sse or httpStreamable", index))
	}
	switch server.Include {
	case domain.IncludeAll, domain.IncludeSelected, domain.IncludeExcept:
	default:
		errs = append(errs, fmt.Sprintf("servers[%d]: include must be all, selected or except", index))
	}
	if server.TimeoutSeconds < 0 {
		errs = append(errs, fmt.Sprintf("servers[%d]: timeoutSeconds must be >= 0", index))
	}

	// Empty endpoints are allowed so callers can surface a configuration hint.
	if err := validateEndpoint(server.EndpointURL); err != nil {
		errs = append(errs, fmt.Sprintf("servers[%d]: endpointUrl %v", index, err))
	}
	if err := validateEndpoint(server.SSEEndpoint); err != nil {
		errs = append(errs, fmt.Sprintf("servers[%d]: sseEndpoint %v", index, err))
	}

	for key, value := range server.Headers {
		name := strings.TrimSpace(key)
		if name == "" {
			errs = append(errs, fmt.Sprintf("servers[%d]: headers contains empty header name", index))
			continue
		}
		if isReservedHTTPHeader(name) {
			errs = append(errs, fmt.Sprintf("servers[%d]: headers.%s is reserved and managed by transport", index, name))
		}
		if strings.TrimSpace(value) == "" {
			errs = append(errs, fmt.Sprintf("servers[%d]: headers.%s must not be empty", index, name))
		}
	}

	if server.Authentication == domain.AuthOAuth2 && server.Credentials.OAuth2.TokenURL != "" {
		if err := validateEndpoint(server.Credentials.OAuth2.TokenURL); err != nil {
			errs = append(errs, fmt.Sprintf("servers[%d]: credentials.oauth2.tokenUrl %v", index, err))
		}
	}
	return errs
}

func validateEndpoint(endpoint string) error {
	if endpoint == "" {
		return nil
	}
	if strings.Contains(endpoint, " ") {
		return errors.New("must be a valid http(s) URL")
	}
	parsed, err := url.ParseRequestURI(endpoint)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return errors.New("must be a valid http(s) URL")
	}
	return nil
}

func isReservedHTTPHeader(header string) bool {
	switch strings.ToLower(strings.TrimSpace(header)) {
	case "content-type", "accept", "mcp-protocol-version", "mcp-session-id", "last-event-id",
		"host", "content-length", "transfer-encoding", "connection":
		return true
	default:
		return false
	}
}
