package credentials

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"mcpdiscover/internal/domain"
)

// HeaderBuilder turns a server's authentication settings into HTTP headers.
type HeaderBuilder struct {
	store TokenStore
}

// NewHeaderBuilder creates a header builder. The store may be nil.
func NewHeaderBuilder(store TokenStore) *HeaderBuilder {
	return &HeaderBuilder{store: store}
}

func (b *HeaderBuilder) AuthHeaders(_ context.Context, server domain.ServerConfig) (map[string]string, error) {
	headers := make(map[string]string, len(server.Headers)+1)
	for key, value := range server.Headers {
		setHeader(headers, key, value)
	}

	creds := server.Credentials
	switch server.Authentication {
	case "", domain.AuthNone:
	case domain.AuthHeader:
		name := strings.TrimSpace(creds.HeaderName)
		if name == "" {
			return nil, fmt.Errorf("%w: header auth requires a header name", domain.ErrConfigurationIncomplete)
		}
		setHeader(headers, name, creds.HeaderValue)
	case domain.AuthBearer:
		if strings.TrimSpace(creds.BearerToken) == "" {
			return nil, fmt.Errorf("%w: bearer auth requires a token", domain.ErrConfigurationIncomplete)
		}
		setHeader(headers, "Authorization", "Bearer "+creds.BearerToken)
	case domain.AuthOAuth2:
		accessToken := creds.OAuth2.AccessToken
		if b.store != nil {
			stored, err := b.store.Token(server.Name)
			if err != nil {
				return nil, fmt.Errorf("load oauth2 token: %w", err)
			}
			if stored != nil && stored.AccessToken != "" {
				accessToken = stored.AccessToken
			}
		}
		// Without an access token the server challenges and the refresher runs.
		if accessToken != "" {
			setHeader(headers, "Authorization", "Bearer "+accessToken)
		}
	default:
		return nil, fmt.Errorf("unknown authentication mode %q", server.Authentication)
	}
	return headers, nil
}

// setHeader replaces any case-insensitive duplicate of key.
func setHeader(headers map[string]string, key, value string) {
	canonical := http.CanonicalHeaderKey(strings.TrimSpace(key))
	for existing := range headers {
		if http.CanonicalHeaderKey(existing) == canonical {
			delete(headers, existing)
		}
	}
	headers[canonical] = value
}
