package credentials

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"mcpdiscover/internal/domain"
)

// Refresher obtains a new OAuth2 access token with the refresh-token grant
// and stores it.
type Refresher struct {
	store      TokenStore
	httpClient *http.Client
	logger     *zap.Logger
}

// RefresherOptions configures the refresher.
type RefresherOptions struct {
	Store      TokenStore
	HTTPClient *http.Client
	Logger     *zap.Logger
}

func NewRefresher(opts RefresherOptions) *Refresher {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Refresher{
		store:      opts.Store,
		httpClient: opts.HTTPClient,
		logger:     logger.Named("credentials"),
	}
}

// Refresh returns headers carrying a new bearer token. Servers that do not
// use OAuth2, or have no refresh token, get nil headers.
func (r *Refresher) Refresh(ctx context.Context, server domain.ServerConfig, current map[string]string) (map[string]string, error) {
	if server.Authentication != domain.AuthOAuth2 {
		return nil, nil
	}
	creds := server.Credentials.OAuth2
	if strings.TrimSpace(creds.TokenURL) == "" {
		return nil, fmt.Errorf("%w: oauth2 token url is not set", domain.ErrConfigurationIncomplete)
	}

	refreshToken := creds.RefreshToken
	if r.store != nil {
		stored, err := r.store.Token(server.Name)
		if err != nil {
			return nil, fmt.Errorf("load oauth2 token: %w", err)
		}
		if stored != nil && stored.RefreshToken != "" {
			refreshToken = stored.RefreshToken
		}
	}
	if refreshToken == "" {
		r.logger.Info("no refresh token available", zap.String("server", server.Name))
		return nil, nil
	}

	conf := &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: creds.TokenURL},
		Scopes:       creds.Scopes,
	}
	if r.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, r.httpClient)
	}
	token, err := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, fmt.Errorf("refresh oauth2 token: %w", err)
	}

	if r.store != nil {
		if err := r.store.SaveToken(server.Name, token); err != nil {
			r.logger.Warn("persist refreshed token failed", zap.String("server", server.Name), zap.Error(err))
		}
	}
	r.logger.Debug("oauth2 token refreshed", zap.String("server", server.Name), zap.Time("expiry", token.Expiry))

	headers := make(map[string]string, len(current)+1)
	for key, value := range current {
		headers[key] = value
	}
	setHeader(headers, "Authorization", "Bearer "+token.AccessToken)
	return headers, nil
}
