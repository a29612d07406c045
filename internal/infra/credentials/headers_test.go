package credentials

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"mcpdiscover/internal/domain"
)

func TestHeaderBuilder_Modes(t *testing.T) {
	tests := []struct {
		name   string
		server domain.ServerConfig
		want   map[string]string
	}{
		{
			name:   "none keeps static headers",
			server: domain.ServerConfig{Headers: map[string]string{"x-trace": "1"}},
			want:   map[string]string{"X-Trace": "1"},
		},
		{
			name: "header auth",
			server: domain.ServerConfig{
				Authentication: domain.AuthHeader,
				Credentials:    domain.Credentials{HeaderName: "x-api-key", HeaderValue: "secret"},
			},
			want: map[string]string{"X-Api-Key": "secret"},
		},
		{
			name: "bearer overrides static authorization",
			server: domain.ServerConfig{
				Authentication: domain.AuthBearer,
				Headers:        map[string]string{"authorization": "Basic old"},
				Credentials:    domain.Credentials{BearerToken: "abc"},
			},
			want: map[string]string{"Authorization": "Bearer abc"},
		},
		{
			name: "oauth2 uses configured access token",
			server: domain.ServerConfig{
				Name:           "demo",
				Authentication: domain.AuthOAuth2,
				Credentials:    domain.Credentials{OAuth2: domain.OAuth2Credentials{AccessToken: "configured"}},
			},
			want: map[string]string{"Authorization": "Bearer configured"},
		},
		{
			name: "oauth2 without token sends nothing",
			server: domain.ServerConfig{
				Name:           "demo",
				Authentication: domain.AuthOAuth2,
			},
			want: map[string]string{},
		},
	}

	builder := NewHeaderBuilder(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := builder.AuthHeaders(context.Background(), tt.server)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestHeaderBuilder_OAuth2PrefersStoredToken(t *testing.T) {
	store := openTestStore(t)
	require.NoError(t, store.SaveToken("demo", &oauth2.Token{AccessToken: "stored"}))

	got, err := NewHeaderBuilder(store).AuthHeaders(context.Background(), domain.ServerConfig{
		Name:           "demo",
		Authentication: domain.AuthOAuth2,
		Credentials:    domain.Credentials{OAuth2: domain.OAuth2Credentials{AccessToken: "configured"}},
	})
	require.NoError(t, err)
	require.Equal(t, map[string]string{"Authorization": "Bearer stored"}, got)
}

func TestHeaderBuilder_Incomplete(t *testing.T) {
	builder := NewHeaderBuilder(nil)

	_, err := builder.AuthHeaders(context.Background(), domain.ServerConfig{Authentication: domain.AuthHeader})
	require.ErrorIs(t, err, domain.ErrConfigurationIncomplete)

	_, err = builder.AuthHeaders(context.Background(), domain.ServerConfig{Authentication: domain.AuthBearer})
	require.ErrorIs(t, err, domain.ErrConfigurationIncomplete)

	_, err = builder.AuthHeaders(context.Background(), domain.ServerConfig{Authentication: "digest"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "digest")
}
