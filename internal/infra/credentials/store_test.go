package credentials

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenStore(filepath.Join(t.TempDir(), "nested", "credentials.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_SaveAndLoad(t *testing.T) {
	store := openTestStore(t)

	token, err := store.Token("demo")
	require.NoError(t, err)
	require.Nil(t, token)

	expiry := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, store.SaveToken("demo", &oauth2.Token{
		AccessToken:  "access",
		TokenType:    "Bearer",
		RefreshToken: "refresh",
		Expiry:       expiry,
	}))

	token, err = store.Token(" demo ")
	require.NoError(t, err)
	require.NotNil(t, token)
	require.Equal(t, "access", token.AccessToken)
	require.Equal(t, "refresh", token.RefreshToken)
	require.True(t, expiry.Equal(token.Expiry))

	require.NoError(t, store.DeleteToken("demo"))
	token, err = store.Token("demo")
	require.NoError(t, err)
	require.Nil(t, token)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.db")
	store, err := OpenStore(path)
	require.NoError(t, err)
	require.NoError(t, store.SaveToken("demo", &oauth2.Token{AccessToken: "kept"}))
	require.NoError(t, store.Close())

	reopened, err := OpenStore(path)
	require.NoError(t, err)
	defer reopened.Close()
	token, err := reopened.Token("demo")
	require.NoError(t, err)
	require.Equal(t, "kept", token.AccessToken)
}

func TestStore_Validation(t *testing.T) {
	store := openTestStore(t)

	_, err := store.Token(" ")
	require.ErrorIs(t, err, ErrMissingServer)
	require.Error(t, store.SaveToken("demo", nil))

	_, err = OpenStore("")
	require.Error(t, err)
}

func TestStore_Closed(t *testing.T) {
	store := openTestStore(t)
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())

	_, err := store.Token("demo")
	require.ErrorIs(t, err, ErrStoreClosed)
	require.ErrorIs(t, store.SaveToken("demo", &oauth2.Token{}), ErrStoreClosed)
}
