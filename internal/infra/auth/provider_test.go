package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestStore_LoadMissing(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "token.json"))
	tok, err := s.Load()
	require.NoError(t, err)
	assert.Nil(t, tok)
}

func TestStore_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")
	s := NewStore(path)
	expiry := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	require.NoError(t, s.Save(&oauth2.Token{AccessToken: "a", RefreshToken: "r", Expiry: expiry}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"accessToken": "a"`)
	assert.Contains(t, string(data), `"refreshToken": "r"`)
	assert.Contains(t, string(data), `"expiresAt"`)

	tok, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, "a", tok.AccessToken)
	assert.Equal(t, "r", tok.RefreshToken)
	assert.True(t, expiry.Equal(tok.Expiry))
}

func TestStore_LoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewStore(path).Load()
	assert.Error(t, err)
}

func newTokenServer(t *testing.T, status int, calls *int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(t, "old-refresh", r.PostForm.Get("refresh_token"))

		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			fmt.Fprint(w, `{"error":"invalid_grant"}`)
			return
		}
		fmt.Fprint(w, `{"access_token":"fresh","token_type":"Bearer","expires_in":3600}`)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestProvider_ValidTokenIsNotRefreshed(t *testing.T) {
	var calls int32
	server := newTokenServer(t, http.StatusOK, &calls)
	store := NewStore(filepath.Join(t.TempDir(), "token.json"))
	require.NoError(t, store.Save(&oauth2.Token{AccessToken: "current", RefreshToken: "old-refresh", Expiry: time.Now().Add(time.Hour)}))

	p := NewProvider(store, Config{ClientID: "id", ClientSecret: "secret", TokenURL: server.URL})
	got, err := p.GetValidAccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "current", got)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestProvider_RefreshesAndPersists(t *testing.T) {
	var calls int32
	server := newTokenServer(t, http.StatusOK, &calls)
	store := NewStore(filepath.Join(t.TempDir(), "token.json"))
	require.NoError(t, store.Save(&oauth2.Token{AccessToken: "stale", RefreshToken: "old-refresh", Expiry: time.Now().Add(-time.Hour)}))

	p := NewProvider(store, Config{ClientID: "id", ClientSecret: "secret", TokenURL: server.URL})
	got, err := p.GetValidAccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh", got)

	// Second call uses the cached refreshed token.
	tok, err := p.Token()
	require.NoError(t, err)
	assert.Equal(t, "fresh", tok.AccessToken)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	persisted, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "fresh", persisted.AccessToken)
	assert.Equal(t, "old-refresh", persisted.RefreshToken, "refresh token is kept when not rotated")
}

func TestProvider_RefreshFailureIsAuthError(t *testing.T) {
	var calls int32
	server := newTokenServer(t, http.StatusBadRequest, &calls)
	store := NewStore(filepath.Join(t.TempDir(), "token.json"))
	require.NoError(t, store.Save(&oauth2.Token{AccessToken: "stale", RefreshToken: "old-refresh", Expiry: time.Now().Add(-time.Hour)}))

	p := NewProvider(store, Config{ClientID: "id", ClientSecret: "secret", TokenURL: server.URL})
	_, err := p.GetValidAccessToken(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAuth))
}

func TestProvider_NoToken(t *testing.T) {
	p := NewProvider(NewStore(filepath.Join(t.TempDir(), "missing.json")), Config{ClientID: "id"})

	_, err := p.GetValidAccessToken(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAuth))
	assert.True(t, errors.Is(err, ErrNoToken))
}

func TestProvider_SaveAndLoadToken(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "token.json"))
	p := NewProvider(store, Config{ClientID: "id"})

	require.NoError(t, p.SaveToken(&oauth2.Token{AccessToken: "saved", Expiry: time.Now().Add(time.Hour)}))
	got, err := p.GetValidAccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "saved", got)

	other := NewProvider(store, Config{ClientID: "id"})
	tok, err := other.LoadToken()
	require.NoError(t, err)
	assert.Equal(t, "saved", tok.AccessToken)
}
