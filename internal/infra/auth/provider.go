package auth

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
)

var (
	// ErrAuth marks every failure to obtain a usable access token.
	ErrAuth = errors.New("spotify authorization failed")
	// ErrNoToken is returned when nothing has been stored yet.
	ErrNoToken = errors.New("no token stored, run the auth command first")
)

// Config represents the OAuth client configuration.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	TokenURL     string // defaults to the Spotify accounts endpoint
}

// Scopes returns the scopes needed for search, playback control and library edits.
func Scopes() []string {
	return []string{
		spotifyauth.ScopeUserReadPlaybackState,
		spotifyauth.ScopeUserModifyPlaybackState,
		spotifyauth.ScopeUserReadCurrentlyPlaying,
		spotifyauth.ScopeUserReadPrivate,
		spotifyauth.ScopeUserLibraryRead,
		spotifyauth.ScopeUserLibraryModify,
		spotifyauth.ScopePlaylistReadPrivate,
		spotifyauth.ScopePlaylistModifyPublic,
		spotifyauth.ScopePlaylistModifyPrivate,
	}
}

// OAuthConfig builds the oauth2 configuration for cfg.
func OAuthConfig(cfg Config) *oauth2.Config {
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = spotifyauth.TokenURL
	}
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes:       Scopes(),
		Endpoint: oauth2.Endpoint{
			AuthURL:   spotifyauth.AuthURL,
			TokenURL:  tokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}
}

// Provider hands out valid access tokens, refreshing and persisting them lazily.
// It implements oauth2.TokenSource and is shared by all sessions.
type Provider struct {
	store  *Store
	config *oauth2.Config

	mu    sync.Mutex
	token *oauth2.Token
}

// NewProvider creates a provider backed by store.
func NewProvider(store *Store, cfg Config) *Provider {
	return &Provider{
		store:  store,
		config: OAuthConfig(cfg),
	}
}

// LoadToken reads the stored token into memory.
func (p *Provider) LoadToken() (*oauth2.Token, error) {
	tok, err := p.store.Load()
	if err != nil {
		return nil, errors.Mark(err, ErrAuth)
	}

	p.mu.Lock()
	p.token = tok
	p.mu.Unlock()
	return tok, nil
}

// SaveToken persists tok and makes it current.
func (p *Provider) SaveToken(tok *oauth2.Token) error {
	if err := p.store.Save(tok); err != nil {
		return err
	}

	p.mu.Lock()
	p.token = tok
	p.mu.Unlock()
	return nil
}

// GetValidAccessToken returns an unexpired access token, refreshing if needed.
func (p *Provider) GetValidAccessToken(ctx context.Context) (string, error) {
	tok, err := p.valid(ctx)
	if err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}

// Token implements oauth2.TokenSource.
func (p *Provider) Token() (*oauth2.Token, error) {
	return p.valid(context.Background())
}

func (p *Provider) valid(ctx context.Context) (*oauth2.Token, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token == nil {
		tok, err := p.store.Load()
		if err != nil {
			return nil, errors.Mark(err, ErrAuth)
		}
		if tok == nil {
			return nil, errors.Mark(errors.Wrapf(ErrNoToken, "token file %s", p.store.Path()), ErrAuth)
		}
		p.token = tok
	}
	if p.token.Valid() {
		return p.token, nil
	}
	if p.token.RefreshToken == "" {
		return nil, errors.Mark(errors.New("access token expired and no refresh token stored"), ErrAuth)
	}

	refreshed, err := p.config.TokenSource(ctx, &oauth2.Token{RefreshToken: p.token.RefreshToken}).Token()
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "failed to refresh access token"), ErrAuth)
	}
	if refreshed.RefreshToken == "" {
		refreshed.RefreshToken = p.token.RefreshToken
	}
	p.token = refreshed

	if err := p.store.Save(refreshed); err != nil {
		// The refreshed token still works for this process.
		zlog.Error().Msgf("auth: failed to persist refreshed token: error=%v", err)
	}
	zlog.Info().Msgf("auth: access token refreshed: expires_at=%s", refreshed.Expiry.Format("15:04:05"))
	return refreshed, nil
}
