// Package auth provides Spotify token persistence and a refreshing token source.
package auth

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/oauth2"
)

// fileToken is the on-disk token layout.
type fileToken struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
	TokenType    string    `json:"tokenType,omitempty"`
}

// Store persists a single token as JSON.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore creates a store backed by the file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the stored token. Returns nil without error when no file exists.
func (s *Store) Load() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read token file")
	}

	var ft fileToken
	if err := json.Unmarshal(data, &ft); err != nil {
		return nil, errors.Wrap(err, "failed to parse token file")
	}
	return &oauth2.Token{
		AccessToken:  ft.AccessToken,
		RefreshToken: ft.RefreshToken,
		Expiry:       ft.ExpiresAt,
		TokenType:    ft.TokenType,
	}, nil
}

// Save writes the token atomically with owner-only permissions.
func (s *Store) Save(tok *oauth2.Token) error {
	if tok == nil {
		return errors.New("token is nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(fileToken{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry,
		TokenType:    tok.TokenType,
	}, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode token")
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return errors.Wrap(err, "failed to create token directory")
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return errors.Wrap(err, "failed to write token file")
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return errors.Wrap(err, "failed to replace token file")
	}
	return nil
}
