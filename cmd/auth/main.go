// Package main provides the Spotify authorization tool.
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"

	"github.com/osa030/muse/internal/infra/auth"
	"github.com/osa030/muse/internal/infra/config"
)

var (
	app        = kingpin.New("muse-auth", "Spotify authorization tool for muse")
	configPath = app.Flag("config", "Path to config file").Default("config/server.yaml").String()
	timeout    = app.Flag("timeout", "How long to wait for the browser callback").Default("5m").Duration()

	authenticator *spotifyauth.Authenticator
	ch            = make(chan *oauth2.Token, 1)
	errCh         = make(chan error, 1)
	state         string
)

func main() {
	_ = godotenv.Load()
	kingpin.MustParse(app.Parse(os.Args[1:]))

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	redirect, err := url.Parse(cfg.Spotify.RedirectURI)
	if err != nil {
		log.Fatalf("Invalid redirect_uri: %v", err)
	}

	authenticator = spotifyauth.New(
		spotifyauth.WithRedirectURL(cfg.Spotify.RedirectURI),
		spotifyauth.WithClientID(cfg.Spotify.ClientID),
		spotifyauth.WithClientSecret(cfg.Spotify.ClientSecret),
		spotifyauth.WithScopes(auth.Scopes()...),
	)
	state = newState()

	mux := http.NewServeMux()
	mux.HandleFunc(redirect.Path, completeAuth)

	port := redirect.Port()
	if port == "" {
		port = "80"
	}
	server := &http.Server{Addr: net.JoinHostPort(redirect.Hostname(), port), Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	fmt.Println("Please visit the following URL to authorize muse:")
	fmt.Println("")
	fmt.Println(authenticator.AuthURL(state))
	fmt.Println("")
	fmt.Println("Waiting for authorization...")

	var token *oauth2.Token
	select {
	case token = <-ch:
	case err := <-errCh:
		log.Fatalf("Authorization failed: %v", err)
	case <-time.After(*timeout):
		log.Fatalf("Timed out waiting for authorization")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Failed to shutdown server: %v", err)
	}

	provider := auth.NewProvider(auth.NewStore(cfg.Spotify.TokenFile), auth.Config{
		ClientID:     cfg.Spotify.ClientID,
		ClientSecret: cfg.Spotify.ClientSecret,
		RedirectURL:  cfg.Spotify.RedirectURI,
	})
	if err := provider.SaveToken(token); err != nil {
		log.Fatalf("Failed to save token: %v", err)
	}

	fmt.Println("")
	fmt.Println("=== Authorization Successful ===")
	fmt.Printf("Token saved to %s\n", cfg.Spotify.TokenFile)
}

func completeAuth(w http.ResponseWriter, r *http.Request) {
	token, err := authenticator.Token(r.Context(), state, r)
	if err != nil {
		http.Error(w, "Couldn't get token", http.StatusForbidden)
		errCh <- err
		return
	}

	fmt.Fprintf(w, "Authorization successful! You can close this window.")
	ch <- token
}

func newState() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "muse-auth-state"
	}
	return hex.EncodeToString(b)
}
