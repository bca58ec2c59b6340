// Package main provides the server entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	apiconnect "github.com/osa030/muse/internal/api/connect"
	"github.com/osa030/muse/internal/app/bgm"
	"github.com/osa030/muse/internal/app/filter"
	"github.com/osa030/muse/internal/app/session"
	"github.com/osa030/muse/internal/domain/action"
	"github.com/osa030/muse/internal/infra/auth"
	"github.com/osa030/muse/internal/infra/config"
	"github.com/osa030/muse/internal/infra/logger"
	"github.com/osa030/muse/internal/infra/mqtt"
	"github.com/osa030/muse/internal/infra/spotify"
)

var (
	app        = kingpin.New("muse-server", "muse music command server")
	configPath = app.Flag("config", "Path to config file").Default("config/server.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()

	// list commands
	listFiltersCmd = app.Command("list-filters", "List search result filters and exit")
	listVerbsCmd   = app.Command("list-verbs", "List supported action verbs and exit")
)

func init() {
	// start command (default) - no need to store the command
	app.Command("start", "Start the server (default)").Default()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	switch command {
	case listFiltersCmd.FullCommand():
		printFilters()
		return
	case listVerbsCmd.FullCommand():
		printVerbs()
		return
	}

	// Initialize logger
	loggerConfig := logger.Config{
		Output: "stdout",
		Level:  "info",
	}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = *logfile
		loggerConfig.File = *logfile
	}
	if err := logger.Init(loggerConfig); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Server error: %v", err)
		os.Exit(1)
	}
}

// run executes the main server logic. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(cfg *config.Config) error {
	ctx := context.Background()

	// Token provider shared by every session
	tokens := auth.NewProvider(auth.NewStore(cfg.Spotify.TokenFile), auth.Config{
		ClientID:     cfg.Spotify.ClientID,
		ClientSecret: cfg.Spotify.ClientSecret,
		RedirectURL:  cfg.Spotify.RedirectURI,
	})
	if _, err := tokens.GetValidAccessToken(ctx); err != nil {
		return fmt.Errorf("spotify token unavailable (run muse-auth first): %w", err)
	}

	spotifyClient := spotify.New(spotify.Config{
		Market:            cfg.Spotify.Market,
		RequestsPerSecond: cfg.Spotify.RequestsPerSecond,
		Burst:             cfg.Spotify.Burst,
		MaxRetries:        cfg.Spotify.MaxRetries,
	}, tokens)

	if err := validatePlaylists(ctx, cfg, spotifyClient); err != nil {
		return fmt.Errorf("playlist validation failed: %w", err)
	}

	random, err := bgm.NewProviderChainFromConfig(cfg.Random, spotifyClient)
	if err != nil {
		return fmt.Errorf("failed to create random music providers: %w", err)
	}

	sessionMgr := session.NewManager(cfg, spotifyClient, random)

	// Mirror notifications to MQTT
	if cfg.MQTT.Enabled {
		publisher, err := mqtt.New(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("failed to connect MQTT: %w", err)
		}
		defer publisher.Close()
		sessionMgr.GetNotificationManager().Subscribe("", publisher)
	}

	// Register services
	interceptors := connect.WithInterceptors(apiconnect.NewHostAuthInterceptor(cfg))
	mux := http.NewServeMux()
	mux.Handle(apiconnect.NewActionServiceHandler(apiconnect.NewActionService(sessionMgr), interceptors))
	mux.Handle(apiconnect.NewSessionServiceHandler(apiconnect.NewSessionService(sessionMgr), interceptors))

	// Create server with h2c (HTTP/2 cleartext) support
	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: h2c.NewHandler(mux, &http2.Server{}),
	}

	serverErrCh := make(chan error, 1)
	serverStartedCh := make(chan struct{})

	go func() {
		zlog.Info().Msgf("Starting server: addr=%s", cfg.Server.Addr)
		close(serverStartedCh)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		}
	}()

	<-serverStartedCh
	// Give the server a moment to fully initialize
	time.Sleep(100 * time.Millisecond)

	executeHooks(cfg.Server.Hooks.OnStarted, "on_started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		zlog.Info().Msg("Received shutdown signal...")
	case err := <-serverErrCh:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Close sessions first so monitors stop before the streams go away
	sessionMgr.Shutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Msgf("Failed to shutdown server: %v", err)
	}

	zlog.Info().Msg("Server stopped")

	executeHooks(cfg.Server.Hooks.OnStopped, "on_stopped")

	return nil
}

// printFilters prints the search result filters.
func printFilters() {
	registered := filter.GetRegistered()
	names := make([]string, 0, len(registered))
	for name := range registered {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("Search Result Filters:")
	for _, name := range names {
		f := registered[name]()
		codes := strings.Join(f.ReturnCodes(), ", ")
		fmt.Printf("  %-20s - %s [codes: %s]\n", f.Name(), f.Description(), codes)
	}
}

// printVerbs prints the supported action verbs.
func printVerbs() {
	fmt.Println("Action Verbs:")
	for _, verb := range action.Verbs() {
		fmt.Printf("  %s\n", verb)
	}
}

// validatePlaylists validates that configured playlists exist on Spotify.
// It includes retry logic to handle transient errors during startup.
func validatePlaylists(ctx context.Context, cfg *config.Config, spotifyClient *spotify.Client) error {
	maxRetries := 5
	baseDelay := 1 * time.Second

	var errs []string

	validate := func(name, url string) error {
		zlog.Info().Msgf("Validating %s playlist: url=%s", name, url)

		var lastErr error
		for i := 0; i < maxRetries; i++ {
			if i > 0 {
				delay := baseDelay * time.Duration(1<<uint(i-1))
				zlog.Info().Msgf("Retrying %s playlist validation in %v...", name, delay)
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(delay):
				}
			}

			if err := spotifyClient.CheckPlaylistExists(ctx, url); err != nil {
				lastErr = err
				zlog.Warn().Msgf("Failed to validate %s playlist (attempt %d/%d): %v", name, i+1, maxRetries, err)
				continue
			}

			zlog.Info().Msgf("Playlist %q validated successfully", name)
			return nil
		}
		return fmt.Errorf("failed after %d attempts: %v", maxRetries, lastErr)
	}

	names := make([]string, 0, len(cfg.SpecialPlaylists))
	for name := range cfg.SpecialPlaylists {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		url := cfg.SpecialPlaylists[name]
		if err := validate(name, url); err != nil {
			errs = append(errs, fmt.Sprintf("special playlist %s (%s): %v", name, url, err))
		}
	}

	for _, p := range cfg.Random.Providers {
		if p.Type != "playlist" {
			continue
		}
		url, _ := p.Settings["playlist_url"].(string)
		if url == "" {
			continue
		}
		if err := validate(p.DisplayName, url); err != nil {
			errs = append(errs, fmt.Sprintf("random provider %s (%s): %v", p.DisplayName, url, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("playlist validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// executeHooks runs a list of shell commands.
func executeHooks(hooks []string, stage string) {
	if len(hooks) == 0 {
		return
	}

	zlog.Info().Msgf("Executing %s hooks (%d commands)", stage, len(hooks))

	for _, hook := range hooks {
		zlog.Info().Msgf("Executing hook: %s", hook)
		// Use sh -c to allow shell features like redirection or pipes
		cmd := exec.Command("sh", "-c", hook)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr

		if err := cmd.Run(); err != nil {
			zlog.Error().Err(err).Msgf("Failed to execute hook: %s", hook)
		}
	}
}
