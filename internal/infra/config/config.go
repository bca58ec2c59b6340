// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ErrConfiguration marks configuration that cannot be loaded or is invalid.
var ErrConfiguration = errors.New("invalid configuration")

// Config represents the application configuration.
type Config struct {
	Server           ServerConfig      `yaml:"server"`
	Spotify          SpotifyConfig     `yaml:"spotify"`
	Monitor          MonitorConfig     `yaml:"monitor"`
	History          HistoryConfig     `yaml:"history"`
	Dispatch         DispatchConfig    `yaml:"dispatch"`
	Random           RandomConfig      `yaml:"random"`
	SpecialPlaylists map[string]string `yaml:"special_playlists"`
	MQTT             MQTTConfig        `yaml:"mqtt"`
	Messages         MessagesConfig    `yaml:"messages"`
}

// ServerConfig represents server configuration.
type ServerConfig struct {
	Addr  string      `yaml:"addr" default:":8080"`
	Token string      `yaml:"token" validate:"required"` // Shared secret of the host
	Hooks HooksConfig `yaml:"hooks"`
}

// HooksConfig represents lifecycle hooks configuration.
type HooksConfig struct {
	OnStarted []string `yaml:"on_started"`
	OnStopped []string `yaml:"on_stopped"`
}

// SpotifyConfig represents Spotify API configuration.
type SpotifyConfig struct {
	ClientID          string  `yaml:"client_id" validate:"required"`
	ClientSecret      string  `yaml:"client_secret" validate:"required"`
	RedirectURI       string  `yaml:"redirect_uri" validate:"required,url"`
	TokenFile         string  `yaml:"token_file" validate:"required"`
	Market            string  `yaml:"market" validate:"omitempty,len=2"`
	SearchLimit       int     `yaml:"search_limit" default:"10" validate:"gte=1,lte=50"`
	RequestsPerSecond float64 `yaml:"requests_per_second" default:"10" validate:"gt=0"`
	Burst             int     `yaml:"burst" default:"5" validate:"gte=1"`
	MaxRetries        int     `yaml:"max_retries" default:"3" validate:"gte=1,lte=10"`
}

// MonitorConfig represents playback monitor configuration.
type MonitorConfig struct {
	PollIntervalMs      int `yaml:"poll_interval_ms" default:"1000" validate:"gte=100,lte=60000"`
	PositionThresholdMs int `yaml:"position_threshold_ms" default:"1000" validate:"gte=1"`
}

// PollInterval returns the poll interval as a duration.
func (m MonitorConfig) PollInterval() time.Duration {
	return time.Duration(m.PollIntervalMs) * time.Millisecond
}

// HistoryConfig represents play history configuration.
type HistoryConfig struct {
	Size int `yaml:"size" default:"100" validate:"gte=1"`
}

// DispatchConfig represents command dispatcher configuration.
type DispatchConfig struct {
	VolumeStep  int `yaml:"volume_step" default:"10" validate:"gte=1,lte=100"`
	SeekStepSec int `yaml:"seek_step_sec" default:"10" validate:"gte=1"`
}

// RandomConfig represents random music configuration.
type RandomConfig struct {
	CandidateCount int              `yaml:"candidate_count" default:"5" validate:"gte=1,lte=50"`
	Providers      []ProviderConfig `yaml:"providers" validate:"dive"`
}

// ProviderConfig represents a single random music provider configuration.
type ProviderConfig struct {
	Type        string         `yaml:"type" validate:"required,oneof=playlist lastfm saved"`
	DisplayName string         `yaml:"display_name" validate:"required"`
	Settings    map[string]any `yaml:"settings"`
}

// MQTTConfig represents the MQTT state mirror configuration.
type MQTTConfig struct {
	Enabled   bool   `yaml:"enabled"`
	BrokerURL string `yaml:"broker_url" validate:"required_if=Enabled true"`
	ClientID  string `yaml:"client_id" default:"muse"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	TopicBase string `yaml:"topic_base" default:"muse"`
	QoS       byte   `yaml:"qos" validate:"lte=2"`
}

// Message codes.
const (
	MsgSuccess          = "success"
	MsgNoActiveDevice   = "no_active_device"
	MsgNothingPlaying   = "nothing_playing"
	MsgNoMatch          = "no_match"
	MsgAuthError        = "auth_error"
	MsgQueueNonTrack    = "queue_non_track"
	MsgNoDevices        = "no_devices"
	MsgDeviceNotFound   = "device_not_found"
	MsgNoPlaylists      = "no_playlists"
	MsgPlaylistNotFound = "playlist_not_found"
	MsgRandomFailed     = "random_failed"
	MsgGenericError     = "generic_error"
)

// MessagesConfig represents user-facing messages.
type MessagesConfig struct {
	Success          string `yaml:"success" default:"Done."`
	NoActiveDevice   string `yaml:"no_active_device" default:"No active device. Start Spotify on a device first."`
	NothingPlaying   string `yaml:"nothing_playing" default:"Nothing is playing right now."`
	NoMatch          string `yaml:"no_match" default:"No matching results."`
	AuthError        string `yaml:"auth_error" default:"Spotify authorization failed. Please sign in again."`
	QueueNonTrack    string `yaml:"queue_non_track" default:"Only tracks can be added to the queue."`
	NoDevices        string `yaml:"no_devices" default:"No devices found."`
	DeviceNotFound   string `yaml:"device_not_found" default:"Device not found."`
	NoPlaylists      string `yaml:"no_playlists" default:"You have no playlists."`
	PlaylistNotFound string `yaml:"playlist_not_found" default:"Playlist not found."`
	RandomFailed     string `yaml:"random_failed" default:"Could not find anything to play."`
	GenericError     string `yaml:"generic_error" default:"Something went wrong talking to Spotify."`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values for sensitive fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "failed to read config file"), ErrConfiguration)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "failed to parse config file"), ErrConfiguration)
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "failed to set defaults"), ErrConfiguration)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "config validation failed"), ErrConfiguration)
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("SPOTIFY_CLIENT_ID"); v != "" {
		c.Spotify.ClientID = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_SECRET"); v != "" {
		c.Spotify.ClientSecret = v
	}
	if v := os.Getenv("SPOTIFY_REDIRECT_URI"); v != "" {
		c.Spotify.RedirectURI = v
	}
	if v := os.Getenv("SPOTIFY_TOKEN_FILE"); v != "" {
		c.Spotify.TokenFile = v
	}
	if v := os.Getenv("MUSE_HOST_TOKEN"); v != "" {
		c.Server.Token = v
	}
	if v := os.Getenv("MQTT_PASSWORD"); v != "" {
		c.MQTT.Password = v
	}
	if v := os.Getenv("LASTFM_API_KEY"); v != "" {
		for i := range c.Random.Providers {
			if c.Random.Providers[i].Type == "lastfm" {
				if c.Random.Providers[i].Settings == nil {
					c.Random.Providers[i].Settings = map[string]any{}
				}
				c.Random.Providers[i].Settings["api_key"] = v
				break
			}
		}
	}
}

// GetMessage returns the message for the given code.
func (c *Config) GetMessage(code string) string {
	switch code {
	case MsgSuccess:
		return c.Messages.Success
	case MsgNoActiveDevice:
		return c.Messages.NoActiveDevice
	case MsgNothingPlaying:
		return c.Messages.NothingPlaying
	case MsgNoMatch:
		return c.Messages.NoMatch
	case MsgAuthError:
		return c.Messages.AuthError
	case MsgQueueNonTrack:
		return c.Messages.QueueNonTrack
	case MsgNoDevices:
		return c.Messages.NoDevices
	case MsgDeviceNotFound:
		return c.Messages.DeviceNotFound
	case MsgNoPlaylists:
		return c.Messages.NoPlaylists
	case MsgPlaylistNotFound:
		return c.Messages.PlaylistNotFound
	case MsgRandomFailed:
		return c.Messages.RandomFailed
	default:
		return c.Messages.GenericError
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	for name, uri := range c.SpecialPlaylists {
		if name == "" || uri == "" {
			return errors.Newf("special playlist entries need a name and a URI (got %q: %q)", name, uri)
		}
	}
	return nil
}
