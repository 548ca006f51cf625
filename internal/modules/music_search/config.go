package music_search

import (
	"errors"
	"fmt"
	"time"
)

// Bilibili backend modes.
const (
	BilibiliModeBuiltin = "builtin"
	BilibiliModePlugin  = "plugin"
	BilibiliModeOff     = "off"
)

// HTTP client kinds.
const (
	HTTPClientStandard = "standard"
	HTTPClientBrowser  = "browser"
)

var (
	errUnknownBilibiliMode = errors.New("unknown BILIBILI_MODE")
	errUnknownHTTPClient   = errors.New("unknown HTTP_CLIENT")
	errMissingPluginURL    = errors.New("PLUGIN_URL is required when BILIBILI_MODE=plugin")
	errInvalidSessionTimes = errors.New("SESSION_IDLE_TIMEOUT and SESSION_SWEEP_INTERVAL must be positive")
)

// Config holds the music search module configuration.
type Config struct {
	SearchLimit int `env:"SEARCH_LIMIT" envDefault:"30"`

	// Sessions idle for SessionIdleTimeout are dropped on the next sweep.
	SessionIdleTimeout   time.Duration `env:"SESSION_IDLE_TIMEOUT"   envDefault:"1h"`
	SessionSweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" envDefault:"5m"`

	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT" envDefault:"15s"`
	HTTPClient  string        `env:"HTTP_CLIENT"  envDefault:"standard"`

	BilibiliMode string `env:"BILIBILI_MODE" envDefault:"builtin"`

	PluginURL            string        `env:"PLUGIN_URL"`
	PluginRequestTimeout time.Duration `env:"PLUGIN_REQUEST_TIMEOUT" envDefault:"20s"`
	PluginInitTimeout    time.Duration `env:"PLUGIN_INIT_TIMEOUT"    envDefault:"10s"`

	// Lavalink sources are disabled when LavalinkAddress is empty.
	LavalinkAddress        string   `env:"LAVALINK_ADDRESS"`
	LavalinkPassword       string   `env:"LAVALINK_PASSWORD"`
	LavalinkSecure         bool     `env:"LAVALINK_SECURE"`
	LavalinkSearchPrefixes []string `env:"LAVALINK_SEARCH_PREFIXES" envDefault:"ytsearch" envSeparator:","`
}

// Validate checks option combinations env tags cannot express.
func (c *Config) Validate() error {
	switch c.BilibiliMode {
	case BilibiliModeBuiltin, BilibiliModeOff:
	case BilibiliModePlugin:
		if c.PluginURL == "" {
			return errMissingPluginURL
		}
	default:
		return fmt.Errorf("%w: %q", errUnknownBilibiliMode, c.BilibiliMode)
	}

	if c.SessionIdleTimeout <= 0 || c.SessionSweepInterval <= 0 {
		return errInvalidSessionTimes
	}

	switch c.HTTPClient {
	case HTTPClientStandard, HTTPClientBrowser:
	default:
		return fmt.Errorf("%w: %q", errUnknownHTTPClient, c.HTTPClient)
	}

	return nil
}
