package plugin

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// ServerConfig holds the configuration of a plugin process.
type ServerConfig struct {
	ListenAddr     string        `env:"PLUGIN_LISTEN_ADDR"     envDefault:":8790"`
	HTTPTimeout    time.Duration `env:"HTTP_TIMEOUT"           envDefault:"15s"`
	HTTPClient     string        `env:"HTTP_CLIENT"            envDefault:"standard"`
	RequestTimeout time.Duration `env:"PLUGIN_REQUEST_TIMEOUT" envDefault:"20s"`
	LogLevel       string        `env:"LOG_LEVEL"              envDefault:"info"`
	MetricsAddr    string        `env:"METRICS_ADDR"`
}

// LoadServerConfig loads the plugin configuration from environment variables.
func LoadServerConfig() (*ServerConfig, error) {
	cfg := &ServerConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse plugin config: %w", err)
	}
	return cfg, nil
}
