package bot

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds the bot configuration loaded from environment variables.
type Config struct {
	DiscordToken string `env:"DISCORD_TOKEN,notEmpty"`

	// GuildID registers commands in a single guild instead of globally.
	// Guild commands update instantly, which suits development bots.
	GuildID string `env:"DISCORD_GUILD_ID"`

	LogLevel    string `env:"LOG_LEVEL"    envDefault:"info"`
	MetricsAddr string `env:"METRICS_ADDR" envDefault:":9090"`
}

// LoadConfig loads configuration from environment variables.
// Returns an error if required fields are missing.
func LoadConfig() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse bot config: %w", err)
	}

	return cfg, nil
}

// CommandScope returns the guild commands are registered in, or an empty
// string for global registration.
func (c *Config) CommandScope() string {
	return c.GuildID
}
