package bot

import (
	"testing"
)

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		wantErr     bool
		wantGuild   string
		wantLevel   string
		wantMetrics string
	}{
		{
			name:        "defaults",
			env:         map[string]string{"DISCORD_TOKEN": "test-token"},
			wantLevel:   "info",
			wantMetrics: ":9090",
		},
		{
			name: "guild scoped",
			env: map[string]string{
				"DISCORD_TOKEN":    "test-token",
				"DISCORD_GUILD_ID": "123456789012345678",
				"LOG_LEVEL":        "debug",
			},
			wantGuild:   "123456789012345678",
			wantLevel:   "debug",
			wantMetrics: ":9090",
		},
		{
			name:    "empty token",
			env:     map[string]string{"DISCORD_TOKEN": ""},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := LoadConfig()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if got := cfg.CommandScope(); got != tt.wantGuild {
				t.Errorf("expected command scope %q, got %q", tt.wantGuild, got)
			}
			if cfg.LogLevel != tt.wantLevel {
				t.Errorf("expected log level %q, got %q", tt.wantLevel, cfg.LogLevel)
			}
			if cfg.MetricsAddr != tt.wantMetrics {
				t.Errorf("expected metrics addr %q, got %q", tt.wantMetrics, cfg.MetricsAddr)
			}
		})
	}
}
