package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	Terminal  TerminalConfig
	Trust     TrustConfig
	Settings  SettingsConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8000"`
	Host            string        `envconfig:"HOST" default:"127.0.0.1"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	AllowedOrigins  []string      `envconfig:"CORS_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
	// SpawnPerSecond bounds terminal launches across all clients
	SpawnPerSecond int `envconfig:"SPAWN_LIMIT_RPS" default:"5"`
	SpawnBurst     int `envconfig:"SPAWN_LIMIT_BURST" default:"10"`
}

// TerminalConfig holds terminal session behaviour.
type TerminalConfig struct {
	Scrollback         int           `envconfig:"TERMINAL_SCROLLBACK" default:"1000"`
	KillGrace          time.Duration `envconfig:"TERMINAL_KILL_GRACE" default:"3s"`
	FindHistory        int           `envconfig:"TERMINAL_FIND_HISTORY" default:"10"`
	Cols               int           `envconfig:"TERMINAL_COLS" default:"80"`
	Rows               int           `envconfig:"TERMINAL_ROWS" default:"24"`
	EnableBell         bool          `envconfig:"TERMINAL_ENABLE_BELL" default:"false"`
	CopyOnSelection    bool          `envconfig:"TERMINAL_COPY_ON_SELECTION" default:"false"`
	ConfirmOnExit      bool          `envconfig:"TERMINAL_CONFIRM_ON_EXIT" default:"false"`
	SetLocaleVariables bool          `envconfig:"TERMINAL_SET_LOCALE_VARIABLES" default:"false"`
	Locale             string        `envconfig:"TERMINAL_LOCALE" default:"en_US.UTF-8"`
	// Platform overrides the detected platform (linux, osx, windows)
	Platform string `envconfig:"TERMINAL_PLATFORM"`
}

// TrustConfig holds workspace trust persistence settings.
type TrustConfig struct {
	// StorePath defaults to the user config directory when empty
	StorePath string `envconfig:"TRUST_STORE"`
}

// SettingsConfig locates the settings layers.
type SettingsConfig struct {
	// UserPath defaults to settings.json beside the trust store when empty
	UserPath     string `envconfig:"SETTINGS_USER"`
	WorkspaceDir string `envconfig:"SETTINGS_WORKSPACE_DIR" default:".shellgate"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Validate rejects values no component can run with.
func (c *Config) Validate() error {
	switch {
	case c.Terminal.Scrollback <= 0:
		return fmt.Errorf("invalid config: TERMINAL_SCROLLBACK must be positive, got %d", c.Terminal.Scrollback)
	case c.Terminal.Cols <= 0 || c.Terminal.Rows <= 0:
		return fmt.Errorf("invalid config: terminal size %dx%d", c.Terminal.Cols, c.Terminal.Rows)
	case c.Terminal.KillGrace < 0:
		return fmt.Errorf("invalid config: TERMINAL_KILL_GRACE must not be negative")
	case c.Terminal.FindHistory <= 0:
		return fmt.Errorf("invalid config: TERMINAL_FIND_HISTORY must be positive, got %d", c.Terminal.FindHistory)
	}
	return nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8000",
			Host:            "127.0.0.1",
			ShutdownTimeout: 10 * time.Second,
			AllowedOrigins:  []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
			SpawnPerSecond:    5,
			SpawnBurst:        10,
		},
		Terminal: TerminalConfig{
			Scrollback:  1000,
			KillGrace:   3 * time.Second,
			FindHistory: 10,
			Cols:        80,
			Rows:        24,
			Locale:      "en_US.UTF-8",
		},
		Settings: SettingsConfig{
			WorkspaceDir: ".shellgate",
		},
	}
}
