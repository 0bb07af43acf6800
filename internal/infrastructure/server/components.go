package server

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/shellgate/internal/domain/settings"
	"github.com/GriffinCanCode/shellgate/internal/domain/shell"
	sessions "github.com/GriffinCanCode/shellgate/internal/domain/terminal"
	"github.com/GriffinCanCode/shellgate/internal/domain/trust"
	"github.com/GriffinCanCode/shellgate/internal/infrastructure/config"
)

// Platform returns the configured platform, or the running one
func Platform(cfg *config.Config) (shell.Platform, error) {
	if cfg.Terminal.Platform == "" {
		return shell.Current(), nil
	}
	return shell.ParsePlatform(cfg.Terminal.Platform)
}

// TrustStorePath returns the configured trust store, or the per-user default
func TrustStorePath(cfg *config.Config) (string, error) {
	if cfg.Trust.StorePath != "" {
		return cfg.Trust.StorePath, nil
	}
	return trust.DefaultStorePath()
}

// UserSettingsPath returns the configured user settings file. By default it
// sits beside the trust store; the file need not exist.
func UserSettingsPath(cfg *config.Config) (string, error) {
	if cfg.Settings.UserPath != "" {
		return cfg.Settings.UserPath, nil
	}
	storePath, err := TrustStorePath(cfg)
	if err != nil {
		return "", err
	}
	return filepath.Join(filepath.Dir(storePath), "settings.json"), nil
}

// NewGate opens the file-backed trust gate
func NewGate(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*trust.Gate, error) {
	path, err := TrustStorePath(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to locate trust store: %w", err)
	}
	return trust.NewGate(ctx, trust.NewFileStore(path), logger)
}

// NewSettingsLoader reads the user file and per-workspace settings folder
func NewSettingsLoader(cfg *config.Config) (*settings.Loader, error) {
	userPath, err := UserSettingsPath(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to locate user settings: %w", err)
	}
	return settings.NewLoader(userPath, cfg.Settings.WorkspaceDir), nil
}

// NewResolver uses the login shell from the process environment
func NewResolver() *shell.Resolver {
	return shell.NewResolver(shell.DetectDefaults(os.Getenv))
}

// RegistryConfig maps terminal settings onto the session registry
func RegistryConfig(cfg *config.Config) (sessions.Config, error) {
	platform, err := Platform(cfg)
	if err != nil {
		return sessions.Config{}, err
	}

	t := cfg.Terminal
	return sessions.Config{
		Platform: platform,
		Options: sessions.Options{
			Scrollback:      t.Scrollback,
			EnableBell:      t.EnableBell,
			CopyOnSelection: t.CopyOnSelection,
		},
		KillGrace:          t.KillGrace,
		DefaultCols:        t.Cols,
		DefaultRows:        t.Rows,
		HistorySize:        t.FindHistory,
		SetLocaleVariables: t.SetLocaleVariables,
		Locale:             t.Locale,
	}, nil
}
