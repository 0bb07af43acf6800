// Package config provides 12-factor configuration management for shellgate.
//
// Configuration is loaded from environment variables with sensible defaults.
// CLI flags can override environment variables for development flexibility.
// Shell paths and arguments are not configured here; they come from the
// User and Workspace settings files read by the settings package.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host, CORS origins, shutdown)
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting and the shared launch budget
//   - Terminal: Scrollback, kill grace period, find history, bell, copy on
//     selection, confirm on exit, locale variables
//   - Trust: Location of the workspace trust store
//   - Settings: User settings file and workspace settings folder
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Server running on %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//
// Environment Variables:
//   - PORT, HOST, SHUTDOWN_TIMEOUT, CORS_ORIGINS
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED,
//     SPAWN_LIMIT_RPS, SPAWN_LIMIT_BURST
//   - TERMINAL_SCROLLBACK, TERMINAL_KILL_GRACE, TERMINAL_FIND_HISTORY,
//     TERMINAL_COLS, TERMINAL_ROWS, TERMINAL_ENABLE_BELL,
//     TERMINAL_COPY_ON_SELECTION, TERMINAL_CONFIRM_ON_EXIT,
//     TERMINAL_SET_LOCALE_VARIABLES, TERMINAL_LOCALE, TERMINAL_PLATFORM
//   - TRUST_STORE, SETTINGS_USER, SETTINGS_WORKSPACE_DIR
package config
