// Package main is the shellgate command.
//
// shellgate hosts interactive terminal sessions behind an HTTP and WebSocket
// API. A workspace may name its own shell in its settings folder; that choice
// is ignored until the user allows it with the trust subcommands.
//
// Configuration:
//   - Environment variables (12-factor, see internal/infrastructure/config)
//   - CLI flags (override env vars)
//   - Defaults for development
//
// Usage:
//
//	# Serve the API
//	shellgate serve --port 8000
//
//	# Development mode (colored logs, debug level)
//	shellgate serve --dev
//
//	# Decide on a workspace shell
//	shellgate trust allow ~/src/project
//	shellgate trust query ~/src/project
//	shellgate trust list
//
//	# Show what a new terminal would launch
//	shellgate resolve ~/src/project --json
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
