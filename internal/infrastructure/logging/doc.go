// Package logging provides structured logging using uber/zap.
//
// Two modes are supported:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Components receive a plain *zap.Logger from Component and treat nil as a
// no-op logger, so tests never need to build one.
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	defer logger.Close()
//	logger.Info("Server starting", zap.String("port", "8000"))
//	registry := terminal.NewRegistry(cfg, resolver, loader, gate, spawner, logger.Component("terminal"))
package logging
