// Package http provides HTTP handlers and routing for the shellgate REST API.
//
// Handlers are thin: each route becomes one entry of the terminal command
// table, so REST calls and POST /commands/execute share validation, metrics
// and error mapping.
//
// Endpoints:
//   - Health: / and /health (reports confirm_exit_required)
//   - Terminals: /terminals, /terminals/:id, /terminals/:id/{kill,focus,input,resize,lines,search}
//   - Trust: /trust, /trust/decisions, /trust/allow, /trust/disallow
//   - Commands: /commands, /commands/execute
//
// Errors map to status codes through StatusFor: unknown terminals are 404,
// shells that fail to launch are 422, malformed input is 400, and a spent
// launch budget is 429.
//
// Example Usage:
//
//	handlers := http.NewHandlers(provider, registry, gate, metrics, http.Options{}, logger)
//	handlers.Register(router)
package http
