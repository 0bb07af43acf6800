// Package ws streams terminal events to UI clients over WebSocket.
//
// Each connection subscribes to the registry's event bus. Output bytes travel
// base64 encoded inside "event" messages; slow connections miss events rather
// than stalling terminals.
//
// Message Types (Client → Server):
//   - input: Send data to terminal_id (or the focused terminal)
//   - resize: Change cols and rows
//   - command: Run any command from the terminal command table
//   - ping: Keep-alive ping
//
// Message Types (Server → Client):
//   - system: Connection accepted, carries connection_id
//   - event: created, output, title, bell, resize, exit, removed, focus,
//     copy or trust_required
//   - result: Reply to input, resize or command
//   - pong: Reply to ping
//   - error: Request failed
//
// Example Usage:
//
//	handler := ws.NewHandler(registry, provider, cfg.Server.AllowedOrigins, logger)
//	router.GET("/stream", handler.HandleConnection)
package ws
