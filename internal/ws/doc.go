// Package ws provides the WebSocket invoke transport.
//
// Applets and the deck shell hold one long-lived connection each and
// invoke service tools over it instead of issuing a POST per call.
// Connections opened with an ?applet=<id> query parameter are scoped to
// that applet's manifest permissions.
//
// Message Types (Client → Server):
//   - invoke: Execute a tool ({"type":"invoke","id":"1","tool":"net.fetch","params":{...}})
//   - ping: Keep-alive ping
//
// Message Types (Server → Client):
//   - system: Connection established
//   - result: Tool result, correlated by the client-chosen id
//   - pong: Keep-alive reply
//   - error: Malformed frame, denied invocation, or transport failure
//
// Example Usage:
//
//	handler := ws.NewHandler(registry, applets, metrics, log)
//	router.GET("/stream", handler.HandleConnection)
package ws
