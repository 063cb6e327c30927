// internal/handlers/ws_codes.go
package handlers

// Custom WebSocket close codes used by the table socket.
const (
	BadSubprotocolError   = 3000 // Client connected without the blackjack subprotocol.
	InvalidAuthTokenError = 3001 // Session token was missing or could not be issued.
	TableFailureError     = 3002 // The table failed while serving the connection.
)
