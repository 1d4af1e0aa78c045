package types

// CommandRequest is the payload accepted by POST /api/commands.
type CommandRequest struct {
	// Raw printer command to forward. The server appends a newline and writes
	// the bytes verbatim to the device.
	// example: M104 S210
	Command string `json:"command" example:"M104 S210"`
}

// ConsoleResponse wraps the recent raw console lines returned by GET /api/console.
type ConsoleResponse struct {
	// Most recent lines received from the printer, oldest first.
	Lines []string `json:"lines"`
}

// ClientFrame is a frame sent by a websocket subscriber to the server.
// Only command frames are understood; other types are ignored.
type ClientFrame struct {
	// Frame type discriminator.
	// example: command
	Type string `json:"type" example:"command"`
	// Printer command to forward when Type is "command".
	// example: G28
	Command string `json:"command,omitempty" example:"G28"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: printer not connected
	Error string `json:"error" example:"printer not connected"`
	// HTTP status code.
	// example: 503
	Code int `json:"code" example:"503"`
}
