// Package protocol provides the message types the card agent exchanges with
// its views. It is importable without pulling in server dependencies.
package protocol

// HealthResponse is returned by GET /api/v1/health.
type HealthResponse struct {
	Status    string        `json:"status"`
	Timestamp string        `json:"timestamp"` // RFC3339
	Version   string        `json:"version"`
	Session   string        `json:"session"`
	Views     int           `json:"views"`
	Messages  []string      `json:"messages,omitempty"` // websocket message types served
	Reader    *ReaderStatus `json:"reader,omitempty"`
}

// ReaderStatus describes the NFC reader behind the session.
type ReaderStatus struct {
	Connected    bool   `json:"connected"`
	Device       string `json:"device,omitempty"`
	Pending      bool   `json:"pending"`
	CardPresent  bool   `json:"cardPresent"`
	AlertMessage string `json:"alertMessage,omitempty"`
}

// ErrorResponse is the body of HTTP error responses.
type ErrorResponse struct {
	Error     string `json:"error"`
	ErrorCode string `json:"errorCode,omitempty"`
}

// Error codes used in ErrorResponse and WebSocket error payloads
const (
	ErrCodeParseError     = "PARSE_ERROR"
	ErrCodeUnknownType    = "UNKNOWN_TYPE"
	ErrCodeUnknownAction  = "UNKNOWN_ACTION"
	ErrCodeInvalidRequest = "INVALID_REQUEST"
	ErrCodeInternalError  = "INTERNAL_ERROR"
)
