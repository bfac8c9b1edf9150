package protocol

// WebSocket message type constants
const (
	// Server to view
	WSTypeNotice        = "notice"
	WSTypeTagDiscovered = "tagDiscovered"
	WSTypeSessionState  = "sessionState"
	WSTypeOpenLink      = "openLink"
	WSTypeError         = "error"

	// View to server
	WSTypeCardAction = "cardAction"

	// Responses to view requests
	WSTypeCardActionResponse = "cardActionResponse"
)

// WebSocketMessage is the generic message envelope for WebSocket communication.
type WebSocketMessage struct {
	ID      string `json:"id,omitempty"`
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// WebSocketRequest is for incoming requests from WebSocket clients.
type WebSocketRequest struct {
	ID      string         `json:"id,omitempty"`
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}

// WebSocketResponse is for responses to WebSocket requests.
type WebSocketResponse struct {
	ID      string `json:"id,omitempty"`
	Type    string `json:"type"`
	Success bool   `json:"success"`
	Payload any    `json:"payload,omitempty"`
	Error   string `json:"error,omitempty"`
}

// NoticePayload is a one-shot message to show to the user.
type NoticePayload struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// TagPayload describes a discovered tag.
type TagPayload struct {
	ID          string              `json:"id"`
	Type        string              `json:"type,omitempty"`
	TechTypes   []string            `json:"techTypes,omitempty"`
	NdefMessage []NDEFRecordPayload `json:"ndefMessage,omitempty"`
}

// NDEFRecordPayload is one record of a tag's NDEF message.
type NDEFRecordPayload struct {
	TNF     byte   `json:"tnf"`
	Type    string `json:"type"`
	ID      string `json:"id,omitempty"`
	Payload []byte `json:"payload"` // base64 in JSON
	Text    string `json:"text,omitempty"`
	URI     string `json:"uri,omitempty"`
}

// SessionStatePayload reports the NFC session state.
type SessionStatePayload struct {
	State string `json:"state"`
}

// OpenLinkPayload asks the view to open a URL.
type OpenLinkPayload struct {
	ActionID string `json:"actionID,omitempty"`
	URL      string `json:"url"`
}

// CardActionPayload is sent by a view when the user activates a card action.
type CardActionPayload struct {
	ActionID string `json:"actionID"`
}

// CardActionResult is the payload of a successful cardActionResponse.
type CardActionResult struct {
	ActionID string `json:"actionID"`
	Kind     string `json:"kind"`
}

// ErrorPayload carries a machine-readable error code.
type ErrorPayload struct {
	Code string `json:"code"`
}
