package models

// APIError is the error body returned by every failing endpoint.
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}

// WebSocket message types pushed to session subscribers.
const (
	WSTypeLoading       = "loading"
	WSTypeTurnComplete  = "turn_complete"
	WSTypeTurnDiscarded = "turn_discarded"
)

// WSMessage is the envelope for all WebSocket pushes.
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}
