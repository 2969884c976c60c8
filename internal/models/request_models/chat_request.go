package request_models

// SendMessageRequest carries one user message. Message is left untyped so a
// non-string payload reaches the service and gets a clarifying reply
// instead of a binding error.
type SendMessageRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	Message   any    `json:"message"`
}

type StartSessionRequest struct {
	UserID string `json:"user_id"`
}
