package models

// ContextTurn is one prior turn the frontend sends along with a chat message.
type ContextTurn struct {
	IsUser bool   `json:"isUser"`
	Text   string `json:"text"`
}

// ChatRequest is the payload sent to POST /chat.
type ChatRequest struct {
	Prompt         string        `json:"prompt"`
	ConversationID any           `json:"conversationId,omitempty"`
	Timestamp      *int64        `json:"timestamp,omitempty"`
	Context        []ContextTurn `json:"context"`
	IsTitle        bool          `json:"isTitle"`
}

// GenerateRequest is the body of an Ollama /api/generate call.
type GenerateRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	Stream      bool    `json:"stream"`
	Temperature float64 `json:"temperature"`
	MaxLength   int     `json:"max_length"`
}
