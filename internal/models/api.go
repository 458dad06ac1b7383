package models

import "time"

// API Error response
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type PromptCreatedResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

type ConversationSavedResponse struct {
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

// Change feed event types
const (
	EventPrompts       = "prompts"
	EventConversations = "conversations"
	EventSettings      = "settings"
)

// ChangeEvent is pushed to websocket clients after a successful mutation.
type ChangeEvent struct {
	Type   string    `json:"type"`
	Action string    `json:"action"` // "created" | "updated" | "deleted" | "favorite" | "cleared"
	ID     string    `json:"id,omitempty"`
	At     time.Time `json:"at"`
}
