package handlers

import (
	"context"
	"net/http"

	"promptdesk-backend/internal/models"
)

type chatService interface {
	Send(ctx context.Context, req models.ChatRequest) ([]byte, error)
}

type ChatHandler struct {
	chat chatService
}

func NewChatHandler(chat chatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// Send relays the message and writes the inference response body as is.
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := decodeBody(r, &req, "Aucun message fourni"); err != nil {
		handleServiceError(w, r, err)
		return
	}

	body, err := h.chat.Send(r.Context(), req)
	if err != nil {
		if r.Context().Err() != nil {
			// Client went away; nobody is left to read a response.
			return
		}
		handleServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
