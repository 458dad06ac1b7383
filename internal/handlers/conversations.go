package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"promptdesk-backend/internal/models"
)

type historyService interface {
	List(ctx context.Context) ([]models.Conversation, error)
	Save(ctx context.Context, in models.ConversationInput) (int64, error)
	Delete(ctx context.Context, timestamp string) error
	Clear(ctx context.Context) error
}

type ConversationHandler struct {
	history historyService
}

func NewConversationHandler(history historyService) *ConversationHandler {
	return &ConversationHandler{history: history}
}

func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	history, err := h.history.List(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (h *ConversationHandler) Save(w http.ResponseWriter, r *http.Request) {
	var in models.ConversationInput
	if err := decodeBody(r, &in, "Aucune donnée de conversation fournie"); err != nil {
		handleServiceError(w, r, err)
		return
	}

	ts, err := h.history.Save(r.Context(), in)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, models.ConversationSavedResponse{
		Message:   "Conversation sauvegardée avec succès",
		Timestamp: ts,
	})
}

func (h *ConversationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.history.Delete(r.Context(), chi.URLParam(r, "timestamp")); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ConversationHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.history.Clear(r.Context()); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.MessageResponse{Message: "Historique effacé avec succès"})
}
