package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"promptdesk-backend/internal/models"
)

type promptService interface {
	List(ctx context.Context) ([]models.Prompt, error)
	Create(ctx context.Context, in models.PromptInput) (string, error)
	Update(ctx context.Context, id string, in models.PromptInput) error
	Delete(ctx context.Context, id string) error
	SetFavorite(ctx context.Context, req models.FavoriteRequest, isMobile bool) error
}

type PromptHandler struct {
	prompts promptService
}

func NewPromptHandler(prompts promptService) *PromptHandler {
	return &PromptHandler{prompts: prompts}
}

func (h *PromptHandler) List(w http.ResponseWriter, r *http.Request) {
	prompts, err := h.prompts.List(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, prompts)
}

func (h *PromptHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in models.PromptInput
	if err := decodeBody(r, &in, "Données de prompt invalides"); err != nil {
		handleServiceError(w, r, err)
		return
	}

	id, err := h.prompts.Create(r.Context(), in)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, models.PromptCreatedResponse{Message: "Prompt sauvegardé avec succès", ID: id})
}

func (h *PromptHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in models.PromptInput
	if err := decodeBody(r, &in, "Données de prompt invalides"); err != nil {
		handleServiceError(w, r, err)
		return
	}

	if err := h.prompts.Update(r.Context(), chi.URLParam(r, "id"), in); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.MessageResponse{Message: "Prompt mis à jour avec succès"})
}

func (h *PromptHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.prompts.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Favorite adds or removes a favorite. X-Mobile: true selects the mobile limit.
func (h *PromptHandler) Favorite(w http.ResponseWriter, r *http.Request) {
	var req models.FavoriteRequest
	if err := decodeBody(r, &req, "Données de requête invalides"); err != nil {
		handleServiceError(w, r, err)
		return
	}

	isMobile := strings.EqualFold(strings.TrimSpace(r.Header.Get("X-Mobile")), "true")
	if err := h.prompts.SetFavorite(r.Context(), req, isMobile); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.SuccessResponse{Success: true})
}
