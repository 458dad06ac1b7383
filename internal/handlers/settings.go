package handlers

import (
	"context"
	"net/http"

	"promptdesk-backend/internal/models"
)

type settingsService interface {
	Get() models.Settings
	Update(ctx context.Context, partial models.Settings) error
}

type SettingsHandler struct {
	settings settingsService
}

func NewSettingsHandler(settings settingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.settings.Get())
}

func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var partial models.Settings
	if err := decodeBody(r, &partial, "Aucun paramètre fourni"); err != nil {
		handleServiceError(w, r, err)
		return
	}

	if err := h.settings.Update(r.Context(), partial); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.MessageResponse{Message: "Paramètres mis à jour avec succès"})
}
