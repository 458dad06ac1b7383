package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"promptdesk-backend/internal/models"
	"promptdesk-backend/internal/services"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.Encode(data)
}

func errorResp(code, message string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			RequestID: r.Header.Get("X-Request-ID"),
		},
	}
}

func errorRespWithFields(code, message string, fields map[string]string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			Fields:    fields,
			RequestID: r.Header.Get("X-Request-ID"),
		},
	}
}

func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validationErr  *services.ValidationError
		badRequestErr  *services.BadRequestError
		invalidArgErr  *services.InvalidArgumentError
		notFoundErr    *services.NotFoundError
		favoritesErr   *services.FavoritesLimitError
		unavailableErr *services.ServiceUnavailableError
		upstreamErr    *services.UpstreamError
		persistenceErr *services.PersistenceError
	)

	switch {
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Données invalides", validationErr.Fields, r))
	case errors.As(err, &badRequestErr):
		writeJSON(w, http.StatusBadRequest, errorResp("BAD_REQUEST", badRequestErr.Message, r))
	case errors.As(err, &invalidArgErr):
		writeJSON(w, http.StatusBadRequest, errorResp("INVALID_ARGUMENT", invalidArgErr.Message, r))
	case errors.As(err, &notFoundErr):
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", notFoundErr.Message, r))
	case errors.As(err, &favoritesErr):
		writeJSON(w, http.StatusBadRequest, errorResp("FAVORITES_LIMIT_REACHED", favoritesErr.Error(), r))
	case errors.As(err, &unavailableErr):
		writeJSON(w, http.StatusServiceUnavailable, errorResp("SERVICE_UNAVAILABLE", unavailableErr.Message, r))
	case errors.As(err, &upstreamErr):
		writeJSON(w, http.StatusBadGateway, errorResp("UPSTREAM_ERROR", upstreamErr.Error(), r))
	case errors.As(err, &persistenceErr):
		writeJSON(w, http.StatusInternalServerError, errorResp("PERSISTENCE_ERROR", persistenceErr.Message, r))
	default:
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Une erreur inattendue est survenue", r))
	}
}

// decodeBody decodes a JSON request body into v. An empty body is reported
// as a BadRequestError carrying message.
func decodeBody(r *http.Request, v interface{}, message string) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return &services.BadRequestError{Message: message}
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return &services.BadRequestError{Message: message}
	}
	if err := json.Unmarshal(body, v); err != nil {
		return &services.BadRequestError{Message: message}
	}
	return nil
}
