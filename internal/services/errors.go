package services

import (
	"errors"
	"fmt"

	"promptdesk-backend/internal/repository"
)

type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "Validation error" }

type BadRequestError struct{ Message string }

func (e *BadRequestError) Error() string { return e.Message }

type InvalidArgumentError struct{ Message string }

func (e *InvalidArgumentError) Error() string { return e.Message }

type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }

type FavoritesLimitError struct{ Limit int }

func (e *FavoritesLimitError) Error() string {
	return fmt.Sprintf("Limite de %d favoris atteinte", e.Limit)
}

type ServiceUnavailableError struct {
	Message string
	Err     error
}

func (e *ServiceUnavailableError) Error() string { return e.Message }

func (e *ServiceUnavailableError) Unwrap() error { return e.Err }

// UpstreamError is a non-2xx answer from the inference endpoint.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("Erreur Ollama: Statut %d, %s", e.StatusCode, e.Body)
}

type PersistenceError struct {
	Message string
	Err     error
}

func (e *PersistenceError) Error() string { return e.Message }

func (e *PersistenceError) Unwrap() error { return e.Err }

// storageFailure converts repository storage failures into PersistenceError
// and passes every other error through untouched.
func storageFailure(err error, message string) error {
	var storageErr *repository.StorageError
	if errors.As(err, &storageErr) {
		return &PersistenceError{Message: message, Err: err}
	}
	return err
}
