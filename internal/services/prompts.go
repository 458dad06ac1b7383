package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"promptdesk-backend/internal/models"
	"promptdesk-backend/internal/repository"
)

// Favorites ceilings per client platform.
const (
	MobileFavoritesLimit  = 3
	DesktopFavoritesLimit = 6
)

func FavoritesLimit(isMobile bool) int {
	if isMobile {
		return MobileFavoritesLimit
	}
	return DesktopFavoritesLimit
}

type PromptService struct {
	repo   *repository.PromptRepo
	events EventPublisher
	log    zerolog.Logger
}

func NewPromptService(repo *repository.PromptRepo, events EventPublisher, log zerolog.Logger) *PromptService {
	return &PromptService{
		repo:   repo,
		events: publisherOrNoop(events),
		log:    log.With().Str("component", "prompts").Logger(),
	}
}

func (s *PromptService) List(ctx context.Context) ([]models.Prompt, error) {
	prompts, err := s.repo.List(ctx)
	if err != nil {
		return nil, storageFailure(err, "Échec de la lecture des prompts")
	}
	return prompts, nil
}

func (s *PromptService) Create(ctx context.Context, in models.PromptInput) (string, error) {
	if err := validatePrompt(in); err != nil {
		return "", err
	}

	id, err := s.repo.Create(ctx, in.Prompt)
	if err != nil {
		return "", storageFailure(err, "Échec de la sauvegarde du prompt")
	}

	s.log.Info().Str("prompt_id", id).Msg("prompt created")
	s.events.Publish(changeEvent(models.EventPrompts, "created", id))
	return id, nil
}

func (s *PromptService) Update(ctx context.Context, id string, in models.PromptInput) error {
	if err := validatePrompt(in); err != nil {
		return err
	}

	err := s.repo.Replace(ctx, id, in.Prompt)
	if errors.Is(err, repository.ErrNotFound) {
		return &NotFoundError{Message: "Prompt non trouvé"}
	}
	if err != nil {
		return storageFailure(err, "Échec de la mise à jour du prompt")
	}

	s.events.Publish(changeEvent(models.EventPrompts, "updated", id))
	return nil
}

// Delete removes every prompt carrying id. Unknown ids are not an error.
func (s *PromptService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return storageFailure(err, "Échec de la suppression du prompt")
	}
	s.events.Publish(changeEvent(models.EventPrompts, "deleted", id))
	return nil
}

func (s *PromptService) SetFavorite(ctx context.Context, req models.FavoriteRequest, isMobile bool) error {
	if req.PromptID == "" || (req.Action != models.FavoriteAdd && req.Action != models.FavoriteRemove) {
		return &BadRequestError{Message: "Données de requête invalides"}
	}

	limit := FavoritesLimit(isMobile)
	err := s.repo.SetFavorite(ctx, req.PromptID, req.Action == models.FavoriteAdd, limit)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return &NotFoundError{Message: "Prompt non trouvé"}
	case errors.Is(err, repository.ErrFavoritesLimitReached):
		s.log.Debug().Str("prompt_id", req.PromptID).Int("limit", limit).Msg("favorites limit reached")
		return &FavoritesLimitError{Limit: limit}
	case err != nil:
		return storageFailure(err, "Échec de la sauvegarde des prompts")
	}

	s.events.Publish(changeEvent(models.EventPrompts, "favorite", req.PromptID))
	return nil
}

func validatePrompt(in models.PromptInput) error {
	missing := in.Missing()
	if len(missing) == 0 {
		return nil
	}
	fields := make(map[string]string, len(missing))
	for _, f := range missing {
		fields[f] = "Champ requis"
	}
	return &ValidationError{Fields: fields}
}
