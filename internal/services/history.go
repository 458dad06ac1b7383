package services

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"promptdesk-backend/internal/models"
	"promptdesk-backend/internal/repository"
)

type HistoryService struct {
	repo   *repository.ConversationRepo
	events EventPublisher
	log    zerolog.Logger
	now    func() time.Time
}

func NewHistoryService(repo *repository.ConversationRepo, events EventPublisher, log zerolog.Logger) *HistoryService {
	return &HistoryService{
		repo:   repo,
		events: publisherOrNoop(events),
		log:    log.With().Str("component", "history").Logger(),
		now:    time.Now,
	}
}

func (s *HistoryService) List(ctx context.Context) ([]models.Conversation, error) {
	history, err := s.repo.ListNewestFirst(ctx)
	if err != nil {
		return nil, storageFailure(err, "Échec de la lecture de l'historique")
	}
	return history, nil
}

// Save upserts a conversation by timestamp and returns the timestamp it was
// stored under. A missing timestamp is set to the current time in ms.
func (s *HistoryService) Save(ctx context.Context, in models.ConversationInput) (int64, error) {
	if !in.HasMessages {
		return 0, &ValidationError{Fields: map[string]string{"messages": "La conversation doit inclure des messages"}}
	}

	c := in.Conversation
	if !in.HasTimestamp {
		c.Timestamp = s.now().UnixMilli()
	}

	replaced, err := s.repo.Save(ctx, c)
	if err != nil {
		return 0, storageFailure(err, "Échec de la sauvegarde de la conversation")
	}

	action := "created"
	if replaced {
		action = "updated"
	}
	id := strconv.FormatInt(c.Timestamp, 10)
	s.log.Debug().Str("timestamp", id).Str("action", action).Int("messages", len(c.Messages)).Msg("conversation saved")
	s.events.Publish(changeEvent(models.EventConversations, action, id))
	return c.Timestamp, nil
}

func (s *HistoryService) Delete(ctx context.Context, timestamp string) error {
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return &InvalidArgumentError{Message: "Horodatage invalide: " + timestamp}
	}

	err = s.repo.Delete(ctx, ts)
	if errors.Is(err, repository.ErrNotFound) {
		return &NotFoundError{Message: "Conversation non trouvée"}
	}
	if err != nil {
		return storageFailure(err, "Échec de la sauvegarde de l'historique mis à jour")
	}

	s.events.Publish(changeEvent(models.EventConversations, "deleted", timestamp))
	return nil
}

func (s *HistoryService) Clear(ctx context.Context) error {
	if err := s.repo.Clear(ctx); err != nil {
		return storageFailure(err, "Échec de l'effacement de l'historique")
	}
	s.log.Info().Msg("conversation history cleared")
	s.events.Publish(changeEvent(models.EventConversations, "cleared", ""))
	return nil
}
