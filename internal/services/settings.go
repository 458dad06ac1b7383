package services

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"promptdesk-backend/internal/models"
	"promptdesk-backend/internal/repository"
)

// SettingsService keeps the user settings in memory and writes the full
// document through on every update.
type SettingsService struct {
	repo   *repository.SettingsRepo
	events EventPublisher
	log    zerolog.Logger

	mu       sync.RWMutex
	current  models.Settings
	updateMu sync.Mutex
}

func NewSettingsService(repo *repository.SettingsRepo, events EventPublisher, log zerolog.Logger) *SettingsService {
	return &SettingsService{
		repo:    repo,
		events:  publisherOrNoop(events),
		log:     log.With().Str("component", "settings").Logger(),
		current: models.DefaultSettings(),
	}
}

// Load reads the settings document, creating it with defaults when absent.
func (s *SettingsService) Load(ctx context.Context) error {
	settings, found, err := s.repo.Load(ctx)
	if err != nil {
		return storageFailure(err, "Configuration non chargée correctement")
	}
	if !found || settings == nil {
		settings = models.DefaultSettings()
		if err := s.repo.Save(ctx, settings); err != nil {
			return storageFailure(err, "Échec de la création de la configuration")
		}
		s.log.Info().Msg("settings document created with defaults")
	}

	s.mu.Lock()
	s.current = settings
	s.mu.Unlock()
	return nil
}

// Get returns a copy of the current settings.
func (s *SettingsService) Get() models.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// Update shallow-merges partial into the current settings. Memory is only
// changed once the merged document has been persisted.
func (s *SettingsService) Update(ctx context.Context, partial models.Settings) error {
	if len(partial) == 0 {
		return &BadRequestError{Message: "Aucun paramètre fourni"}
	}

	s.updateMu.Lock()
	defer s.updateMu.Unlock()

	merged := s.Get()
	for k, v := range partial {
		merged[k] = v
	}
	if err := s.repo.Save(ctx, merged); err != nil {
		return storageFailure(err, "Échec de la sauvegarde des paramètres")
	}

	s.mu.Lock()
	s.current = merged
	s.mu.Unlock()

	keys := make([]string, 0, len(partial))
	for k := range partial {
		keys = append(keys, k)
	}
	s.log.Info().Strs("keys", keys).Msg("settings updated")
	s.events.Publish(changeEvent(models.EventSettings, "updated", ""))
	return nil
}
