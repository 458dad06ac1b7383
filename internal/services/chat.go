package services

import (
	"context"
	"strings"

	"promptdesk-backend/internal/models"
)

// contextTurns is how many prior turns are folded into the prompt.
const contextTurns = 4

type ChatService struct {
	settings *SettingsService
	ollama   *OllamaClient
}

func NewChatService(settings *SettingsService, ollama *OllamaClient) *ChatService {
	return &ChatService{settings: settings, ollama: ollama}
}

// Send relays one chat message to the inference endpoint configured in the
// current settings and returns its response body unchanged.
func (s *ChatService) Send(ctx context.Context, req models.ChatRequest) ([]byte, error) {
	if req.Prompt == "" {
		return nil, &BadRequestError{Message: "Aucun message fourni"}
	}

	settings := s.settings.Get()
	return s.ollama.Generate(ctx, settings.OllamaURL(), models.GenerateRequest{
		Model:       settings.Model(),
		Prompt:      BuildPrompt(req.Prompt, req.Context, req.IsTitle),
		Stream:      false,
		Temperature: settings.Temperature(),
		MaxLength:   settings.MaxLength(),
	})
}

// BuildPrompt prefixes message with the last few context turns unless this
// is a title request.
func BuildPrompt(message string, turns []models.ContextTurn, isTitle bool) string {
	if len(turns) == 0 || isTitle {
		return message
	}
	if len(turns) > contextTurns {
		turns = turns[len(turns)-contextTurns:]
	}

	lines := make([]string, 0, len(turns))
	for _, t := range turns {
		role := "Assistant"
		if t.IsUser {
			role = "Utilisateur"
		}
		lines = append(lines, role+": "+t.Text)
	}
	return strings.Join(lines, " ") + "\n\nUtilisateur: " + message
}
