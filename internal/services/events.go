package services

import (
	"time"

	"promptdesk-backend/internal/models"
)

// EventPublisher receives a ChangeEvent after every successful mutation.
type EventPublisher interface {
	Publish(evt models.ChangeEvent)
}

type noopPublisher struct{}

func (noopPublisher) Publish(models.ChangeEvent) {}

func publisherOrNoop(p EventPublisher) EventPublisher {
	if p == nil {
		return noopPublisher{}
	}
	return p
}

func changeEvent(typ, action, id string) models.ChangeEvent {
	return models.ChangeEvent{Type: typ, Action: action, ID: id, At: time.Now().UTC()}
}
