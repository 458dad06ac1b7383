package repository

import (
	"context"
	"sort"

	"promptdesk-backend/internal/database"
	"promptdesk-backend/internal/models"
)

type ConversationRepo struct {
	doc *document[[]models.Conversation]
}

func NewConversationRepo(store database.DocumentStore, opts Options) *ConversationRepo {
	return &ConversationRepo{doc: newDocument[[]models.Conversation](store, database.HistoryDocument, opts)}
}

// ListNewestFirst returns every conversation ordered by timestamp, newest
// first. Records without a timestamp sort as 0.
func (r *ConversationRepo) ListNewestFirst(ctx context.Context) ([]models.Conversation, error) {
	history, _, err := r.doc.read(ctx)
	if err != nil {
		return nil, err
	}
	if history == nil {
		return []models.Conversation{}, nil
	}
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].Timestamp > history[j].Timestamp
	})
	return history, nil
}

// Save replaces the conversation sharing c.Timestamp, or appends c when
// there is none. It reports whether an existing record was replaced.
func (r *ConversationRepo) Save(ctx context.Context, c models.Conversation) (bool, error) {
	replaced := false
	err := r.doc.update(ctx, func(history []models.Conversation, _ bool) ([]models.Conversation, error) {
		for i := range history {
			if history[i].Timestamp == c.Timestamp {
				history[i] = c
				replaced = true
				return history, nil
			}
		}
		return append(history, c), nil
	})
	return replaced, err
}

// Delete removes every conversation with the timestamp, failing with
// ErrNotFound when none matched.
func (r *ConversationRepo) Delete(ctx context.Context, timestamp int64) error {
	return r.doc.update(ctx, func(history []models.Conversation, _ bool) ([]models.Conversation, error) {
		kept := make([]models.Conversation, 0, len(history))
		for _, c := range history {
			if c.Timestamp != timestamp {
				kept = append(kept, c)
			}
		}
		if len(kept) == len(history) {
			return nil, ErrNotFound
		}
		return kept, nil
	})
}

func (r *ConversationRepo) Clear(ctx context.Context) error {
	return r.doc.write(ctx, []models.Conversation{})
}
