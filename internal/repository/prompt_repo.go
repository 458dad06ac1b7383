package repository

import (
	"context"
	"strconv"

	"promptdesk-backend/internal/database"
	"promptdesk-backend/internal/models"
)

type PromptRepo struct {
	doc *document[[]models.Prompt]
}

func NewPromptRepo(store database.DocumentStore, opts Options) *PromptRepo {
	return &PromptRepo{doc: newDocument[[]models.Prompt](store, database.PromptsDocument, opts)}
}

func (r *PromptRepo) List(ctx context.Context) ([]models.Prompt, error) {
	prompts, _, err := r.doc.read(ctx)
	if err != nil {
		return nil, err
	}
	if prompts == nil {
		prompts = []models.Prompt{}
	}
	return prompts, nil
}

// Create appends p with id len(prompts)+1 and isFavorite false. The id is
// not unique once a prompt has been deleted: deleting "2" out of 1,2,3 makes
// the next create return "3" again.
func (r *PromptRepo) Create(ctx context.Context, p models.Prompt) (string, error) {
	var id string
	err := r.doc.update(ctx, func(prompts []models.Prompt, _ bool) ([]models.Prompt, error) {
		id = strconv.Itoa(len(prompts) + 1)
		p.ID = id
		p.IsFavorite = false
		return append(prompts, p), nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// Replace swaps the first prompt with the given id for p, keeping only its
// favorite flag.
func (r *PromptRepo) Replace(ctx context.Context, id string, p models.Prompt) error {
	return r.doc.update(ctx, func(prompts []models.Prompt, _ bool) ([]models.Prompt, error) {
		i := indexOfPrompt(prompts, id)
		if i < 0 {
			return nil, ErrNotFound
		}
		p.ID = id
		p.IsFavorite = prompts[i].IsFavorite
		prompts[i] = p
		return prompts, nil
	})
}

// Delete removes every prompt with the given id. Deleting an unknown id is
// not an error, the document is rewritten either way.
func (r *PromptRepo) Delete(ctx context.Context, id string) error {
	return r.doc.update(ctx, func(prompts []models.Prompt, _ bool) ([]models.Prompt, error) {
		kept := make([]models.Prompt, 0, len(prompts))
		for _, p := range prompts {
			if p.ID != id {
				kept = append(kept, p)
			}
		}
		return kept, nil
	})
}

// SetFavorite marks or unmarks a prompt. Marking fails with
// ErrFavoritesLimitReached when limit prompts are already favorites; the
// count is taken under the document lock.
func (r *PromptRepo) SetFavorite(ctx context.Context, id string, favorite bool, limit int) error {
	return r.doc.update(ctx, func(prompts []models.Prompt, _ bool) ([]models.Prompt, error) {
		count := 0
		for _, p := range prompts {
			if p.IsFavorite {
				count++
			}
		}

		i := indexOfPrompt(prompts, id)
		if i < 0 {
			return nil, ErrNotFound
		}

		if favorite && count >= limit {
			return nil, ErrFavoritesLimitReached
		}
		prompts[i].IsFavorite = favorite
		return prompts, nil
	})
}

func indexOfPrompt(prompts []models.Prompt, id string) int {
	for i, p := range prompts {
		if p.ID == id {
			return i
		}
	}
	return -1
}
