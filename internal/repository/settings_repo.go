package repository

import (
	"context"

	"promptdesk-backend/internal/database"
	"promptdesk-backend/internal/models"
)

type SettingsRepo struct {
	doc *document[models.Settings]
}

// NewSettingsRepo stores settings under name, which differs from
// database.SettingsDocument when the settings file lives outside the data
// directory.
func NewSettingsRepo(store database.DocumentStore, name string, opts Options) *SettingsRepo {
	if name == "" {
		name = database.SettingsDocument
	}
	// A corrupt settings document must not be mistaken for a missing one,
	// or startup would overwrite it with defaults.
	opts.LenientReads = false
	return &SettingsRepo{doc: newDocument[models.Settings](store, name, opts)}
}

// Load returns the stored settings and whether the document exists.
func (r *SettingsRepo) Load(ctx context.Context) (models.Settings, bool, error) {
	return r.doc.read(ctx)
}

func (r *SettingsRepo) Save(ctx context.Context, s models.Settings) error {
	return r.doc.write(ctx, s)
}
