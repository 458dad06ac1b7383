package database

import (
	"context"
	"errors"
)

// Document names shared by every backend.
const (
	PromptsDocument  = "prompts.json"
	HistoryDocument  = "conversation_history.json"
	SettingsDocument = "config.json"
)

var ErrDocumentNotFound = errors.New("document not found")

// DocumentStore holds whole JSON documents by name. Load returns
// ErrDocumentNotFound when nothing was ever saved under name.
type DocumentStore interface {
	Load(ctx context.Context, name string) ([]byte, error)
	Save(ctx context.Context, name string, data []byte) error
	Close() error
}
