package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"promptdesk-backend/internal/database"
)

var (
	ErrNotFound              = errors.New("record not found")
	ErrFavoritesLimitReached = errors.New("favorites limit reached")
)

// StorageError reports a document that could not be read, decoded or written.
type StorageError struct {
	Document string
	Op       string // "read" | "decode" | "encode" | "write"
	Err      error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Document, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// WriteObserver is told about every attempted document write.
type WriteObserver interface {
	ObserveDocumentWrite(document string, err error)
}

type Options struct {
	Logger zerolog.Logger
	// LenientReads treats unreadable or corrupt documents as empty instead
	// of failing the request.
	LenientReads bool
	Writes       WriteObserver
}

// document serializes every access to one named JSON document. update holds
// the lock across load, mutate and save so concurrent requests cannot lose
// each other's writes.
type document[D any] struct {
	mu      sync.Mutex
	store   database.DocumentStore
	name    string
	lenient bool
	log     zerolog.Logger
	writes  WriteObserver
}

func newDocument[D any](store database.DocumentStore, name string, opts Options) *document[D] {
	return &document[D]{
		store:   store,
		name:    name,
		lenient: opts.LenientReads,
		log:     opts.Logger.With().Str("document", name).Logger(),
		writes:  opts.Writes,
	}
}

func (d *document[D]) read(ctx context.Context) (D, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.loadLocked(ctx)
}

func (d *document[D]) update(ctx context.Context, fn func(D, bool) (D, error)) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	current, found, err := d.loadLocked(ctx)
	if err != nil {
		return err
	}
	next, err := fn(current, found)
	if err != nil {
		return err
	}
	return d.saveLocked(ctx, next)
}

func (d *document[D]) write(ctx context.Context, v D) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.saveLocked(ctx, v)
}

func (d *document[D]) loadLocked(ctx context.Context) (D, bool, error) {
	var v D

	data, err := d.store.Load(ctx, d.name)
	if errors.Is(err, database.ErrDocumentNotFound) {
		return v, false, nil
	}
	if err != nil {
		return d.readFailure("read", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return v, false, nil
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return d.readFailure("decode", err)
	}
	return v, true, nil
}

func (d *document[D]) readFailure(op string, err error) (D, bool, error) {
	var v D
	if d.lenient && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		d.log.Warn().Err(err).Str("op", op).Msg("document unreadable, treating as empty")
		return v, false, nil
	}
	return v, false, &StorageError{Document: d.name, Op: op, Err: err}
}

func (d *document[D]) saveLocked(ctx context.Context, v D) error {
	data, err := encodeDocument(v)
	if err != nil {
		return &StorageError{Document: d.name, Op: "encode", Err: err}
	}

	err = d.store.Save(ctx, d.name, data)
	if d.writes != nil {
		d.writes.ObserveDocumentWrite(d.name, err)
	}
	if err != nil {
		d.log.Error().Err(err).Msg("document write failed")
		return &StorageError{Document: d.name, Op: "write", Err: err}
	}
	d.log.Debug().Int("bytes", len(data)).Msg("document written")
	return nil
}

// encodeDocument produces the on-disk form: 4-space indent, no HTML escaping,
// non-ASCII left as is.
func encodeDocument(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
