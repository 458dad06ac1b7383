package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"promptdesk-backend/internal/database"
	"promptdesk-backend/internal/models"
	"promptdesk-backend/internal/repository"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.ChangeEvent
}

func (p *recordingPublisher) Publish(evt models.ChangeEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []string
}

func (o *recordingObserver) ObserveInference(outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, outcome)
}

func newStore(t *testing.T) (*database.FileStore, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := database.NewFileStore(dir)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	return store, dir
}

func repoOptions() repository.Options {
	return repository.Options{Logger: zerolog.Nop()}
}

func promptInput(t *testing.T, raw string) models.PromptInput {
	t.Helper()
	var in models.PromptInput
	if err := json.Unmarshal([]byte(raw), &in); err != nil {
		t.Fatalf("decode prompt input: %v", err)
	}
	return in
}

func conversationInput(t *testing.T, raw string) models.ConversationInput {
	t.Helper()
	var in models.ConversationInput
	if err := json.Unmarshal([]byte(raw), &in); err != nil {
		t.Fatalf("decode conversation input: %v", err)
	}
	return in
}

func TestPromptService_CreateMissingFieldWritesNothing(t *testing.T) {
	store, dir := newStore(t)
	events := &recordingPublisher{}
	svc := NewPromptService(repository.NewPromptRepo(store, repoOptions()), events, zerolog.Nop())

	_, err := svc.Create(context.Background(), promptInput(t, `{"title": "t", "text": "x", "category": null}`))
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := vErr.Fields["category"]; !ok || len(vErr.Fields) != 1 {
		t.Fatalf("expected only category to be reported, got %v", vErr.Fields)
	}
	if _, err := os.Stat(filepath.Join(dir, database.PromptsDocument)); !os.IsNotExist(err) {
		t.Fatalf("expected no prompts document to be written, stat err=%v", err)
	}
	if events.count() != 0 {
		t.Fatalf("expected no events, got %d", events.count())
	}
}

func TestPromptService_CreateUpdateDelete(t *testing.T) {
	store, _ := newStore(t)
	events := &recordingPublisher{}
	svc := NewPromptService(repository.NewPromptRepo(store, repoOptions()), events, zerolog.Nop())
	ctx := context.Background()

	id, err := svc.Create(ctx, promptInput(t, `{"title": "Résumé", "category": "écriture", "text": "Résume ce texte", "isFavorite": true}`))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if id != "1" {
		t.Fatalf("expected id 1, got %q", id)
	}

	prompts, _ := svc.List(ctx)
	if prompts[0].IsFavorite {
		t.Fatalf("new prompts must not start as favorites")
	}

	err = svc.Update(ctx, "7", promptInput(t, `{"title": "a", "category": "b", "text": "c"}`))
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}

	if err := svc.Update(ctx, "1", promptInput(t, `{"title": "a", "category": "b", "text": "c"}`)); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := svc.Delete(ctx, "1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.Delete(ctx, "1"); err != nil {
		t.Fatalf("second delete should succeed, got %v", err)
	}

	if events.count() != 4 {
		t.Fatalf("expected 4 change events, got %d", events.count())
	}
}

func TestPromptService_MobileFavoritesLimit(t *testing.T) {
	store, _ := newStore(t)
	svc := NewPromptService(repository.NewPromptRepo(store, repoOptions()), nil, zerolog.Nop())
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		if _, err := svc.Create(ctx, promptInput(t, `{"title": "t", "category": "c", "text": "x"}`)); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	for _, id := range []string{"1", "2", "3"} {
		if err := svc.SetFavorite(ctx, models.FavoriteRequest{PromptID: id, Action: models.FavoriteAdd}, true); err != nil {
			t.Fatalf("favorite %s: %v", id, err)
		}
	}

	err := svc.SetFavorite(ctx, models.FavoriteRequest{PromptID: "4", Action: models.FavoriteAdd}, true)
	var limitErr *FavoritesLimitError
	if !errors.As(err, &limitErr) || limitErr.Limit != MobileFavoritesLimit {
		t.Fatalf("expected FavoritesLimitError with limit 3, got %v", err)
	}

	// The desktop ceiling is higher.
	if err := svc.SetFavorite(ctx, models.FavoriteRequest{PromptID: "4", Action: models.FavoriteAdd}, false); err != nil {
		t.Fatalf("desktop favorite: %v", err)
	}
}

func TestPromptService_SetFavoriteRejectsBadRequests(t *testing.T) {
	store, _ := newStore(t)
	svc := NewPromptService(repository.NewPromptRepo(store, repoOptions()), nil, zerolog.Nop())

	tests := []struct {
		name string
		req  models.FavoriteRequest
	}{
		{"missing id", models.FavoriteRequest{Action: models.FavoriteAdd}},
		{"unknown action", models.FavoriteRequest{PromptID: "1", Action: "toggle"}},
		{"missing action", models.FavoriteRequest{PromptID: "1"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := svc.SetFavorite(context.Background(), tc.req, false)
			var badReq *BadRequestError
			if !errors.As(err, &badReq) {
				t.Fatalf("expected BadRequestError, got %v", err)
			}
		})
	}

	err := svc.SetFavorite(context.Background(), models.FavoriteRequest{PromptID: "9", Action: models.FavoriteRemove}, false)
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestPromptService_CorruptDocumentIsPersistenceError(t *testing.T) {
	store, dir := newStore(t)
	if err := os.WriteFile(filepath.Join(dir, database.PromptsDocument), []byte("[{"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	svc := NewPromptService(repository.NewPromptRepo(store, repoOptions()), nil, zerolog.Nop())

	_, err := svc.List(context.Background())
	var pErr *PersistenceError
	if !errors.As(err, &pErr) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
	var storageErr *repository.StorageError
	if !errors.As(err, &storageErr) {
		t.Fatalf("expected wrapped StorageError")
	}
}

func TestHistoryService_SaveReplacesExisting(t *testing.T) {
	store, _ := newStore(t)
	svc := NewHistoryService(repository.NewConversationRepo(store, repoOptions()), nil, zerolog.Nop())
	ctx := context.Background()

	for _, raw := range []string{
		`{"timestamp": 1700000000000, "messages": [{"isUser": true, "text": "v1"}]}`,
		`{"timestamp": 1600000000000, "messages": []}`,
	} {
		if _, err := svc.Save(ctx, conversationInput(t, raw)); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	ts, err := svc.Save(ctx, conversationInput(t, `{"timestamp": 1700000000000, "messages": [{"isUser": true, "text": "v2"}]}`))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if ts != 1700000000000 {
		t.Fatalf("expected timestamp to be kept, got %d", ts)
	}

	history, _ := svc.List(ctx)
	if len(history) != 2 {
		t.Fatalf("expected 2 conversations, got %d", len(history))
	}
	if history[0].Messages[0].Text != "v2" {
		t.Fatalf("expected replaced content, got %q", history[0].Messages[0].Text)
	}
}

func TestHistoryService_SaveAssignsTimestamp(t *testing.T) {
	store, _ := newStore(t)
	svc := NewHistoryService(repository.NewConversationRepo(store, repoOptions()), nil, zerolog.Nop())
	fixed := time.UnixMilli(1712345678901)
	svc.now = func() time.Time { return fixed }

	ts, err := svc.Save(context.Background(), conversationInput(t, `{"messages": []}`))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if ts != 1712345678901 {
		t.Fatalf("expected assigned timestamp, got %d", ts)
	}

	_, err = svc.Save(context.Background(), conversationInput(t, `{"timestamp": 5}`))
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError without messages, got %v", err)
	}
}

func TestHistoryService_SaveAcceptsNullMessages(t *testing.T) {
	store, _ := newStore(t)
	svc := NewHistoryService(repository.NewConversationRepo(store, repoOptions()), nil, zerolog.Nop())
	ctx := context.Background()

	ts, err := svc.Save(ctx, conversationInput(t, `{"timestamp": 77, "messages": null}`))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if ts != 77 {
		t.Fatalf("expected timestamp 77, got %d", ts)
	}

	history, _ := svc.List(ctx)
	if len(history) != 1 || history[0].Timestamp != 77 || len(history[0].Messages) != 0 {
		t.Fatalf("unexpected history %+v", history)
	}
}

func TestPromptService_CreateKeepsNonStringFields(t *testing.T) {
	store, _ := newStore(t)
	svc := NewPromptService(repository.NewPromptRepo(store, repoOptions()), nil, zerolog.Nop())
	ctx := context.Background()

	if _, err := svc.Create(ctx, promptInput(t, `{"title": 5, "category": "c", "text": "x"}`)); err != nil {
		t.Fatalf("create: %v", err)
	}
	prompts, _ := svc.List(ctx)
	if len(prompts) != 1 || string(prompts[0].Extra["title"]) != "5" {
		t.Fatalf("expected numeric title to be stored, got %+v", prompts)
	}
}

func TestHistoryService_Delete(t *testing.T) {
	store, _ := newStore(t)
	svc := NewHistoryService(repository.NewConversationRepo(store, repoOptions()), nil, zerolog.Nop())
	ctx := context.Background()

	err := svc.Delete(ctx, "abc")
	var invalid *InvalidArgumentError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidArgumentError, got %v", err)
	}

	err = svc.Delete(ctx, "42")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}

	if _, err := svc.Save(ctx, conversationInput(t, `{"timestamp": 42, "messages": []}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := svc.Delete(ctx, "42"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
}

func TestSettingsService_LoadCreatesDefaults(t *testing.T) {
	store, dir := newStore(t)
	svc := NewSettingsService(repository.NewSettingsRepo(store, "", repoOptions()), nil, zerolog.Nop())

	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, database.SettingsDocument)); err != nil {
		t.Fatalf("expected settings document to be created: %v", err)
	}
	if got := svc.Get().Model(); got != "mistral:latest" {
		t.Fatalf("expected default model, got %q", got)
	}
}

func TestSettingsService_LoadCorruptFails(t *testing.T) {
	store, dir := newStore(t)
	if err := os.WriteFile(filepath.Join(dir, database.SettingsDocument), []byte("{oops"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	opts := repoOptions()
	opts.LenientReads = true
	svc := NewSettingsService(repository.NewSettingsRepo(store, "", opts), nil, zerolog.Nop())

	err := svc.Load(context.Background())
	var pErr *PersistenceError
	if !errors.As(err, &pErr) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
	raw, _ := os.ReadFile(filepath.Join(dir, database.SettingsDocument))
	if string(raw) != "{oops" {
		t.Fatalf("corrupt settings must not be overwritten, got %q", raw)
	}
}

func TestSettingsService_UpdateMerges(t *testing.T) {
	store, _ := newStore(t)
	events := &recordingPublisher{}
	svc := NewSettingsService(repository.NewSettingsRepo(store, "", repoOptions()), events, zerolog.Nop())
	ctx := context.Background()
	if err := svc.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}

	err := svc.Update(ctx, models.Settings{})
	var badReq *BadRequestError
	if !errors.As(err, &badReq) {
		t.Fatalf("expected BadRequestError, got %v", err)
	}

	if err := svc.Update(ctx, models.Settings{"model": "llama3", "theme": "dark"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got := svc.Get()
	if got.Model() != "llama3" || got["theme"] != "dark" || got.OllamaURL() != "http://localhost:11434" {
		t.Fatalf("unexpected merged settings %v", got)
	}

	// Get hands out copies.
	got["model"] = "mutated"
	if svc.Get().Model() != "llama3" {
		t.Fatalf("Get must return a copy")
	}

	// A fresh service sees the persisted merge.
	reloaded := NewSettingsService(repository.NewSettingsRepo(store, "", repoOptions()), nil, zerolog.Nop())
	if err := reloaded.Load(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Get()["theme"] != "dark" {
		t.Fatalf("expected persisted theme, got %v", reloaded.Get())
	}
	if events.count() != 1 {
		t.Fatalf("expected 1 event, got %d", events.count())
	}
}

func TestBuildPrompt(t *testing.T) {
	turns := func(texts ...string) []models.ContextTurn {
		out := make([]models.ContextTurn, 0, len(texts))
		for i, text := range texts {
			out = append(out, models.ContextTurn{IsUser: i%2 == 0, Text: text})
		}
		return out
	}

	tests := []struct {
		name    string
		message string
		turns   []models.ContextTurn
		isTitle bool
		want    string
	}{
		{"no context", "hello", nil, false, "hello"},
		{"single turn", "there", turns("hi"), false, "Utilisateur: hi\n\nUtilisateur: there"},
		{"title ignores context", "title", turns("hi"), true, "title"},
		{
			"keeps last four",
			"q",
			turns("a", "b", "c", "d", "e"),
			false,
			"Assistant: b Utilisateur: c Assistant: d Utilisateur: e\n\nUtilisateur: q",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := BuildPrompt(tc.message, tc.turns, tc.isTitle); got != tc.want {
				t.Fatalf("BuildPrompt() = %q, want %q", got, tc.want)
			}
		})
	}
}

func newChatService(t *testing.T, ollamaURL string, observer InferenceObserver) *ChatService {
	t.Helper()
	store, _ := newStore(t)
	settings := NewSettingsService(repository.NewSettingsRepo(store, "", repoOptions()), nil, zerolog.Nop())
	if err := settings.Load(context.Background()); err != nil {
		t.Fatalf("load settings: %v", err)
	}
	if err := settings.Update(context.Background(), models.Settings{"ollama_url": ollamaURL + "/", "max_length": 128}); err != nil {
		t.Fatalf("update settings: %v", err)
	}
	return NewChatService(settings, NewOllamaClient(0, observer, zerolog.Nop()))
}

func TestChatService_RelaysToGenerate(t *testing.T) {
	var got models.GenerateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/generate" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"model":"mistral:latest","response":"Bonjour","done":true}`))
	}))
	defer srv.Close()

	observer := &recordingObserver{}
	svc := newChatService(t, srv.URL, observer)
	body, err := svc.Send(context.Background(), models.ChatRequest{
		Prompt:  "there",
		Context: []models.ContextTurn{{IsUser: true, Text: "hi"}},
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if string(body) != `{"model":"mistral:latest","response":"Bonjour","done":true}` {
		t.Fatalf("expected verbatim body, got %s", body)
	}
	if got.Prompt != "Utilisateur: hi\n\nUtilisateur: there" {
		t.Fatalf("unexpected upstream prompt %q", got.Prompt)
	}
	if got.Model != "mistral:latest" || got.Stream || got.Temperature != 0.7 || got.MaxLength != 128 {
		t.Fatalf("unexpected generate request %+v", got)
	}
	if len(observer.outcomes) != 1 || observer.outcomes[0] != OutcomeOK {
		t.Fatalf("expected one ok outcome, got %v", observer.outcomes)
	}
}

func TestChatService_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `model "nope" not found`, http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newChatService(t, srv.URL, nil).Send(context.Background(), models.ChatRequest{Prompt: "hi"})
	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if upstream.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", upstream.StatusCode)
	}
}

func TestChatService_UnreachableEndpoint(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	observer := &recordingObserver{}
	_, err = newChatService(t, "http://"+addr, observer).Send(context.Background(), models.ChatRequest{Prompt: "hi"})
	var unavailable *ServiceUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected ServiceUnavailableError, got %v", err)
	}
	if len(observer.outcomes) != 1 || observer.outcomes[0] != OutcomeUnavailable {
		t.Fatalf("expected unavailable outcome, got %v", observer.outcomes)
	}
}

func TestChatService_EmptyPrompt(t *testing.T) {
	_, err := newChatService(t, "http://127.0.0.1:1", nil).Send(context.Background(), models.ChatRequest{})
	var badReq *BadRequestError
	if !errors.As(err, &badReq) {
		t.Fatalf("expected BadRequestError, got %v", err)
	}
}
