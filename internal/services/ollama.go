package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"promptdesk-backend/internal/models"
)

const maxInferenceResponse = 8 << 20

// InferenceObserver is told about the outcome of every inference call.
type InferenceObserver interface {
	ObserveInference(outcome string, elapsed time.Duration)
}

// Inference outcomes
const (
	OutcomeOK          = "ok"
	OutcomeUnavailable = "unavailable"
	OutcomeUpstream    = "upstream_error"
	OutcomeCanceled    = "canceled"
	OutcomeError       = "error"
)

// OllamaClient performs one non-streaming /api/generate call per request.
type OllamaClient struct {
	httpClient *http.Client
	observer   InferenceObserver
	log        zerolog.Logger
}

// NewOllamaClient builds a client. A zero timeout leaves the transport
// defaults in place.
func NewOllamaClient(timeout time.Duration, observer InferenceObserver, log zerolog.Logger) *OllamaClient {
	return &OllamaClient{
		httpClient: &http.Client{Timeout: timeout},
		observer:   observer,
		log:        log.With().Str("component", "ollama").Logger(),
	}
}

// Generate posts req to <baseURL>/api/generate and returns the raw response
// body of a 2xx answer.
func (c *OllamaClient) Generate(ctx context.Context, baseURL string, req models.GenerateRequest) ([]byte, error) {
	start := time.Now()
	body, outcome, err := c.callOnce(ctx, baseURL+"/api/generate", req)
	elapsed := time.Since(start)
	if c.observer != nil {
		c.observer.ObserveInference(outcome, elapsed)
	}

	level := zerolog.DebugLevel
	if err != nil {
		level = zerolog.WarnLevel
	}
	c.log.WithLevel(level).Err(err).
		Str("model", req.Model).
		Str("outcome", outcome).
		Dur("elapsed", elapsed).
		Msg("inference call")
	return body, err
}

func (c *OllamaClient) callOnce(ctx context.Context, endpointURL string, gen models.GenerateRequest) ([]byte, string, error) {
	payload, err := json.Marshal(gen)
	if err != nil {
		return nil, OutcomeError, fmt.Errorf("encode generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpointURL, bytes.NewReader(payload))
	if err != nil {
		return nil, OutcomeUnavailable, &ServiceUnavailableError{Message: unavailableMessage, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, OutcomeCanceled, ctxErr
		}
		return nil, OutcomeUnavailable, &ServiceUnavailableError{Message: unavailableMessage, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxInferenceResponse))
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, OutcomeCanceled, err
		}
		return nil, OutcomeError, fmt.Errorf("read inference response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, OutcomeUpstream, &UpstreamError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return respBody, OutcomeOK, nil
}

const unavailableMessage = "Impossible de se connecter à Ollama. Assurez-vous qu'il est en cours d'exécution."
