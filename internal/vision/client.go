// Package vision provides the client boundary for the external vision-capable
// model. The model is treated as untrusted and non-deterministic: callers get
// back raw text that must be independently parsed and sanitized. Implementations
// are injected, never reached through a global singleton.
package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Common errors for vision operations.
var (
	ErrEmptyImage    = errors.New("image payload is empty")
	ErrEmptyResponse = errors.New("model returned an empty response")
)

// Request describes one generation call against the model.
type Request struct {
	// Prompt is the fixed instruction text. The privacy and extraction
	// contracts live in the prompt and are part of the call, not optional
	// guidance.
	Prompt string

	// ImageBytes is the raw image payload, base64-encoded on the wire.
	ImageBytes []byte

	// MimeType of the image payload.
	MimeType string
}

// Client is the capability interface for vision-capable structured
// generation. Generate returns the model's raw text response or an error.
// A *TransportError indicates a transient provider/network fault; any other
// error is permanent for the given input.
type Client interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// TransportError wraps transient transport or provider failures that are
// safe to retry. Well-formed but unusable responses are never wrapped in a
// TransportError.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("vision transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransport reports whether err is (or wraps) a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// HTTPClientConfig holds configuration for the HTTP model client.
type HTTPClientConfig struct {
	// Endpoint is the base URL of an Ollama-compatible generate API.
	Endpoint string
	// Model is the vision-capable model name.
	Model string
	// Timeout bounds each individual model call. Default: 60s.
	Timeout time.Duration
	// MaxRetries is the number of additional attempts after a transport
	// failure. Default: 2. Non-transport failures are never retried.
	MaxRetries int
	// RetryBackoff is the initial backoff, doubled per attempt. Default: 500ms.
	RetryBackoff time.Duration
	// Logger for retry diagnostics. Defaults to slog.Default().
	Logger *slog.Logger
}

// HTTPClient implements Client over an Ollama-compatible HTTP JSON API.
type HTTPClient struct {
	generateURL  string
	model        string
	httpClient   *http.Client
	maxRetries   int
	retryBackoff time.Duration
	logger       *slog.Logger
}

// NewHTTPClient creates a new HTTP-backed vision client.
func NewHTTPClient(cfg HTTPClientConfig) (*HTTPClient, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("endpoint is required")
	}
	if cfg.Model == "" {
		return nil, errors.New("model name is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 2
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 500 * time.Millisecond
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &HTTPClient{
		generateURL:  cfg.Endpoint + "/api/generate",
		model:        cfg.Model,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		maxRetries:   cfg.MaxRetries,
		retryBackoff: cfg.RetryBackoff,
		logger:       cfg.Logger,
	}, nil
}

// generateRequest is the wire format of the generate call.
type generateRequest struct {
	Model  string   `json:"model"`
	Prompt string   `json:"prompt"`
	Images []string `json:"images"`
	Format string   `json:"format,omitempty"`
	Stream bool     `json:"stream"`
}

// generateResponse is the wire format of the generate response.
type generateResponse struct {
	Response string `json:"response"`
}

// Generate issues one model call, retrying transport failures with
// exponential backoff. The context bounds the whole retry loop.
func (c *HTTPClient) Generate(ctx context.Context, req Request) (string, error) {
	if len(req.ImageBytes) == 0 {
		return "", ErrEmptyImage
	}

	body, err := json.Marshal(generateRequest{
		Model:  c.model,
		Prompt: req.Prompt,
		Images: []string{base64.StdEncoding.EncodeToString(req.ImageBytes)},
		Format: "json",
		Stream: false,
	})
	if err != nil {
		return "", fmt.Errorf("encode generate request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := c.retryBackoff << (attempt - 1)
			c.logger.Warn("retrying vision call after transport error",
				"attempt", attempt,
				"backoff", backoff,
				"error", lastErr,
			)
			select {
			case <-ctx.Done():
				return "", &TransportError{Err: ctx.Err()}
			case <-time.After(backoff):
			}
		}

		text, err := c.doOnce(ctx, body)
		if err == nil {
			return text, nil
		}
		if !IsTransport(err) {
			return "", err
		}
		lastErr = err
	}
	return "", lastErr
}

// doOnce performs a single HTTP call and classifies the outcome.
func (c *HTTPClient) doOnce(ctx context.Context, body []byte) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.generateURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build generate request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", &TransportError{Err: err}
	}
	defer resp.Body.Close()

	// 5xx and 429 are provider-side transients; anything else non-200 means
	// the request itself is bad and retrying the same input cannot help.
	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return "", &TransportError{Err: fmt.Errorf("provider returned status %d", resp.StatusCode)}
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("provider rejected request with status %d", resp.StatusCode)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &TransportError{Err: fmt.Errorf("read response body: %w", err)}
	}

	var decoded generateResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return "", fmt.Errorf("decode generate response: %w", err)
	}
	if decoded.Response == "" {
		return "", ErrEmptyResponse
	}
	return decoded.Response, nil
}
