package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/quocvuong92/helios/internal/config"
	"github.com/quocvuong92/helios/internal/constants"
	"github.com/quocvuong92/helios/internal/logging"
)

// Client sends chat requests to the model.
type Client interface {
	// Complete sends messages and waits for the whole answer.
	Complete(ctx context.Context, model string, messages []Message) (*ChatResponse, error)

	// Stream sends messages and calls onChunk for every content delta. The
	// returned response carries the assembled text.
	Stream(ctx context.Context, model string, messages []Message, onChunk func(string)) (*ChatResponse, error)
}

var _ Client = (*OpenAIClient)(nil)

// OpenAIClient talks to any OpenAI-compatible chat completions endpoint
type OpenAIClient struct {
	httpClient *http.Client
	url        string
	keys       *config.KeyRotator
}

// NewClient creates a chat client from validated configuration. It fails
// with config.ErrAPIKeyNotFound when no key is configured.
func NewClient(cfg *config.Config) (*OpenAIClient, error) {
	if err := cfg.RequireAPIKey(); err != nil {
		return nil, err
	}

	var transport http.RoundTripper = http.DefaultTransport
	if cfg.Debug {
		transport = logging.NewTransport(transport, logging.DefaultLogger)
	}

	return &OpenAIClient{
		httpClient: &http.Client{
			Timeout:   constants.DefaultAPITimeout,
			Transport: transport,
		},
		url:  cfg.GetChatCompletionsURL(),
		keys: cfg.APIKeys,
	}, nil
}

// Complete sends a non-streaming chat request
func (c *OpenAIClient) Complete(ctx context.Context, model string, messages []Message) (*ChatResponse, error) {
	body, err := json.Marshal(ChatRequest{Model: model, Messages: messages})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	return WithRetry(ctx, func() (*ChatResponse, error) {
		return withKeyRotation(c.keys, func(key string) (*ChatResponse, error) {
			resp, err := c.post(ctx, key, body, false)
			if err != nil {
				return nil, err
			}
			defer func() { _ = resp.Body.Close() }()

			data, err := io.ReadAll(resp.Body)
			if err != nil {
				return nil, fmt.Errorf("failed to read response: %w", err)
			}

			var chatResp ChatResponse
			if err := json.Unmarshal(data, &chatResp); err != nil {
				return nil, fmt.Errorf("failed to parse response: %w", err)
			}
			return &chatResp, nil
		})
	})
}

// Stream sends a streaming chat request
func (c *OpenAIClient) Stream(ctx context.Context, model string, messages []Message, onChunk func(string)) (*ChatResponse, error) {
	body, err := json.Marshal(ChatRequest{Model: model, Messages: messages, Stream: true})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	return WithStreamRetry(ctx, func() (*http.Response, error) {
		return withKeyRotation(c.keys, func(key string) (*http.Response, error) {
			return c.post(ctx, key, body, true)
		})
	}, onChunk)
}

// post sends one request. Non-200 responses are drained, closed and
// returned as *APIError.
func (c *OpenAIClient) post(ctx context.Context, key string, body []byte, stream bool) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+key)
	if stream {
		req.Header.Set("Accept", "text/event-stream")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return nil, newAPIError(resp.StatusCode, data)
	}
	return resp, nil
}

func newAPIError(status int, body []byte) *APIError {
	msg := fmt.Sprintf("status code %d", status)
	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		msg = errResp.Error.Message
	}
	return &APIError{
		StatusCode: status,
		Message:    fmt.Sprintf("API error: %s", msg),
	}
}
