package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quocvuong92/helios/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, keys ...string) *OpenAIClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	if len(keys) == 0 {
		keys = []string{"sk-test"}
	}
	client, err := NewClient(&config.Config{
		BaseURL: server.URL,
		APIKeys: config.NewKeyRotatorFromKeys(keys),
	})
	require.NoError(t, err)
	return client
}

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient(&config.Config{APIKeys: config.NewKeyRotatorFromKeys(nil)})
	assert.ErrorIs(t, err, config.ErrAPIKeyNotFound)
}

func TestOpenAIClient_Complete(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4.1", req.Model)
		assert.False(t, req.Stream)
		assert.Len(t, req.Messages, 2)

		fmt.Fprint(w, `{"id":"r1","choices":[{"index":0,"message":{"role":"assistant","content":"done"}}]}`)
	})

	resp, err := client.Complete(context.Background(), "gpt-4.1", []Message{
		{Role: RoleSystem, Content: "sys"},
		{Role: RoleUser, Content: "hi"},
	})

	require.NoError(t, err)
	assert.Equal(t, "done", resp.GetContent())
}

func TestOpenAIClient_Stream(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"index\":0,\"delta\":{\"content\":\"```go:a.go\\n\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"index\":0,\"delta\":{\"content\":\"package a\\n```\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	})

	var chunks []string
	resp, err := client.Stream(context.Background(), "gpt-4.1", []Message{{Role: RoleUser, Content: "x"}}, func(s string) {
		chunks = append(chunks, s)
	})

	require.NoError(t, err)
	assert.Len(t, chunks, 2)
	assert.Equal(t, "```go:a.go\npackage a\n```", resp.GetContent())
}

func TestOpenAIClient_RotatesKeyOnUnauthorized(t *testing.T) {
	var seen []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		seen = append(seen, key)
		if key == "sk-revoked" {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"error":{"message":"invalid api key"}}`)
			return
		}
		fmt.Fprint(w, `{"choices":[{"message":{"content":"ok"}}]}`)
	}, "sk-revoked", "sk-valid")

	resp, err := client.Complete(context.Background(), "m", nil)

	require.NoError(t, err)
	assert.Equal(t, "ok", resp.GetContent())
	assert.Equal(t, []string{"sk-revoked", "sk-valid"}, seen)
}

func TestOpenAIClient_ErrorMessageFromBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"message":"model not found","type":"invalid_request_error"}}`)
	})

	_, err := client.Stream(context.Background(), "nope", nil, nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "model not found")
}

func TestChatResponse_GetContent(t *testing.T) {
	tests := []struct {
		name     string
		response *ChatResponse
		want     string
	}{
		{"message", &ChatResponse{Choices: []Choice{{Message: Message{Content: "m"}}}}, "m"},
		{"delta", &ChatResponse{Choices: []Choice{{Delta: Delta{Content: "d"}}}}, "d"},
		{"message wins", &ChatResponse{Choices: []Choice{{Message: Message{Content: "m"}, Delta: Delta{Content: "d"}}}}, "m"},
		{"empty choices", &ChatResponse{}, ""},
		{"nil response", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.response.GetContent())
		})
	}
}
