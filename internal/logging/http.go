package logging

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"
)

// maxLoggedBody caps how much of a request body is traced
const maxLoggedBody = 8 * 1024

var sensitiveHeaders = map[string]bool{
	"authorization": true,
	"api-key":       true,
	"x-api-key":     true,
	"cookie":        true,
	"set-cookie":    true,
}

var sensitiveKeys = []string{"api_key", "apikey", "password", "secret", "token", "authorization"}

// Transport is an http.RoundTripper that traces chat API traffic at Debug
// level. Secrets in headers and JSON bodies are redacted. Event-stream
// bodies are never buffered.
type Transport struct {
	Base   http.RoundTripper
	Logger *Logger
}

// NewTransport wraps base (http.DefaultTransport when nil) with tracing
// through logger (DefaultLogger when nil).
func NewTransport(base http.RoundTripper, logger *Logger) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	if logger == nil {
		logger = DefaultLogger
	}
	return &Transport{Base: base, Logger: logger}
}

// RoundTrip implements http.RoundTripper
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if !t.Logger.Enabled(LevelDebug) {
		return t.Base.RoundTrip(req)
	}

	fields := Fields{
		"method":  req.Method,
		"url":     req.URL.String(),
		"headers": redactHeaders(req.Header),
	}
	if req.Body != nil && req.Body != http.NoBody {
		body, err := io.ReadAll(req.Body)
		req.Body.Close()
		if err != nil {
			return nil, err
		}
		req.Body = io.NopCloser(bytes.NewReader(body))
		fields["body"] = redactBody(body)
		fields["body_size"] = len(body)
	}
	t.Logger.Debug("http request", fields)

	start := time.Now()
	resp, err := t.Base.RoundTrip(req)
	elapsed := time.Since(start)
	if err != nil {
		t.Logger.Error("http request failed", err, Fields{"url": req.URL.String()})
		return nil, err
	}

	t.Logger.Debug("http response", Fields{
		"status":      resp.StatusCode,
		"duration_ms": elapsed.Milliseconds(),
		"streaming":   isStreaming(resp),
	})
	return resp, nil
}

func redactHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		if sensitiveHeaders[strings.ToLower(k)] {
			out[k] = "[REDACTED]"
		} else if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}

func redactBody(body []byte) any {
	var parsed any
	if json.Unmarshal(body, &parsed) == nil {
		return redactValue(parsed)
	}
	if len(body) > maxLoggedBody {
		return string(body[:maxLoggedBody]) + "...[truncated]"
	}
	return string(body)
}

func redactValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			if isSensitiveKey(k) {
				out[k] = "[REDACTED]"
				continue
			}
			out[k] = redactValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = redactValue(item)
		}
		return out
	default:
		return v
	}
}

func isSensitiveKey(k string) bool {
	k = strings.ToLower(k)
	for _, s := range sensitiveKeys {
		if strings.Contains(k, s) {
			return true
		}
	}
	return false
}

func isStreaming(resp *http.Response) bool {
	return strings.Contains(resp.Header.Get("Content-Type"), "text/event-stream")
}
