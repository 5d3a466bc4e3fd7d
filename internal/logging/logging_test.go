package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newBufferLogger(level Level, format Format) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return New(Options{Level: level, Format: format, Output: &buf}), &buf
}

func TestLevel_String(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.level.String(); got != tt.want {
				t.Errorf("Level.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  Level
	}{
		{"debug", LevelDebug},
		{" INFO ", LevelInfo},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"off", LevelNone},
		{"invalid", LevelWarn},
		{"", LevelWarn},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLogger_TextFormatSortsFields(t *testing.T) {
	logger, buf := newBufferLogger(LevelDebug, FormatText)

	logger.Info("loaded", Fields{"zeta": 2, "alpha": 1})

	output := buf.String()
	if !strings.Contains(output, "INFO: loaded") {
		t.Errorf("output = %q, want level and message", output)
	}
	if strings.Index(output, "alpha=1") > strings.Index(output, "zeta=2") {
		t.Errorf("fields not sorted: %q", output)
	}
}

func TestLogger_JSONFormat(t *testing.T) {
	logger, buf := newBufferLogger(LevelDebug, FormatJSON)

	logger.Error("apply failed", errors.New("permission denied"), Fields{"path": "a.go"})

	var e entry
	if err := json.Unmarshal(buf.Bytes(), &e); err != nil {
		t.Fatalf("Failed to parse JSON output: %v", err)
	}
	if e.Level != "ERROR" || e.Message != "apply failed" {
		t.Errorf("entry = %+v", e)
	}
	if e.Error != "permission denied" {
		t.Errorf("Error = %q, want %q", e.Error, "permission denied")
	}
	if e.Fields["path"] != "a.go" {
		t.Errorf("Fields[path] = %v, want a.go", e.Fields["path"])
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	logger, buf := newBufferLogger(LevelWarn, FormatText)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message", nil)

	output := buf.String()
	if strings.Contains(output, "debug message") || strings.Contains(output, "info message") {
		t.Error("messages below Warn should be filtered out")
	}
	if !strings.Contains(output, "warn message") || !strings.Contains(output, "error message") {
		t.Error("Warn and Error messages should be present")
	}
}

func TestLogger_NoneLevel(t *testing.T) {
	logger, buf := newBufferLogger(LevelNone, FormatText)

	logger.Error("error", errors.New("x"))

	if buf.Len() > 0 {
		t.Error("No messages should be logged at None level")
	}
}

func TestLogger_WithSharesCore(t *testing.T) {
	logger, buf := newBufferLogger(LevelError, FormatJSON)
	child := logger.With(Fields{"component": "apply"})

	child.Info("hidden")
	if buf.Len() > 0 {
		t.Fatal("child should inherit parent level")
	}

	logger.SetLevel(LevelDebug)
	child.Info("visible", Fields{"extra": true})

	var e entry
	if err := json.Unmarshal(buf.Bytes(), &e); err != nil {
		t.Fatalf("Failed to parse JSON output: %v", err)
	}
	if e.Fields["component"] != "apply" || e.Fields["extra"] != true {
		t.Errorf("Fields = %v, want preset and extra fields", e.Fields)
	}
}

func TestConfigure(t *testing.T) {
	t.Cleanup(func() { DefaultLogger.SetLevel(LevelWarn) })

	Configure(true)
	if !DefaultLogger.Enabled(LevelDebug) {
		t.Error("verbose should enable Debug")
	}

	Configure(false)
	if DefaultLogger.Enabled(LevelInfo) {
		t.Error("non-verbose should hide Info")
	}
	if !DefaultLogger.Enabled(LevelWarn) {
		t.Error("non-verbose should show Warn")
	}
}

// =============================================================================
// Transport Tests
// =============================================================================

func TestTransport_RedactsAndPreservesBody(t *testing.T) {
	var received string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		received = string(b)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	logger, buf := newBufferLogger(LevelDebug, FormatText)
	client := &http.Client{Transport: NewTransport(nil, logger)}

	body := `{"model":"gpt-4.1","api_key":"sk-secret"}`
	req, _ := http.NewRequest(http.MethodPost, server.URL, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer sk-secret")

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	resp.Body.Close()

	if received != body {
		t.Errorf("server received %q, want original body", received)
	}
	out := buf.String()
	if strings.Contains(out, "sk-secret") {
		t.Errorf("secret leaked into log: %q", out)
	}
	if !strings.Contains(out, "http response") {
		t.Errorf("response not traced: %q", out)
	}
}

func TestTransport_SilentWhenNotDebug(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	logger, buf := newBufferLogger(LevelWarn, FormatText)
	client := &http.Client{Transport: NewTransport(nil, logger)}

	resp, err := client.Get(server.URL)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	resp.Body.Close()

	if buf.Len() > 0 {
		t.Errorf("unexpected log output: %q", buf.String())
	}
}

func TestIsSensitiveKey(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"api_key", true},
		{"apiKey", true},
		{"Authorization", true},
		{"password", true},
		{"model", false},
		{"messages", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := isSensitiveKey(tt.key); got != tt.want {
				t.Errorf("isSensitiveKey(%q) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}
