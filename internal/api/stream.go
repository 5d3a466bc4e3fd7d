package api

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/quocvuong92/helios/internal/logging"
)

// SSEProcessor handles Server-Sent Events stream processing
type SSEProcessor struct {
	reader         *bufio.Reader
	contentBuilder strings.Builder
	finalUsage     Usage
	responseID     string
	model          string
	finishReason   string
	chunks         int
}

// NewSSEProcessor creates a new SSE stream processor
func NewSSEProcessor(r io.Reader) *SSEProcessor {
	return &SSEProcessor{reader: bufio.NewReader(r)}
}

// Process reads the stream until [DONE] or EOF, calling onChunk for each
// content delta. Malformed events are logged and skipped.
func (p *SSEProcessor) Process(ctx context.Context, onChunk func(content string)) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, err := p.reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return err
		}
		done := p.handleLine(strings.TrimSpace(line), onChunk)
		if done || err == io.EOF {
			return nil
		}
	}
}

// handleLine processes one event line and reports whether the stream ended
func (p *SSEProcessor) handleLine(line string, onChunk func(string)) bool {
	data, ok := strings.CutPrefix(line, "data:")
	if !ok {
		return false
	}
	data = strings.TrimSpace(data)
	if data == "[DONE]" {
		return true
	}
	if data == "" {
		return false
	}

	var chunk ChatResponse
	if err := json.Unmarshal([]byte(data), &chunk); err != nil {
		logging.Warn("skipping malformed stream event", logging.Fields{"error": err.Error()})
		return false
	}
	p.chunks++

	if chunk.ID != "" {
		p.responseID = chunk.ID
	}
	if chunk.Model != "" {
		p.model = chunk.Model
	}
	if len(chunk.Choices) > 0 {
		choice := chunk.Choices[0]
		if choice.Delta.Content != "" {
			p.contentBuilder.WriteString(choice.Delta.Content)
			if onChunk != nil {
				onChunk(choice.Delta.Content)
			}
		}
		if choice.FinishReason != "" {
			p.finishReason = choice.FinishReason
		}
	}
	if chunk.Usage.TotalTokens > 0 {
		p.finalUsage = chunk.Usage
	}
	return false
}

// BuildResponse constructs the final ChatResponse from accumulated data
func (p *SSEProcessor) BuildResponse() *ChatResponse {
	finishReason := p.finishReason
	if finishReason == "" {
		finishReason = "stop"
	}

	return &ChatResponse{
		ID:    p.responseID,
		Model: p.model,
		Choices: []Choice{{
			Message: Message{
				Role:    RoleAssistant,
				Content: p.contentBuilder.String(),
			},
			FinishReason: finishReason,
		}},
		Usage: p.finalUsage,
	}
}

// GetContent returns the accumulated content
func (p *SSEProcessor) GetContent() string {
	return p.contentBuilder.String()
}
