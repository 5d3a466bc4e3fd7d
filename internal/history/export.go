package history

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/quocvuong92/helios/internal/api"
	"github.com/quocvuong92/helios/internal/fileops"
)

// Format is a conversation export format
type Format int

const (
	FormatMarkdown Format = iota
	FormatJSON
)

// FormatForPath picks the export format from the file extension.
// ".json" exports JSON, anything else Markdown.
func FormatForPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatMarkdown
}

// Export writes the conversation to path in the format its extension selects
func Export(path string, e ConversationEntry) error {
	var sb strings.Builder
	var err error
	switch FormatForPath(path) {
	case FormatJSON:
		err = WriteJSON(&sb, e)
	default:
		err = WriteMarkdown(&sb, e)
	}
	if err != nil {
		return err
	}
	if err := fileops.WriteFile(path, sb.String()); err != nil {
		return fmt.Errorf("failed to export conversation: %w", err)
	}
	return nil
}

// WriteJSON writes e as indented JSON
func WriteJSON(w io.Writer, e ConversationEntry) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}

// WriteMarkdown writes e as a Markdown transcript. The system prompt is
// omitted.
func WriteMarkdown(w io.Writer, e ConversationEntry) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Conversation %s\n\n", e.ID)
	fmt.Fprintf(&sb, "- Model: %s\n", e.Model)
	if e.Dir != "" {
		fmt.Fprintf(&sb, "- Directory: %s\n", e.Dir)
	}
	if !e.UpdatedAt.IsZero() {
		fmt.Fprintf(&sb, "- Updated: %s\n", e.UpdatedAt.Format("2006-01-02 15:04"))
	}

	for _, m := range e.Messages {
		var heading string
		switch m.Role {
		case api.RoleUser:
			heading = "User"
		case api.RoleAssistant:
			heading = "Assistant"
		default:
			continue
		}
		fmt.Fprintf(&sb, "\n## %s\n\n%s\n", heading, strings.TrimSpace(m.Content))
	}

	_, err := io.WriteString(w, sb.String())
	return err
}
