package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"time"

	"github.com/quocvuong92/helios/internal/api"
	"github.com/quocvuong92/helios/internal/constants"
	"github.com/quocvuong92/helios/internal/logging"
)

// MaxConversations is the number of conversations kept on disk
const MaxConversations = 50

// HistoryFileName is the file name under the user config directory
const HistoryFileName = "history.json"

// ConversationEntry is one saved conversation
type ConversationEntry struct {
	ID        string        `json:"id"`
	Model     string        `json:"model"`
	Dir       string        `json:"dir,omitempty"`
	Messages  []api.Message `json:"messages"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Title returns the first user message, shortened for listings
func (e ConversationEntry) Title() string {
	for _, m := range e.Messages {
		if m.Role != api.RoleUser {
			continue
		}
		runes := []rune(m.Content)
		if len(runes) > 60 {
			return string(runes[:57]) + "..."
		}
		return m.Content
	}
	return "(empty)"
}

// History is a JSON-file backed HistoryManager
type History struct {
	path          string
	Conversations []ConversationEntry `json:"conversations"`
	now           func() time.Time
}

// NewHistory returns a History stored in the user config directory
func NewHistory() *History {
	path := HistoryFileName
	if dir, err := os.UserConfigDir(); err == nil {
		path = filepath.Join(dir, constants.AppName, HistoryFileName)
	}
	return NewHistoryAt(path)
}

// NewHistoryAt returns a History stored at path
func NewHistoryAt(path string) *History {
	return &History{path: path, now: time.Now}
}

// Path returns the history file location
func (h *History) Path() string { return h.path }

// Load reads the history file. A missing file leaves the history empty.
func (h *History) Load() error {
	data, err := os.ReadFile(h.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}
	if err := json.Unmarshal(data, h); err != nil {
		return fmt.Errorf("failed to parse history %s: %w", h.path, err)
	}
	logging.Debug("history loaded", logging.Fields{"path": h.path, "count": len(h.Conversations)})
	return nil
}

// Save writes the history file atomically
func (h *History) Save() error {
	if err := os.MkdirAll(filepath.Dir(h.path), 0700); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}
	data, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}

	tmp := h.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	if err := os.Rename(tmp, h.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write history: %w", err)
	}
	return nil
}

// AddConversation adds or replaces a conversation and drops the oldest
// entries beyond MaxConversations.
func (h *History) AddConversation(id, model, dir string, messages []api.Message) {
	now := h.now()
	msgs := slices.Clone(messages)

	if e := h.find(id); e != nil {
		e.Model = model
		e.Dir = dir
		e.Messages = msgs
		e.UpdatedAt = now
		return
	}

	h.Conversations = append(h.Conversations, ConversationEntry{
		ID:        id,
		Model:     model,
		Dir:       dir,
		Messages:  msgs,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if len(h.Conversations) > MaxConversations {
		h.sortRecent()
		h.Conversations = h.Conversations[:MaxConversations]
	}
}

// UpdateConversation replaces the messages of conversation id
func (h *History) UpdateConversation(id string, messages []api.Message) bool {
	e := h.find(id)
	if e == nil {
		return false
	}
	e.Messages = slices.Clone(messages)
	e.UpdatedAt = h.now()
	return true
}

// GetConversation returns a copy of conversation id, or nil
func (h *History) GetConversation(id string) *ConversationEntry {
	e := h.find(id)
	if e == nil {
		return nil
	}
	c := *e
	c.Messages = slices.Clone(e.Messages)
	return &c
}

// GetLastConversation returns the most recently updated conversation
func (h *History) GetLastConversation() *ConversationEntry {
	recent := h.GetRecentConversations(1)
	if len(recent) == 0 {
		return nil
	}
	return &recent[0]
}

// GetRecentConversations returns up to n conversations, newest first
func (h *History) GetRecentConversations(n int) []ConversationEntry {
	h.sortRecent()
	if n > len(h.Conversations) {
		n = len(h.Conversations)
	}
	if n <= 0 {
		return nil
	}
	out := make([]ConversationEntry, n)
	copy(out, h.Conversations[:n])
	return out
}

// Clear removes every conversation
func (h *History) Clear() {
	h.Conversations = nil
}

func (h *History) find(id string) *ConversationEntry {
	for i := range h.Conversations {
		if h.Conversations[i].ID == id {
			return &h.Conversations[i]
		}
	}
	return nil
}

func (h *History) sortRecent() {
	sort.SliceStable(h.Conversations, func(i, j int) bool {
		return h.Conversations[i].UpdatedAt.After(h.Conversations[j].UpdatedAt)
	})
}
