// Package history persists interactive conversations and exports them.
package history

import "github.com/quocvuong92/helios/internal/api"

// HistoryManager manages saved conversations.
type HistoryManager interface {
	// Load reads the history from disk
	Load() error

	// Save writes the history to disk
	Save() error

	// AddConversation adds a conversation, or replaces it when the ID exists
	AddConversation(id, model, dir string, messages []api.Message)

	// UpdateConversation replaces the messages of an existing conversation
	UpdateConversation(id string, messages []api.Message) bool

	// GetConversation retrieves a conversation by ID
	GetConversation(id string) *ConversationEntry

	// GetLastConversation returns the most recent conversation
	GetLastConversation() *ConversationEntry

	// GetRecentConversations returns the N most recent conversations
	GetRecentConversations(n int) []ConversationEntry

	// Clear removes all conversation history
	Clear()
}

var _ HistoryManager = (*History)(nil)
