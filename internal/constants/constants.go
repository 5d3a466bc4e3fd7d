// Package constants provides shared constants used across the application
// to avoid circular dependencies between packages.
package constants

import "time"

// Timeout constants used across the application
const (
	// DefaultAPITimeout is the timeout for AI API requests (streaming can take a while)
	DefaultAPITimeout = 120 * time.Second
	// DefaultGitTimeout bounds network git operations such as push
	DefaultGitTimeout = 60 * time.Second
)

// Application defaults
const (
	AppName               = "helios"
	DefaultModel          = "gpt-4.1"
	DefaultBaseURL        = "https://api.openai.com/v1"
	DefaultCommitMessage  = "Update via AI Assistant"
	DefaultSuggestionFile = "ai_suggestion.txt"
	DefaultRemote         = "origin"
)

// DefaultSystemMessage instructs the model to tag every file it writes so the
// response can be applied to the working tree.
const DefaultSystemMessage = `You are a senior software engineer working inside the user's repository.
When you create or modify a file, output the COMPLETE new file content in a fenced
code block whose opening fence carries the language and the relative file path,
for example:

` + "```go:internal/server/server.go" + `
package server
` + "```" + `

Never use a path hint for code that is not meant to be written to disk.
Be precise and concise.`

// Context loading limits
const (
	// MaxContextFileSize is the largest file loaded into the prompt context (512KB)
	MaxContextFileSize = 512 * 1024
	// MaxConcurrentReads bounds the number of context files read in parallel
	MaxConcurrentReads = 8
	// DiffContextLines is the number of unchanged lines shown around each hunk
	DiffContextLines = 3
)

// DefaultModels are offered when no model list is configured
var DefaultModels = []string{
	"gpt-4.1",
	"gpt-4.1-mini",
	"gpt-4o",
	"gpt-5",
	"gpt-5-mini",
	"o4-mini",
}
