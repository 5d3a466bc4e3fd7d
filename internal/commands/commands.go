// Package commands parses interactive slash commands into a closed set of
// variants. Parsing never fails: a missing argument and an unknown command
// are variants too, so the dispatcher can switch over every case.
package commands

import (
	"strings"
	"unicode"
)

// Command is one parsed slash command. The set of implementations is closed.
type Command interface {
	// Name is the canonical command name without the slash
	Name() string
	command()
}

type (
	// File adds a file to the session context
	File struct{ Path string }
	// Refresh reloads the context from disk
	Refresh struct{}
	// Clear resets the conversation
	Clear struct{}
	// Files lists the context files
	Files struct{}
	// Repo shows repository information
	Repo struct{}
	// Model switches the active model
	Model struct{ Model string }
	// SaveConversation exports the conversation
	SaveConversation struct{ Path string }
	// New creates an empty file and adds it to the context
	New struct{ Path string }
	// Save writes the first code block of the last response
	Save struct{ Path string }
	// GitAdd stages paths
	GitAdd struct{ Paths []string }
	// GitCommit commits the index
	GitCommit struct{ Message string }
	// GitPush pushes the current branch
	GitPush struct{}
	// History lists saved conversations
	History struct{}
	// Resume restores the last saved conversation
	Resume struct{}
	// Help prints the command list
	Help struct{}
	// Exit leaves the session
	Exit struct{}
	// Unknown is a slash command that is not recognized
	Unknown struct{ Token string }
	// MissingArgument is a recognized command without its required argument
	MissingArgument struct{ Command string }
)

func (File) Name() string             { return "file" }
func (Refresh) Name() string          { return "refresh" }
func (Clear) Name() string            { return "clear" }
func (Files) Name() string            { return "files" }
func (Repo) Name() string             { return "repo" }
func (Model) Name() string            { return "model" }
func (SaveConversation) Name() string { return "save_conversation" }
func (New) Name() string              { return "new" }
func (Save) Name() string             { return "save" }
func (GitAdd) Name() string           { return "git_add" }
func (GitCommit) Name() string        { return "git_commit" }
func (GitPush) Name() string          { return "git_push" }
func (History) Name() string          { return "history" }
func (Resume) Name() string           { return "resume" }
func (Help) Name() string             { return "help" }
func (Exit) Name() string             { return "exit" }
func (u Unknown) Name() string        { return u.Token }
func (MissingArgument) Name() string  { return "missing_argument" }

func (File) command()             {}
func (Refresh) command()          {}
func (Clear) command()            {}
func (Files) command()            {}
func (Repo) command()             {}
func (Model) command()            {}
func (SaveConversation) command() {}
func (New) command()              {}
func (Save) command()             {}
func (GitAdd) command()           {}
func (GitCommit) command()        {}
func (GitPush) command()          {}
func (History) command()          {}
func (Resume) command()           {}
func (Help) command()             {}
func (Exit) command()             {}
func (Unknown) command()          {}
func (MissingArgument) command()  {}

// Spec describes a command for help output and completion
type Spec struct {
	Name        string
	Usage       string
	Description string
	Aliases     []string
}

// Specs lists the commands in help order
var Specs = []Spec{
	{Name: "file", Usage: "/file <path>", Description: "Add a file to the context"},
	{Name: "refresh", Usage: "/refresh", Description: "Reload context files from disk"},
	{Name: "files", Usage: "/files", Description: "List context files"},
	{Name: "new", Usage: "/new <path>", Description: "Create an empty file and add it to the context"},
	{Name: "save", Usage: "/save <path>", Description: "Save the first code block of the last response"},
	{Name: "model", Usage: "/model <name>", Description: "Switch model"},
	{Name: "clear", Usage: "/clear", Description: "Clear conversation history", Aliases: []string{"c"}},
	{Name: "save_conversation", Usage: "/save_conversation <path>", Description: "Export the conversation (.json or .md)"},
	{Name: "history", Usage: "/history", Description: "Show recent conversations"},
	{Name: "resume", Usage: "/resume", Description: "Resume the last conversation"},
	{Name: "repo", Usage: "/repo", Description: "Show branch and status"},
	{Name: "git_add", Usage: "/git_add <paths...>", Description: "Stage files"},
	{Name: "git_commit", Usage: "/git_commit <message>", Description: "Commit staged changes"},
	{Name: "git_push", Usage: "/git_push", Description: "Push the current branch"},
	{Name: "help", Usage: "/help", Description: "Show this help", Aliases: []string{"h"}},
	{Name: "exit", Usage: "/exit", Description: "Exit interactive mode", Aliases: []string{"quit", "q"}},
}

// Parse turns one input line into a Command. The leading slash is optional
// and the command word is case-insensitive. Arguments keep their case.
func Parse(line string) Command {
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "/")
	word, rest := line, ""
	if i := strings.IndexFunc(line, unicode.IsSpace); i >= 0 {
		word, rest = line[:i], line[i:]
	}
	word = strings.ToLower(word)
	rest = strings.TrimSpace(rest)

	switch word {
	case "file":
		if rest == "" {
			return MissingArgument{Command: word}
		}
		return File{Path: rest}
	case "refresh":
		return Refresh{}
	case "clear", "c":
		return Clear{}
	case "files":
		return Files{}
	case "repo":
		return Repo{}
	case "model":
		if rest == "" {
			return MissingArgument{Command: word}
		}
		return Model{Model: rest}
	case "save_conversation":
		if rest == "" {
			return MissingArgument{Command: word}
		}
		return SaveConversation{Path: rest}
	case "new":
		if rest == "" {
			return MissingArgument{Command: word}
		}
		return New{Path: rest}
	case "save":
		if rest == "" {
			return MissingArgument{Command: word}
		}
		return Save{Path: rest}
	case "git_add":
		paths := strings.Fields(rest)
		if len(paths) == 0 {
			return MissingArgument{Command: word}
		}
		return GitAdd{Paths: paths}
	case "git_commit":
		if rest == "" {
			return MissingArgument{Command: word}
		}
		return GitCommit{Message: rest}
	case "git_push":
		return GitPush{}
	case "history":
		return History{}
	case "resume":
		return Resume{}
	case "help", "h":
		return Help{}
	case "exit", "quit", "q":
		return Exit{}
	default:
		return Unknown{Token: word}
	}
}

// Lookup returns the Spec for a command name or alias
func Lookup(name string) (Spec, bool) {
	name = strings.ToLower(strings.TrimPrefix(name, "/"))
	for _, s := range Specs {
		if s.Name == name {
			return s, true
		}
		for _, a := range s.Aliases {
			if a == name {
				return s, true
			}
		}
	}
	return Spec{}, false
}
