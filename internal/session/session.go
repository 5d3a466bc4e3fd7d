// Package session holds the state of one assistant session: the files
// loaded as context, the conversation, the selected model and the last
// response. A Session is passed explicitly to every command handler.
package session

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/quocvuong92/helios/internal/api"
	"github.com/quocvuong92/helios/internal/constants"
	"github.com/quocvuong92/helios/internal/fileops"
	"github.com/quocvuong92/helios/internal/gitops"
	"github.com/quocvuong92/helios/internal/logging"
)

// ContextFile is one file loaded into the prompt context
type ContextFile struct {
	Path    string
	Content string
}

// Size returns the content length in bytes
func (f ContextFile) Size() int { return len(f.Content) }

// LoadWarning is a context file that could not be read
type LoadWarning struct {
	Path string
	Err  error
}

func (w LoadWarning) Error() string { return fmt.Sprintf("could not read %s: %v", w.Path, w.Err) }

// Session is the mutable state of one interactive or one-shot run.
// It is not safe for concurrent use; commands run one at a time.
type Session struct {
	Model          string
	SystemMessage  string
	ConversationID string
	LastResponse   string

	history []api.Message
	files   map[string]string
	order   []string
	log     *logging.Logger
}

// New returns an empty Session
func New(model, systemMessage string) *Session {
	if systemMessage == "" {
		systemMessage = constants.DefaultSystemMessage
	}
	return &Session{
		Model:          model,
		SystemMessage:  systemMessage,
		ConversationID: uuid.New().String(),
		files:          make(map[string]string),
		log:            logging.DefaultLogger.With(logging.Fields{"component": "session"}),
	}
}

// AddFile records path in the context, replacing earlier content
func (s *Session) AddFile(path, content string) {
	if _, ok := s.files[path]; !ok {
		s.order = append(s.order, path)
	}
	s.files[path] = content
}

// Files returns the context files in the order they were added
func (s *Session) Files() []ContextFile {
	out := make([]ContextFile, 0, len(s.order))
	for _, p := range s.order {
		out = append(out, ContextFile{Path: p, Content: s.files[p]})
	}
	return out
}

// FilePaths returns the context paths in the order they were added
func (s *Session) FilePaths() []string {
	return append([]string(nil), s.order...)
}

// TotalSize returns the combined size of all context files
func (s *Session) TotalSize() int {
	n := 0
	for _, c := range s.files {
		n += len(c)
	}
	return n
}

// ClearFiles empties the context
func (s *Session) ClearFiles() {
	s.files = make(map[string]string)
	s.order = nil
}

// Messages returns the conversation including the system message
func (s *Session) Messages() []api.Message {
	msgs := make([]api.Message, 0, len(s.history)+1)
	msgs = append(msgs, api.Message{Role: api.RoleSystem, Content: s.SystemMessage})
	return append(msgs, s.history...)
}

// SetMessages replaces the conversation, dropping any system messages
func (s *Session) SetMessages(msgs []api.Message) {
	s.history = s.history[:0]
	for _, m := range msgs {
		if m.Role != api.RoleSystem {
			s.history = append(s.history, m)
		}
	}
}

// Turns returns the number of user messages in the conversation
func (s *Session) Turns() int {
	n := 0
	for _, m := range s.history {
		if m.Role == api.RoleUser {
			n++
		}
	}
	return n
}

// Record appends a completed exchange and remembers the response
func (s *Session) Record(prompt, response string) {
	s.history = append(s.history,
		api.Message{Role: api.RoleUser, Content: prompt},
		api.Message{Role: api.RoleAssistant, Content: response},
	)
	s.LastResponse = response
}

// Reset clears the conversation and starts a new conversation ID.
// Context files are kept.
func (s *Session) Reset() {
	s.history = nil
	s.LastResponse = ""
	s.ConversationID = uuid.New().String()
}

// BuildMessages returns the conversation followed by a user message that
// carries prompt, the context files and gitContext. The session itself is
// not modified.
func (s *Session) BuildMessages(prompt, gitContext string) []api.Message {
	return append(s.Messages(), api.Message{
		Role:    api.RoleUser,
		Content: FormatRequest(prompt, s.Files(), gitContext),
	})
}

// FormatRequest renders the user message sent to the model
func FormatRequest(prompt string, files []ContextFile, gitContext string) string {
	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(prompt))

	if len(files) > 0 {
		sb.WriteString("\n\nContext files:\n")
		for _, f := range files {
			lang := fileops.LanguageFromExtension(f.Path)
			fmt.Fprintf(&sb, "\nFile: %s\n```%s\n%s\n```\n", f.Path, lang, strings.TrimRight(f.Content, "\n"))
		}
	}
	if gitContext != "" {
		fmt.Fprintf(&sb, "\nGit context:\n%s\n", gitContext)
	}
	return sb.String()
}

// ReadFiles reads paths concurrently, at most constants.MaxConcurrentReads
// at a time. Each path gets its own result slot; unreadable files become
// warnings and are left out. Results keep the order of paths.
func ReadFiles(ctx context.Context, paths []string) ([]ContextFile, []LoadWarning) {
	type slot struct {
		content string
		err     error
	}
	slots := make([]slot, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(constants.MaxConcurrentReads)
	for i, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				slots[i].err = err
				return nil
			}
			slots[i].content, slots[i].err = fileops.ReadText(p)
			return nil
		})
	}
	_ = g.Wait()

	var files []ContextFile
	var warnings []LoadWarning
	for i, p := range paths {
		if slots[i].err != nil {
			warnings = append(warnings, LoadWarning{Path: p, Err: slots[i].err})
			continue
		}
		files = append(files, ContextFile{Path: p, Content: slots[i].content})
	}
	return files, warnings
}

// LoadFiles reads paths into the context and returns the failures
func (s *Session) LoadFiles(ctx context.Context, paths []string) []LoadWarning {
	files, warnings := ReadFiles(ctx, paths)
	for _, f := range files {
		s.AddFile(f.Path, f.Content)
	}
	for _, w := range warnings {
		s.log.Warn("context file skipped", logging.Fields{"path": w.Path, "error": w.Err.Error()})
	}
	s.log.Debug("context loaded", logging.Fields{"count": len(files), "failed": len(warnings)})
	return warnings
}

// Refresh rebuilds the context. With walk set, every text file under root
// is loaded; otherwise the files already in the context are re-read.
func (s *Session) Refresh(ctx context.Context, root string, walk bool) ([]LoadWarning, error) {
	paths := s.FilePaths()
	if walk {
		rel, err := fileops.WalkRepo(root)
		if err != nil {
			return nil, err
		}
		paths = make([]string, len(rel))
		for i, p := range rel {
			paths[i] = filepath.Join(root, p)
		}
	}
	s.ClearFiles()
	return s.LoadFiles(ctx, paths), nil
}

// GitContext describes the repository state for the model. It returns an
// empty string outside a repository.
func GitContext(g gitops.Git) (string, error) {
	if g == nil || !g.IsRepo() {
		return "", nil
	}
	branch, err := g.CurrentBranch()
	if err != nil {
		return "", err
	}
	changes, err := g.Status()
	if err != nil {
		return "", err
	}
	status := gitops.FormatStatus(changes)
	if status == "" {
		status = "None"
	}
	return fmt.Sprintf("Current Branch: %s\nUnstaged Changes:\n%s", branch, status), nil
}
