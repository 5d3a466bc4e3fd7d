package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/quocvuong92/helios/internal/codeblock"
	"github.com/quocvuong92/helios/internal/commands"
	"github.com/quocvuong92/helios/internal/display"
	"github.com/quocvuong92/helios/internal/fileops"
	"github.com/quocvuong92/helios/internal/gitops"
	"github.com/quocvuong92/helios/internal/history"
	"github.com/quocvuong92/helios/internal/logging"
)

// recentConversations is how many entries /history lists
const recentConversations = 10

// dispatch runs one slash command. It returns true if the session should
// exit. Failures are reported to the user and never end the session.
func (s *InteractiveSession) dispatch(ctx context.Context, cmd commands.Command) bool {
	logging.Debug("slash command", logging.Fields{"command": cmd.Name()})

	switch c := cmd.(type) {
	case commands.File:
		s.handleFile(ctx, c.Path)
	case commands.Refresh:
		s.handleRefresh(ctx)
	case commands.Clear:
		s.sess.Reset()
		fmt.Fprintln(display.Out, "Conversation cleared.")
	case commands.Files:
		s.handleFiles()
	case commands.Repo:
		s.handleRepo()
	case commands.Model:
		s.handleModel(c.Model)
	case commands.SaveConversation:
		s.handleSaveConversation(c.Path)
	case commands.New:
		s.handleNew(c.Path)
	case commands.Save:
		s.handleSave(c.Path)
	case commands.GitAdd:
		if err := s.app.git.Stage(c.Paths...); err != nil {
			display.ShowError(err.Error())
			return false
		}
		display.ShowSuccess(fmt.Sprintf("Staged %s", strings.Join(c.Paths, ", ")))
	case commands.GitCommit:
		s.app.commit(c.Message)
	case commands.GitPush:
		s.app.push(ctx)
	case commands.History:
		s.handleHistory()
	case commands.Resume:
		s.handleResume()
	case commands.Help:
		showHelp()
	case commands.Exit:
		fmt.Fprintln(display.Out, "Goodbye!")
		s.saveHistory()
		return true
	case commands.MissingArgument:
		if spec, ok := commands.Lookup(c.Command); ok {
			display.ShowError(fmt.Sprintf("Missing argument. Usage: %s", spec.Usage))
		} else {
			display.ShowError("Missing argument for /" + c.Command)
		}
		if c.Command == "model" {
			s.showModel()
		}
	case commands.Unknown:
		display.ShowError(fmt.Sprintf("Unknown command: /%s", c.Token))
		showHelp()
	default:
		display.ShowError(fmt.Sprintf("Unhandled command: /%s", cmd.Name()))
	}
	return false
}

// showHelp prints every command with its description
func showHelp() {
	fmt.Fprintln(display.Out, "\nCommands:")
	for _, spec := range commands.Specs {
		usage := spec.Usage
		for _, alias := range spec.Aliases {
			usage += ", /" + alias
		}
		fmt.Fprintf(display.Out, "  %-30s %s\n", usage, spec.Description)
	}
	fmt.Fprintln(display.Out)
	fmt.Fprintln(display.Out, "Anything else is sent to the model with the context files.")
	fmt.Fprintln(display.Out)
}

func (s *InteractiveSession) handleFile(ctx context.Context, path string) {
	warnings := s.sess.LoadFiles(ctx, []string{path})
	if len(warnings) > 0 {
		display.ShowWarning(warnings[0].Error())
		return
	}
	display.ShowSuccess(fmt.Sprintf("Added %s to context", path))
}

// handleRefresh reloads the files already in the context. With an empty
// context it loads every text file of the working tree instead.
func (s *InteractiveSession) handleRefresh(ctx context.Context) {
	walk := len(s.sess.Files()) == 0
	warnings, err := s.sess.Refresh(ctx, s.app.workDir, walk)
	if err != nil {
		display.ShowError(fmt.Sprintf("Failed to refresh context: %v", err))
		return
	}
	for _, w := range warnings {
		display.ShowWarning(w.Error())
	}
	display.ShowSuccess(fmt.Sprintf("Context refreshed: %d file(s), %s", len(s.sess.Files()), formatSize(s.sess.TotalSize())))
}

func (s *InteractiveSession) handleFiles() {
	files := s.sess.Files()
	if len(files) == 0 {
		fmt.Fprintln(display.Out, "No files in context.")
		return
	}
	fmt.Fprintln(display.Out, "\nContext files:")
	for _, f := range files {
		fmt.Fprintf(display.Out, "  %-40s %s\n", f.Path, formatSize(f.Size()))
	}
	fmt.Fprintf(display.Out, "  %d file(s), %s total\n\n", len(files), formatSize(s.sess.TotalSize()))
}

func (s *InteractiveSession) handleRepo() {
	git := s.app.git
	if !git.IsRepo() {
		fmt.Fprintln(display.Out, "Not a git repository.")
		return
	}
	branch, err := git.CurrentBranch()
	if err != nil {
		display.ShowError(err.Error())
		return
	}
	changes, err := git.Status()
	if err != nil {
		display.ShowError(err.Error())
		return
	}

	var staged, unstaged, untracked int
	for _, c := range changes {
		if c.Untracked() {
			untracked++
			continue
		}
		if c.Staged() {
			staged++
		}
		if c.Unstaged() {
			unstaged++
		}
	}

	fmt.Fprintf(display.Out, "Branch: %s\n", branch)
	fmt.Fprintf(display.Out, "Staged: %d  Unstaged: %d  Untracked: %d\n", staged, unstaged, untracked)
	fmt.Fprintf(display.Out, "Context files: %d (%s)\n", len(s.sess.Files()), formatSize(s.sess.TotalSize()))
	if status := gitops.FormatStatus(changes); status != "" {
		fmt.Fprintln(display.Out, status)
	}
}

// handleModel switches model. Unknown names leave the model unchanged.
func (s *InteractiveSession) handleModel(name string) {
	if !s.app.cfg.ValidateModel(name) {
		display.ShowError(fmt.Sprintf("Invalid model: %s", name))
		fmt.Fprintf(display.Out, "Available: %s\n", s.app.cfg.GetAvailableModelsString())
		return
	}
	s.app.cfg.Model = name
	s.sess.Model = name
	fmt.Fprintf(display.Out, "Switched to model: %s\n", name)
}

func (s *InteractiveSession) showModel() {
	fmt.Fprintf(display.Out, "Current model: %s\n", s.sess.Model)
	fmt.Fprintf(display.Out, "Available: %s\n", s.app.cfg.GetAvailableModelsString())
}

func (s *InteractiveSession) handleSaveConversation(path string) {
	now := time.Now()
	entry := history.ConversationEntry{
		ID:        s.sess.ConversationID,
		Model:     s.sess.Model,
		Messages:  s.sess.Messages(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if wd, err := os.Getwd(); err == nil {
		entry.Dir = wd
	}
	if err := history.Export(path, entry); err != nil {
		display.ShowError(err.Error())
		return
	}
	display.ShowSuccess(fmt.Sprintf("Conversation saved to %s", path))
}

// handleNew creates an empty file and adds it to the context. Existing
// files are left alone.
func (s *InteractiveSession) handleNew(path string) {
	if err := fileops.CreateEmpty(path); err != nil {
		if errors.Is(err, fileops.ErrExists) {
			display.ShowError(fmt.Sprintf("%s already exists", path))
			return
		}
		display.ShowError(err.Error())
		return
	}
	s.sess.AddFile(path, "")
	display.ShowSuccess(fmt.Sprintf("Created %s and added it to context", path))
}

// handleSave writes the first code block of the last response to path
func (s *InteractiveSession) handleSave(path string) {
	if s.sess.LastResponse == "" {
		display.ShowWarning("No response to save yet.")
		return
	}
	fences := codeblock.Fences(s.sess.LastResponse)
	if len(fences) == 0 {
		display.ShowWarning("No code block in the last response.")
		return
	}
	if err := fileops.WriteFile(path, fences[0].Body); err != nil {
		display.ShowError(err.Error())
		return
	}
	display.ShowSuccess(fmt.Sprintf("Saved code block to %s", path))
}

func (s *InteractiveSession) handleHistory() {
	if s.history == nil {
		fmt.Fprintln(display.Out, "History not available.")
		return
	}
	conversations := s.history.GetRecentConversations(recentConversations)
	if len(conversations) == 0 {
		fmt.Fprintln(display.Out, "No conversation history.")
		return
	}
	fmt.Fprintln(display.Out, "\nRecent conversations:")
	for i, conv := range conversations {
		fmt.Fprintf(display.Out, "  %d. [%s] %s - %s\n",
			i+1,
			conv.UpdatedAt.Format("2006-01-02 15:04"),
			conv.Model,
			conv.Title(),
		)
	}
	fmt.Fprintln(display.Out)
}

func (s *InteractiveSession) handleResume() {
	if s.history == nil {
		fmt.Fprintln(display.Out, "History not available.")
		return
	}
	last := s.history.GetLastConversation()
	if last == nil {
		fmt.Fprintln(display.Out, "No conversation to resume.")
		return
	}
	s.sess.SetMessages(last.Messages)
	s.sess.ConversationID = last.ID
	fmt.Fprintf(display.Out, "Resumed conversation from %s (%d turns)\n",
		last.UpdatedAt.Format("2006-01-02 15:04"),
		s.sess.Turns(),
	)
}

func formatSize(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
