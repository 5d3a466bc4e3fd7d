package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/elk-language/go-prompt"
	istrings "github.com/elk-language/go-prompt/strings"

	"github.com/quocvuong92/helios/internal/commands"
	"github.com/quocvuong92/helios/internal/display"
	"github.com/quocvuong92/helios/internal/history"
	"github.com/quocvuong92/helios/internal/logging"
	"github.com/quocvuong92/helios/internal/session"
)

// InteractiveSession holds the state for an interactive chat session.
// It owns the conversation and context files and persists them on exit.
type InteractiveSession struct {
	app         *App
	sess        *session.Session
	exitFlag    bool
	inputBuffer []string // Buffer for multiline input
	history     history.HistoryManager
}

func newInteractiveSession(app *App, sess *session.Session, hist history.HistoryManager) *InteractiveSession {
	return &InteractiveSession{app: app, sess: sess, history: hist}
}

// completer suggests slash commands, and model names after /model
func (s *InteractiveSession) completer(d prompt.Document) ([]prompt.Suggest, istrings.RuneNumber, istrings.RuneNumber) {
	text := d.TextBeforeCursor()
	endIndex := d.CurrentRuneIndex()
	w := d.GetWordBeforeCursor()
	startIndex := endIndex - istrings.RuneCountInString(w)

	if !strings.HasPrefix(text, "/") {
		return []prompt.Suggest{}, startIndex, endIndex
	}

	if strings.HasPrefix(strings.ToLower(text), "/model ") {
		var suggestions []prompt.Suggest
		for _, model := range s.app.cfg.AvailableModels {
			desc := ""
			if model == s.sess.Model {
				desc = "(current)"
			}
			suggestions = append(suggestions, prompt.Suggest{Text: model, Description: desc})
		}
		return prompt.FilterHasPrefix(suggestions, w, true), startIndex, endIndex
	}

	return prompt.FilterHasPrefix(commandSuggestions(), w, true), startIndex, endIndex
}

func commandSuggestions() []prompt.Suggest {
	var suggestions []prompt.Suggest
	for _, spec := range commands.Specs {
		suggestions = append(suggestions, prompt.Suggest{Text: "/" + spec.Name, Description: spec.Description})
	}
	for _, spec := range commands.Specs {
		for _, alias := range spec.Aliases {
			suggestions = append(suggestions, prompt.Suggest{Text: "/" + alias, Description: spec.Name + " (alias)"})
		}
	}
	return suggestions
}

// runInteractive starts the REPL. Context files given with --file are
// loaded first. Lines ending in a backslash continue on the next line.
func (app *App) runInteractive(sess *session.Session) error {
	fmt.Fprintln(display.Out, "Helios - Interactive Mode")
	fmt.Fprintf(display.Out, "Model: %s\n", sess.Model)
	if app.git.IsRepo() {
		if branch, err := app.git.CurrentBranch(); err == nil {
			fmt.Fprintf(display.Out, "Branch: %s\n", branch)
		}
	}
	fmt.Fprintln(display.Out, "Type /help for commands, Ctrl+C or Ctrl+D to quit")
	fmt.Fprintln(display.Out, "End a line with \\ for multiline input")
	fmt.Fprintln(display.Out)

	app.loadContext(context.Background(), sess, app.cfg.Files)

	hist := history.NewHistory()
	if err := hist.Load(); err != nil {
		display.ShowWarning(fmt.Sprintf("Could not load history: %v", err))
	}

	s := newInteractiveSession(app, sess, hist)

	p := prompt.New(
		s.executor,
		prompt.WithCompleter(s.completer),
		prompt.WithPrefix("> "),
		prompt.WithTitle("Helios"),
		prompt.WithPrefixTextColor(prompt.Green),
		prompt.WithSuggestionBGColor(prompt.DarkBlue),
		prompt.WithSuggestionTextColor(prompt.White),
		prompt.WithSelectedSuggestionBGColor(prompt.Cyan),
		prompt.WithSelectedSuggestionTextColor(prompt.Black),
		prompt.WithDescriptionBGColor(prompt.DarkBlue),
		prompt.WithDescriptionTextColor(prompt.LightGray),
		prompt.WithSelectedDescriptionBGColor(prompt.Cyan),
		prompt.WithSelectedDescriptionTextColor(prompt.Black),
		prompt.WithMaxSuggestion(15),
		prompt.WithCompletionOnDown(),
		prompt.WithExitChecker(func(in string, breakline bool) bool {
			return s.exitFlag
		}),
		prompt.WithKeyBind(prompt.KeyBind{
			Key: prompt.ControlC,
			Fn: func(p *prompt.Prompt) bool {
				fmt.Fprintln(display.Out, "\nGoodbye!")
				s.saveHistory()
				s.exitFlag = true
				return false
			},
		}),
		prompt.WithKeyBind(prompt.KeyBind{
			Key: prompt.ControlD,
			Fn: func(p *prompt.Prompt) bool {
				if p.Buffer().Text() == "" {
					fmt.Fprintln(display.Out, "Goodbye!")
					s.saveHistory()
					s.exitFlag = true
				}
				return false
			},
		}),
	)

	p.Run()
	return nil
}

// saveHistory persists the conversation when it has at least one turn
func (s *InteractiveSession) saveHistory() {
	if s.history == nil || s.sess.Turns() == 0 {
		return
	}
	dir, err := filepath.Abs(s.app.workDir)
	if err != nil {
		dir = s.app.workDir
	}
	s.history.AddConversation(s.sess.ConversationID, s.sess.Model, dir, s.sess.Messages())
	if err := s.history.Save(); err != nil {
		display.ShowWarning(fmt.Sprintf("Could not save history: %v", err))
	}
}

// executor handles one line from the prompt. Ctrl+C while a request is in
// flight cancels that request only.
func (s *InteractiveSession) executor(input string) {
	if s.exitFlag {
		return
	}

	if strings.HasSuffix(input, "\\") {
		s.inputBuffer = append(s.inputBuffer, strings.TrimSuffix(input, "\\"))
		fmt.Fprint(display.Out, "... ")
		return
	}
	if len(s.inputBuffer) > 0 {
		s.inputBuffer = append(s.inputBuffer, input)
		input = strings.Join(s.inputBuffer, "\n")
		s.inputBuffer = nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if s.handleLine(ctx, input) {
		s.exitFlag = true
	}
}

// handleLine runs a slash command or sends a prompt. It returns true when
// the session should end.
func (s *InteractiveSession) handleLine(ctx context.Context, input string) bool {
	input = strings.TrimSpace(input)
	if input == "" {
		return false
	}

	// The first line decides whether multiline input is a command
	if strings.HasPrefix(input, "/") {
		return s.dispatch(ctx, commands.Parse(input))
	}

	fmt.Fprintln(display.Out)
	content, err := s.app.generate(ctx, s.sess, input)
	if err != nil {
		if ctx.Err() != nil {
			display.ShowWarning("Request cancelled.")
			return false
		}
		display.ShowError(err.Error())
		return false
	}
	logging.Debug("response received", logging.Fields{"bytes": len(content), "turns": s.sess.Turns()})

	s.app.processResponse(ctx, content)
	fmt.Fprintln(display.Out)
	return false
}
