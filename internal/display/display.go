// Package display renders everything the CLI prints: status lines,
// panels, markdown, diffs, the spinner and yes/no prompts.
package display

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"golang.org/x/term"
)

// Out receives normal output. Tests replace it.
var Out io.Writer = color.Output

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warnColor    = color.New(color.FgYellow)
	successColor = color.New(color.FgGreen)
	infoColor    = color.New(color.FgCyan)
	dimColor     = color.New(color.Faint)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)

	panelTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))
)

// ShowError prints an error line
func ShowError(msg string) {
	errorColor.Fprint(Out, "Error: ")
	fmt.Fprintln(Out, msg)
}

// ShowWarning prints a warning line
func ShowWarning(msg string) {
	warnColor.Fprintf(Out, "Warning: %s\n", msg)
}

// ShowSuccess prints a success line
func ShowSuccess(msg string) {
	successColor.Fprintf(Out, "✓ %s\n", msg)
}

// ShowInfo prints an informational line
func ShowInfo(msg string) {
	infoColor.Fprintln(Out, msg)
}

// ShowDim prints a de-emphasized line
func ShowDim(msg string) {
	dimColor.Fprintln(Out, msg)
}

// ShowModels lists models, marking the current one
func ShowModels(models []string, current string) {
	fmt.Fprintln(Out, "Available models:")
	for _, m := range models {
		if m == current {
			successColor.Fprintf(Out, "  * %s (current)\n", m)
			continue
		}
		fmt.Fprintf(Out, "    %s\n", m)
	}
}

// Panel draws body inside a rounded border with a title line
func Panel(title, body string) string {
	body = strings.TrimRight(body, "\n")
	if title == "" {
		return panelStyle.Render(body)
	}
	return panelStyle.Render(panelTitleStyle.Render(title) + "\n\n" + body)
}

// ShowPanel prints a Panel
func ShowPanel(title, body string) {
	fmt.Fprintln(Out, Panel(title, body))
}

// =============================================================================
// Markdown
// =============================================================================

var (
	rendererMu sync.Mutex
	renderer   *glamour.TermRenderer
)

// InitRenderer prepares the markdown renderer for the terminal width
func InitRenderer() error {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(terminalWidth()),
	)
	if err != nil {
		return fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	rendererMu.Lock()
	renderer = r
	rendererMu.Unlock()
	return nil
}

// RenderMarkdown renders md, or returns it unchanged when no renderer is
// initialized or rendering fails.
func RenderMarkdown(md string) string {
	rendererMu.Lock()
	r := renderer
	rendererMu.Unlock()
	if r == nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}

// ShowContent prints a response as plain text
func ShowContent(content string) {
	fmt.Fprintln(Out, content)
}

// ShowContentRendered prints a response as rendered markdown
func ShowContentRendered(content string) {
	fmt.Fprint(Out, RenderMarkdown(content))
}

func terminalWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 20 {
		return w - 4
	}
	return 80
}

// IsTerminal reports whether stdin and stdout are both terminals
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}
