package display

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/quocvuong92/helios/internal/apply"
)

var (
	addedColor   = color.New(color.FgGreen)
	removedColor = color.New(color.FgRed)
	hunkColor    = color.New(color.FgCyan)
	headerColor  = color.New(color.Bold)
)

// Console presents change previews and write outcomes
type Console struct {
	out    io.Writer
	render bool
}

var (
	_ apply.Presenter = (*Console)(nil)
	_ apply.Confirmer = (*Prompter)(nil)
)

// NewConsole returns a Console writing to out. With render set, previews
// go through the markdown renderer.
func NewConsole(out io.Writer, render bool) *Console {
	if out == nil {
		out = Out
	}
	return &Console{out: out, render: render}
}

// PresentDiff shows one pending change
func (c *Console) PresentDiff(d *apply.DiffResult) {
	switch {
	case d.NewFile:
		title := fmt.Sprintf("New file: %s (%s, %d lines)", d.Path, d.Language, d.Added)
		if c.render {
			fmt.Fprintln(c.out, Panel(title, RenderMarkdown(fence(d.Language, d.Text))))
			return
		}
		fmt.Fprintln(c.out, Panel(title, d.Text))
	case d.Unchanged:
		fmt.Fprintf(c.out, "%s: no changes\n", d.Path)
	default:
		title := fmt.Sprintf("Diff: %s (+%d -%d)", d.Path, d.Added, d.Removed)
		if c.render {
			fmt.Fprintln(c.out, Panel(title, RenderMarkdown(fence("diff", d.Text))))
			return
		}
		fmt.Fprintln(c.out, Panel(title, ColorizeDiff(d.Text)))
	}
}

// PresentResult reports one written or failed file
func (c *Console) PresentResult(r apply.ApplyResult) {
	if !r.OK() {
		errorColor.Fprint(c.out, "✗ ")
		fmt.Fprintln(c.out, r.Err)
		return
	}
	verb := "Updated"
	if r.Created {
		verb = "Created"
	}
	successColor.Fprintf(c.out, "✓ %s %s\n", verb, r.Path)
}

// PresentError reports a preview failure
func (c *Console) PresentError(err error) {
	var ioErr *apply.IOError
	if errors.As(err, &ioErr) {
		warnColor.Fprintf(c.out, "Cannot preview %s: %v\n", ioErr.Path, ioErr.Err)
		return
	}
	warnColor.Fprintln(c.out, err)
}

// ShowDiff prints a unified diff, colored line by line
func ShowDiff(title, diff string) {
	fmt.Fprintln(Out, Panel(title, ColorizeDiff(diff)))
}

// ColorizeDiff colors added, removed and hunk header lines
func ColorizeDiff(diff string) string {
	lines := strings.Split(strings.TrimRight(diff, "\n"), "\n")
	for i, l := range lines {
		switch {
		case strings.HasPrefix(l, "+++"), strings.HasPrefix(l, "---"), strings.HasPrefix(l, "diff --git"):
			lines[i] = headerColor.Sprint(l)
		case strings.HasPrefix(l, "+"):
			lines[i] = addedColor.Sprint(l)
		case strings.HasPrefix(l, "-"):
			lines[i] = removedColor.Sprint(l)
		case strings.HasPrefix(l, "@@"):
			lines[i] = hunkColor.Sprint(l)
		}
	}
	return strings.Join(lines, "\n")
}

func fence(lang, body string) string {
	return "```" + lang + "\n" + strings.TrimRight(body, "\n") + "\n```\n"
}
