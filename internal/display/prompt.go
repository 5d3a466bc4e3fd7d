package display

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
)

// ErrNoAnswer is returned when input ends before an answer is given
var ErrNoAnswer = errors.New("no answer (input closed)")

// Prompter asks yes/no and free-text questions. On a terminal it uses huh
// forms; otherwise it reads lines from its input, which keeps piped and
// scripted runs working.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
	tty bool
}

// NewPrompter returns a Prompter on stdin/stdout
func NewPrompter() *Prompter {
	return &Prompter{in: bufio.NewReader(os.Stdin), out: os.Stdout, tty: IsTerminal()}
}

// NewLinePrompter returns a Prompter that always reads plain lines
func NewLinePrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// Confirm asks a yes/no question. An empty answer selects defaultYes.
func (p *Prompter) Confirm(question string, defaultYes bool) (bool, error) {
	if p.tty {
		ok := defaultYes
		err := huh.NewConfirm().
			Title(question).
			Affirmative("Yes").
			Negative("No").
			Value(&ok).
			Run()
		if err != nil {
			return false, err
		}
		return ok, nil
	}

	hint := "[y/N]"
	if defaultYes {
		hint = "[Y/n]"
	}
	for {
		fmt.Fprintf(p.out, "%s %s ", question, hint)
		line, err := p.readLine()
		if err != nil {
			return false, err
		}
		switch strings.ToLower(line) {
		case "":
			return defaultYes, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		fmt.Fprintln(p.out, "Please answer y or n.")
	}
}

// Input asks for a line of text. An empty answer selects def.
func (p *Prompter) Input(question, def string) (string, error) {
	if p.tty {
		value := def
		err := huh.NewInput().
			Title(question).
			Value(&value).
			Run()
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(value) == "" {
			return def, nil
		}
		return strings.TrimSpace(value), nil
	}

	if def != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", question, def)
	} else {
		fmt.Fprintf(p.out, "%s: ", question)
	}
	line, err := p.readLine()
	if err != nil {
		return "", err
	}
	if line == "" {
		return def, nil
	}
	return line, nil
}

func (p *Prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
		if errors.Is(err, io.EOF) {
			return "", ErrNoAnswer
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}
