// Package codeblock extracts file-targeted code blocks from model output.
//
// A block is a fenced segment whose opening fence names a file:
//
//	```go:internal/server/server.go
//	package server
//	```
//
// The text is read line by line by a small state machine
// (outside, hint, body, closed). Fences whose hint does not look like a
// path are narrative and are skipped. A fence that is never closed is
// dropped together with the rest of the text.
package codeblock

import (
	"strings"
)

const fenceMarker = "```"

// Fence is one closed fenced segment, file-targeted or not.
type Fence struct {
	// Hint is the trimmed text after the opening marker
	Hint string
	// Lang is the language token, if any
	Lang string
	// Path is the file path named by the hint, empty when there is none
	Path string
	// Body is the text between the fences with surrounding whitespace trimmed
	Body string
}

// Block is a fence that targets a file.
type Block struct {
	Path    string
	Content string
}

type state int

const (
	stateOutside state = iota
	stateHint
	stateBody
	stateClosed
)

// scanner walks the text once, emitting every closed fence
type scanner struct {
	state  state
	hint   string
	body   []string
	fences []Fence
}

func (s *scanner) feed(line string) {
	line = strings.TrimSuffix(line, "\r")

	switch s.state {
	case stateOutside, stateClosed:
		trimmed := strings.TrimLeft(line, " \t")
		if !strings.HasPrefix(trimmed, fenceMarker) {
			s.state = stateOutside
			return
		}
		s.state = stateHint
		s.readHint(strings.TrimPrefix(trimmed, fenceMarker))

	case stateBody:
		if strings.TrimSpace(line) == fenceMarker {
			s.fences = append(s.fences, newFence(s.hint, strings.Join(s.body, "\n")))
			s.state = stateClosed
			return
		}
		s.body = append(s.body, line)
	}
}

// readHint consumes the rest of the opening line; the body starts on the
// next line.
func (s *scanner) readHint(rest string) {
	s.hint = strings.TrimSpace(rest)
	s.body = s.body[:0]
	s.state = stateBody
}

// Fences returns every closed fence in text, in order of appearance.
func Fences(text string) []Fence {
	s := &scanner{}
	for _, line := range strings.Split(text, "\n") {
		s.feed(line)
	}
	return s.fences
}

// Extract returns the file-targeted blocks of text as an ordered ChangeSet.
// An empty ChangeSet is not an error.
func Extract(text string) *ChangeSet {
	cs := NewChangeSet()
	for _, f := range Fences(text) {
		if f.Path != "" {
			cs.Set(f.Path, f.Body)
		}
	}
	return cs
}

func newFence(hint, body string) Fence {
	lang, path := ParseHint(hint)
	return Fence{
		Hint: hint,
		Lang: lang,
		Path: path,
		Body: strings.TrimSpace(body),
	}
}

// ParseHint splits an opening-fence hint into its language token and file
// path. The path is what follows a "lang:" prefix, or the whole hint when
// there is none; it is returned only when IsPathLike accepts it.
//
//	"python:src/app.py" -> ("python", "src/app.py")
//	"src/app.py"        -> ("", "src/app.py")
//	"bash"              -> ("bash", "")
func ParseHint(hint string) (lang, path string) {
	hint = strings.TrimSpace(hint)
	if hint == "" {
		return "", ""
	}

	candidate := hint
	if prefix, rest, ok := strings.Cut(hint, ":"); ok {
		if prefix = strings.TrimSpace(prefix); isWord(prefix) && !isDriveLetter(prefix, rest) {
			lang = prefix
			candidate = strings.TrimSpace(rest)
		}
	}

	if IsPathLike(candidate) {
		return lang, candidate
	}
	if lang == "" && isWord(candidate) {
		lang = candidate
	}
	return lang, ""
}

// IsPathLike reports whether s names a file: non-empty and containing a
// path separator or a dot.
func IsPathLike(s string) bool {
	return s != "" && strings.ContainsAny(s, `/\.`)
}

func isWord(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !(r == '_' || r == '+' || r == '#' || r == '-' ||
			('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9')) {
			return false
		}
	}
	return true
}

// isDriveLetter treats "C:\src\app.py" as a path, not a "C" language prefix
func isDriveLetter(prefix, rest string) bool {
	return len(prefix) == 1 && (strings.HasPrefix(rest, `\`) || strings.HasPrefix(rest, "/"))
}
