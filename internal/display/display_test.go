package display

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quocvuong92/helios/internal/apply"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

// captureOut swaps Out for a buffer for the duration of the test
func captureOut(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := Out
	Out = &buf
	t.Cleanup(func() { Out = prev })
	return &buf
}

// =============================================================================
// Prompter
// =============================================================================

func TestConfirm(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		defaultYes bool
		want       bool
		wantErr    bool
	}{
		{"yes", "y\n", false, true, false},
		{"full yes", "YES\n", false, true, false},
		{"no", "n\n", true, false, false},
		{"empty takes default yes", "\n", true, true, false},
		{"empty takes default no", "\n", false, false, false},
		{"retry after garbage", "maybe\ny\n", false, true, false},
		{"answer without newline", "y", false, true, false},
		{"closed input", "", true, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := NewLinePrompter(strings.NewReader(tt.input), &out)

			got, err := p.Confirm("Apply?", tt.defaultYes)

			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNoAnswer)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, out.String(), "Apply?")
		})
	}
}

func TestConfirm_DefaultHint(t *testing.T) {
	var out bytes.Buffer
	_, _ = NewLinePrompter(strings.NewReader("\n"), &out).Confirm("Commit?", true)
	assert.Contains(t, out.String(), "[Y/n]")

	out.Reset()
	_, _ = NewLinePrompter(strings.NewReader("\n"), &out).Confirm("Commit?", false)
	assert.Contains(t, out.String(), "[y/N]")
}

func TestInput(t *testing.T) {
	var out bytes.Buffer
	p := NewLinePrompter(strings.NewReader("\nFix parser\n"), &out)

	first, err := p.Input("Commit message", "Update via AI Assistant")
	require.NoError(t, err)
	second, err := p.Input("Commit message", "Update via AI Assistant")
	require.NoError(t, err)

	assert.Equal(t, "Update via AI Assistant", first)
	assert.Equal(t, "Fix parser", second)
	assert.Contains(t, out.String(), "Commit message [Update via AI Assistant]: ")
}

// =============================================================================
// Console
// =============================================================================

func TestConsole_PresentDiff_Existing(t *testing.T) {
	var out bytes.Buffer
	c := NewConsole(&out, false)

	c.PresentDiff(&apply.DiffResult{
		Path:    "a.txt",
		Text:    "--- a/a.txt\n+++ b/a.txt\n@@ -1 +1 @@\n-old\n+new\n",
		Added:   1,
		Removed: 1,
	})

	text := out.String()
	assert.Contains(t, text, "Diff: a.txt (+1 -1)")
	assert.Contains(t, text, "-old")
	assert.Contains(t, text, "+new")
}

func TestConsole_PresentDiff_NewFile(t *testing.T) {
	var out bytes.Buffer
	c := NewConsole(&out, false)

	c.PresentDiff(&apply.DiffResult{Path: "app.py", NewFile: true, Language: "python", Text: "print(1)", Added: 1})

	assert.Contains(t, out.String(), "New file: app.py (python, 1 lines)")
	assert.Contains(t, out.String(), "print(1)")
}

func TestConsole_PresentDiff_Unchanged(t *testing.T) {
	var out bytes.Buffer
	NewConsole(&out, false).PresentDiff(&apply.DiffResult{Path: "same.txt", Unchanged: true})

	assert.Equal(t, "same.txt: no changes\n", out.String())
}

func TestConsole_PresentResult(t *testing.T) {
	var out bytes.Buffer
	c := NewConsole(&out, false)

	c.PresentResult(apply.ApplyResult{Path: "new.go", Created: true})
	c.PresentResult(apply.ApplyResult{Path: "old.go"})
	c.PresentResult(apply.ApplyResult{Path: "bad", Err: &apply.WriteError{Path: "bad", Err: errors.New("denied")}})

	text := out.String()
	assert.Contains(t, text, "✓ Created new.go\n")
	assert.Contains(t, text, "✓ Updated old.go\n")
	assert.Contains(t, text, "✗ cannot write bad: denied\n")
}

func TestConsole_PresentError(t *testing.T) {
	var out bytes.Buffer
	NewConsole(&out, false).PresentError(&apply.IOError{Path: "dir", Err: errors.New("is a directory")})

	assert.Equal(t, "Cannot preview dir: is a directory\n", out.String())
}

// =============================================================================
// Helpers
// =============================================================================

func TestColorizeDiff_PlainWithoutColor(t *testing.T) {
	diff := "--- a/f\n+++ b/f\n@@ -1 +1 @@\n-x\n+y\n"

	assert.Equal(t, strings.TrimRight(diff, "\n"), ColorizeDiff(diff))
}

func TestPanel(t *testing.T) {
	p := Panel("AI Response (gpt-4.1)", "hello")

	assert.Contains(t, p, "AI Response (gpt-4.1)")
	assert.Contains(t, p, "hello")
	assert.Greater(t, strings.Count(p, "\n"), 2)
}

func TestRenderMarkdown_WithoutRenderer(t *testing.T) {
	rendererMu.Lock()
	prev := renderer
	renderer = nil
	rendererMu.Unlock()
	t.Cleanup(func() {
		rendererMu.Lock()
		renderer = prev
		rendererMu.Unlock()
	})

	assert.Equal(t, "# title", RenderMarkdown("# title"))
}

func TestStatusLines(t *testing.T) {
	buf := captureOut(t)

	ShowError("boom")
	ShowWarning("careful")
	ShowSuccess("done")
	ShowModels([]string{"a", "b"}, "b")

	text := buf.String()
	assert.Contains(t, text, "Error: boom\n")
	assert.Contains(t, text, "Warning: careful\n")
	assert.Contains(t, text, "✓ done\n")
	assert.Contains(t, text, "  * b (current)\n")
	assert.Contains(t, text, "    a\n")
}
