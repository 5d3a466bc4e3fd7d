// Package apply turns an extracted ChangeSet into file writes: it previews
// each change as a diff, asks for one batch confirmation, then writes every
// block independently so one failure never stops the rest.
package apply

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/quocvuong92/helios/internal/codeblock"
	"github.com/quocvuong92/helios/internal/constants"
	"github.com/quocvuong92/helios/internal/fileops"
	"github.com/quocvuong92/helios/internal/logging"
	"github.com/quocvuong92/helios/internal/textdiff"
)

// IOError is a read failure while previewing a change
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string { return fmt.Sprintf("cannot read %s: %v", e.Path, e.Err) }
func (e *IOError) Unwrap() error { return e.Err }

// WriteError is a failure to write one file of a batch
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string { return fmt.Sprintf("cannot write %s: %v", e.Path, e.Err) }
func (e *WriteError) Unwrap() error { return e.Err }

// DiffResult is the preview of one pending write
type DiffResult struct {
	Path string
	// NewFile is set when the target does not exist yet; Text is then the
	// full new content and Language the fence language for it.
	NewFile  bool
	Language string
	// Text is a unified diff for existing files
	Text      string
	Added     int
	Removed   int
	Unchanged bool
}

// Confirmer asks the user a yes/no question
type Confirmer interface {
	Confirm(question string, defaultYes bool) (bool, error)
}

// Presenter shows previews and per-file outcomes
type Presenter interface {
	PresentDiff(d *DiffResult)
	PresentResult(r ApplyResult)
	PresentError(err error)
}

// Options controls a batch apply
type Options struct {
	// ShowDiff previews every block before the confirmation
	ShowDiff bool
	// AutoApply skips the batch confirmation. Blocks that would truncate a
	// file to empty are still confirmed one by one.
	AutoApply bool
}

// ApplyResult is the outcome of writing one file
type ApplyResult struct {
	Path    string
	Created bool
	Err     error
}

// OK reports whether the write succeeded
func (r ApplyResult) OK() bool { return r.Err == nil }

// BatchResult is the outcome of ApplyChangeSet
type BatchResult struct {
	// Modified lists written paths in ChangeSet order
	Modified []string
	// Failed holds one *WriteError per failed path
	Failed []*WriteError
	// Skipped lists empty-content blocks the user chose not to apply
	Skipped []string
	// Declined is set when the batch confirmation was refused
	Declined bool
}

// Applier previews and writes ChangeSets
type Applier struct {
	confirm Confirmer
	out     Presenter
	log     *logging.Logger
}

// NewApplier creates an Applier. out may be nil.
func NewApplier(confirm Confirmer, out Presenter) *Applier {
	if out == nil {
		out = nopPresenter{}
	}
	return &Applier{
		confirm: confirm,
		out:     out,
		log:     logging.DefaultLogger.With(logging.Fields{"component": "apply"}),
	}
}

// PreviewDiff compares path on disk with newContent without writing.
func (a *Applier) PreviewDiff(path, newContent string) (*DiffResult, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &DiffResult{
			Path:     path,
			NewFile:  true,
			Language: fileops.LanguageFromExtension(path),
			Text:     newContent,
			Added:    countLines(newContent),
		}, nil
	}
	if err != nil {
		return nil, &IOError{Path: path, Err: err}
	}

	d := textdiff.Unified("a/"+path, "b/"+path, string(data), newContent, constants.DiffContextLines)
	return &DiffResult{
		Path:      path,
		Language:  "diff",
		Text:      d.Text,
		Added:     d.Added,
		Removed:   d.Removed,
		Unchanged: d.Empty(),
	}, nil
}

// Apply writes content to path, creating parent directories.
func (a *Applier) Apply(path, content string) ApplyResult {
	_, statErr := os.Stat(path)
	created := errors.Is(statErr, fs.ErrNotExist)

	if err := fileops.WriteFile(path, content); err != nil {
		a.log.Debug("write failed", logging.Fields{"path": path, "error": err.Error()})
		return ApplyResult{Path: path, Err: &WriteError{Path: path, Err: err}}
	}
	a.log.Debug("wrote file", logging.Fields{"path": path, "bytes": len(content), "created": created})
	return ApplyResult{Path: path, Created: created}
}

// ApplyChangeSet previews, confirms and writes every block of cs.
// Confirmation errors count as a decline. Write failures are collected
// per file and never abort the batch.
func (a *Applier) ApplyChangeSet(ctx context.Context, cs *codeblock.ChangeSet, opts Options) BatchResult {
	var result BatchResult
	if cs == nil || cs.Len() == 0 {
		return result
	}
	blocks := cs.Blocks()

	if opts.ShowDiff {
		for _, b := range blocks {
			d, err := a.PreviewDiff(b.Path, b.Content)
			if err != nil {
				a.out.PresentError(err)
				continue
			}
			a.out.PresentDiff(d)
		}
	}

	if !opts.AutoApply {
		question := fmt.Sprintf("Apply changes to %d file(s)?", len(blocks))
		ok, err := a.confirm.Confirm(question, true)
		if err != nil || !ok {
			result.Declined = true
			return result
		}
	}

	for i, b := range blocks {
		if err := ctx.Err(); err != nil {
			for _, rest := range blocks[i:] {
				result.Failed = append(result.Failed, &WriteError{Path: rest.Path, Err: err})
			}
			break
		}

		if b.Content == "" && opts.AutoApply {
			ok, err := a.confirm.Confirm(fmt.Sprintf("%s would be emptied. Apply anyway?", b.Path), false)
			if err != nil || !ok {
				result.Skipped = append(result.Skipped, b.Path)
				continue
			}
		}

		r := a.Apply(b.Path, b.Content)
		a.out.PresentResult(r)
		if r.OK() {
			result.Modified = append(result.Modified, b.Path)
			continue
		}
		var we *WriteError
		if errors.As(r.Err, &we) {
			result.Failed = append(result.Failed, we)
		}
	}

	a.log.Info("change set applied", logging.Fields{
		"modified": len(result.Modified),
		"failed":   len(result.Failed),
		"skipped":  len(result.Skipped),
	})
	return result
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := 1
	for i := 0; i < len(s)-1; i++ {
		if s[i] == '\n' {
			n++
		}
	}
	return n
}

type nopPresenter struct{}

func (nopPresenter) PresentDiff(*DiffResult)  {}
func (nopPresenter) PresentResult(ApplyResult) {}
func (nopPresenter) PresentError(error)        {}
