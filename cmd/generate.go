package cmd

import (
	"context"
	"fmt"

	"github.com/quocvuong92/helios/internal/api"
	"github.com/quocvuong92/helios/internal/apply"
	"github.com/quocvuong92/helios/internal/codeblock"
	"github.com/quocvuong92/helios/internal/constants"
	"github.com/quocvuong92/helios/internal/display"
	"github.com/quocvuong92/helios/internal/fileops"
	"github.com/quocvuong92/helios/internal/logging"
	"github.com/quocvuong92/helios/internal/session"
)

// generate sends prompt with the session context and shows the answer.
// The exchange is recorded in the session only when the request succeeds.
func (app *App) generate(ctx context.Context, sess *session.Session, prompt string) (string, error) {
	gitContext, err := session.GitContext(app.git)
	if err != nil {
		logging.Warn("git context unavailable", logging.Fields{"error": err.Error()})
	}
	messages := sess.BuildMessages(prompt, gitContext)

	sp := display.NewSpinner("Thinking...")
	sp.Start()

	var resp *api.ChatResponse
	if app.cfg.Stream {
		firstChunk := true
		resp, err = app.client.Stream(ctx, sess.Model, messages, func(chunk string) {
			if firstChunk {
				firstChunk = false
				if app.cfg.Render {
					sp.UpdateMessage("Receiving...")
				} else {
					sp.Stop()
					display.ShowDim(responseTitle(sess.Model))
				}
			}
			if !app.cfg.Render {
				fmt.Fprint(display.Out, chunk)
			}
		})
	} else {
		resp, err = app.client.Complete(ctx, sess.Model, messages)
	}
	sp.Stop()

	if err != nil {
		return "", fmt.Errorf("generation failed: %w", err)
	}

	content := resp.GetContent()
	if app.cfg.Stream && !app.cfg.Render {
		fmt.Fprintln(display.Out)
	} else {
		app.showResponse(sess.Model, content)
	}

	sess.Record(prompt, content)
	return content, nil
}

func responseTitle(model string) string {
	return fmt.Sprintf("AI Response (%s)", model)
}

func (app *App) showResponse(model, content string) {
	if app.cfg.Render {
		display.ShowPanel(responseTitle(model), display.RenderMarkdown(content))
		return
	}
	display.ShowPanel(responseTitle(model), content)
}

// processResponse applies the file blocks of content. Without any file
// block the whole response can be saved instead.
func (app *App) processResponse(ctx context.Context, content string) {
	cs := codeblock.Extract(content)
	if cs.Len() == 0 {
		app.offerSaveResponse(content)
		return
	}

	applier := apply.NewApplier(app.prompter, display.NewConsole(nil, app.cfg.Render))
	result := applier.ApplyChangeSet(ctx, cs, apply.Options{
		ShowDiff:  app.cfg.ShowDiff,
		AutoApply: app.cfg.AutoApply,
	})

	if result.Declined {
		display.ShowInfo("Changes not applied.")
		return
	}
	for _, p := range result.Skipped {
		display.ShowDim("Skipped " + p)
	}
	if len(result.Failed) > 0 {
		display.ShowWarning(fmt.Sprintf("%d of %d file(s) could not be written", len(result.Failed), cs.Len()))
	}
	if len(result.Modified) > 0 {
		app.offerCommit(ctx, result.Modified)
	}
}

func (app *App) offerSaveResponse(content string) {
	ok, err := app.prompter.Confirm("No file changes found. Save the response to a file?", false)
	if err != nil || !ok {
		return
	}
	path, err := app.prompter.Input("File name", constants.DefaultSuggestionFile)
	if err != nil {
		return
	}
	if err := fileops.WriteFile(path, content); err != nil {
		display.ShowError(fmt.Sprintf("Failed to save response: %v", err))
		return
	}
	display.ShowSuccess("Saved response to " + path)
}

// offerCommit stages exactly paths, commits them and offers a push.
// Outside a repository it first offers to create one.
func (app *App) offerCommit(ctx context.Context, paths []string) {
	if !app.git.IsRepo() {
		ok, err := app.prompter.Confirm("Not a git repository. Initialize one here?", false)
		if err != nil || !ok {
			return
		}
		if err := app.git.InitRepo(); err != nil {
			display.ShowError(err.Error())
			return
		}
		display.ShowSuccess("Initialized git repository")
	}

	ok, err := app.prompter.Confirm(fmt.Sprintf("Commit %d changed file(s)?", len(paths)), true)
	if err != nil || !ok {
		return
	}
	if err := app.git.Stage(paths...); err != nil {
		display.ShowError(err.Error())
		return
	}
	if !app.commit("") {
		return
	}
	if ok, err := app.prompter.Confirm("Push to remote?", false); err == nil && ok {
		app.push(ctx)
	}
}

// commit commits the index. An empty message is asked for, defaulting to
// constants.DefaultCommitMessage.
func (app *App) commit(message string) bool {
	if message == "" {
		var err error
		message, err = app.prompter.Input("Commit message", constants.DefaultCommitMessage)
		if err != nil {
			return false
		}
	}
	hash, err := app.git.Commit(message)
	if err != nil {
		display.ShowError(err.Error())
		return false
	}
	display.ShowSuccess(fmt.Sprintf("Committed %s: %s", shortHash(hash), message))
	return true
}

// push pushes the current branch
func (app *App) push(ctx context.Context) bool {
	branch, err := app.git.CurrentBranch()
	if err != nil {
		display.ShowError(err.Error())
		return false
	}

	sp := display.NewSpinner(fmt.Sprintf("Pushing %s...", branch))
	sp.Start()
	err = app.git.Push(ctx, branch)
	sp.Stop()

	if err != nil {
		display.ShowError(err.Error())
		return false
	}
	display.ShowSuccess("Pushed " + branch)
	return true
}

func shortHash(hash string) string {
	if len(hash) > 7 {
		return hash[:7]
	}
	return hash
}
