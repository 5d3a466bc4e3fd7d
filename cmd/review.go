package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/quocvuong92/helios/internal/display"
	"github.com/quocvuong92/helios/internal/gitops"
	"github.com/quocvuong92/helios/internal/logging"
)

// reviewOptions holds the flags of the review command
type reviewOptions struct {
	branch string
	commit bool
	push   bool
}

func (app *App) newReviewCmd() *cobra.Command {
	var opts reviewOptions

	cmd := &cobra.Command{
		Use:   "review",
		Short: "Review staged changes, then commit and push them",
		Long: `Show the staged diff of the current repository and offer to commit and
push it. When nothing is staged but the working tree has changes, offer to
stage everything first.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.setup(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return app.runReview(ctx, opts)
		},
	}

	cmd.Flags().StringVar(&opts.branch, "branch", "", "Create and switch to this branch before committing")
	cmd.Flags().BoolVar(&opts.commit, "commit", false, "Commit without asking")
	cmd.Flags().BoolVar(&opts.push, "push", false, "Push after committing without asking")
	return cmd
}

// runReview drives the review flow. Declining any step ends it without
// error.
func (app *App) runReview(ctx context.Context, opts reviewOptions) error {
	if !app.git.IsRepo() {
		return gitops.ErrNotRepo
	}

	if opts.branch != "" {
		if err := app.git.CreateBranch(opts.branch); err != nil {
			return err
		}
		display.ShowSuccess("Switched to new branch " + opts.branch)
	}

	diff, err := app.git.StagedDiff()
	if err != nil {
		return err
	}

	if diff == "" {
		changes, err := app.git.Status()
		if err != nil {
			return err
		}
		if len(changes) == 0 {
			display.ShowInfo("No modified or untracked files found.")
			return nil
		}
		display.ShowInfo("Nothing is staged, but the working tree has changes:")
		display.ShowDim(gitops.FormatStatus(changes))

		ok, err := app.prompter.Confirm("Stage all changes (including untracked files)?", true)
		if err != nil || !ok {
			return ignoreNoAnswer(err)
		}
		if err := app.git.AddAll(); err != nil {
			return err
		}
		if diff, err = app.git.StagedDiff(); err != nil {
			return err
		}
	}

	display.ShowDiff("Staged changes", diff)
	logging.Debug("review diff", logging.Fields{"bytes": len(diff)})

	if !opts.commit {
		ok, err := app.prompter.Confirm("Commit these changes?", true)
		if err != nil || !ok {
			return ignoreNoAnswer(err)
		}
	}
	if !app.commit("") {
		return nil
	}

	if !opts.push {
		ok, err := app.prompter.Confirm("Push to remote?", false)
		if err != nil || !ok {
			return ignoreNoAnswer(err)
		}
	}
	app.push(ctx)
	return nil
}

// ignoreNoAnswer treats closed input like a declined prompt
func ignoreNoAnswer(err error) error {
	if errors.Is(err, display.ErrNoAnswer) {
		return nil
	}
	return err
}
