package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/quocvuong92/helios/internal/api"
	"github.com/quocvuong92/helios/internal/config"
	"github.com/quocvuong92/helios/internal/display"
	"github.com/quocvuong92/helios/internal/gitops"
	"github.com/quocvuong92/helios/internal/logging"
	"github.com/quocvuong92/helios/internal/session"
)

// errNoPrompt is returned when neither a prompt nor -i is given
var errNoPrompt = errors.New("a prompt is required unless --interactive is set")

// App holds the application state
type App struct {
	cfg        *config.Config
	client     api.Client
	git        gitops.Git
	prompter   *display.Prompter
	workDir    string
	verbose    bool
	listModels bool
}

// NewApp creates a new App instance with default configuration
func NewApp() *App {
	return &App{
		cfg:      config.NewConfig(),
		prompter: display.NewPrompter(),
		workDir:  ".",
	}
}

// Execute runs the root command
func Execute() {
	app := NewApp()

	rootCmd := &cobra.Command{
		Use:   "helios [prompt]",
		Short: "An AI assistant that writes code into your repository",
		Long: `Helios sends your prompt, the files you point it at and the state of your
Git repository to an OpenAI-compatible model. Code blocks in the answer that
name a file are previewed, confirmed and written, and the result can be
committed and pushed.

Examples:
  helios "Add a --json flag" -f cmd/root.go
  helios -d -f main.go "Handle SIGTERM"     # Preview diffs before applying
  helios -i -f internal/server.go           # Interactive mode
  helios review --commit                    # Review and commit staged changes
  helios config init                        # Write a default config file`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd, args)
		},
	}

	flags := rootCmd.Flags()
	flags.StringArrayVarP(&app.cfg.Files, "file", "f", nil, "Add a file to the context (repeatable)")
	flags.BoolVarP(&app.cfg.ShowDiff, "diff", "d", false, "Show diffs before applying changes")
	flags.BoolVarP(&app.cfg.AutoApply, "apply", "a", false, "Apply changes without asking")
	flags.StringVarP(&app.cfg.Model, "model", "m", "", "Model name (e.g., gpt-4.1)")
	flags.BoolVarP(&app.cfg.Interactive, "interactive", "i", false, "Interactive chat mode")
	flags.BoolVarP(&app.cfg.Render, "render", "r", false, "Render markdown with colors and formatting")
	flags.BoolVarP(&app.cfg.Stream, "stream", "s", false, "Stream output in real-time")
	flags.BoolVar(&app.listModels, "list-models", false, "List available models")
	rootCmd.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(app.newReviewCmd())
	rootCmd.AddCommand(newConfigCmd())

	if err := rootCmd.Execute(); err != nil {
		display.ShowError(err.Error())
		os.Exit(1)
	}
}

// setup configures logging and validates configuration. It does not
// require an API key, so Git-only commands work without one.
func (app *App) setup() error {
	logging.Configure(app.verbose)
	app.cfg.Debug = app.verbose

	if err := app.cfg.Validate(); err != nil {
		return err
	}

	if app.cfg.Render {
		if err := display.InitRenderer(); err != nil {
			logging.Warn("markdown rendering disabled", logging.Fields{"error": err.Error()})
		}
	}

	if app.git == nil {
		app.git = gitops.New(app.workDir, gitops.Options{
			AuthorName:  app.cfg.GitAuthorName,
			AuthorEmail: app.cfg.GitAuthorEmail,
			Remote:      app.cfg.GitRemote,
		})
	}
	return nil
}

// connect creates the chat client. A missing key is the one fatal error
// of request preparation.
func (app *App) connect() error {
	if app.client != nil {
		return nil
	}
	client, err := api.NewClient(app.cfg)
	if err != nil {
		return err
	}
	app.client = client
	return nil
}

func (app *App) run(cmd *cobra.Command, args []string) error {
	err := app.setup()
	if app.listModels && (err == nil || errors.Is(err, config.ErrInvalidModel)) {
		display.ShowModels(app.cfg.AvailableModels, app.cfg.Model)
		return nil
	}
	if err != nil {
		return err
	}

	if err := app.connect(); err != nil {
		return err
	}

	sess := session.New(app.cfg.Model, app.cfg.SystemMessage)

	if app.cfg.Interactive {
		return app.runInteractive(sess)
	}

	if len(args) == 0 {
		_ = cmd.Help()
		return errNoPrompt
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app.loadContext(ctx, sess, app.cfg.Files)

	logging.Debug("running prompt", logging.Fields{
		"model":  app.cfg.Model,
		"files":  len(sess.Files()),
		"stream": app.cfg.Stream,
	})

	content, err := app.generate(ctx, sess, args[0])
	if err != nil {
		return err
	}
	app.processResponse(ctx, content)
	return nil
}

// loadContext reads paths into the session and reports every file that
// could not be read.
func (app *App) loadContext(ctx context.Context, sess *session.Session, paths []string) {
	if len(paths) == 0 {
		return
	}
	for _, w := range sess.LoadFiles(ctx, paths) {
		display.ShowWarning(w.Error())
	}
	if n := len(sess.Files()); n > 0 {
		display.ShowDim(fmt.Sprintf("Loaded %d file(s) into context", n))
	}
}
