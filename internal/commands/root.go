// Package commands provides CLI commands for chatwidget.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/diogo/chatwidget/internal/api"
	"github.com/diogo/chatwidget/internal/config"
	"github.com/diogo/chatwidget/internal/logging"
	"github.com/diogo/chatwidget/internal/models"
	"github.com/diogo/chatwidget/internal/render"
	"github.com/diogo/chatwidget/internal/transcript"
	"github.com/diogo/chatwidget/internal/tui"
	"github.com/diogo/chatwidget/internal/widget"
)

var (
	// Version info (set at build time)
	Version   = "0.1.0"
	BuildTime = "unknown"
)

// flags shared by the widget and ask commands
type globalFlags struct {
	model   string
	backend string
}

// NewRootCmd creates the base command. Without a subcommand it opens the widget.
func NewRootCmd(deps *Dependencies) *cobra.Command {
	if deps == nil {
		deps = NewDependencies()
	}
	flags := &globalFlags{}
	var openFlag bool

	cmd := &cobra.Command{
		Use:   "chatwidget",
		Short: "Terminal chat widget for a Gemini-style completion endpoint",
		Long: `chatwidget shows a floating "AI" button in the corner of the terminal.
Open it to chat with an assistant backed by a generateContent endpoint.

The API key is read from the GEMINI_API_KEY environment variable.

Examples:
  chatwidget                            Start with the panel closed
  chatwidget --open                     Start with the panel open
  chatwidget ask "What is Go?"          Send a single message
  cat notes.md | chatwidget ask         Read the message from stdin
  chatwidget config                     Show the effective configuration`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if v, _ := cmd.Flags().GetBool("version"); v {
				fmt.Fprintf(deps.Stdout, "chatwidget %s (built %s)\n", Version, BuildTime)
				return nil
			}
			return runWidget(cmd.Context(), deps, flags, openFlag)
		},
	}

	cmd.PersistentFlags().StringVarP(&flags.model, "model", "m", "", "Model to use ("+strings.Join(models.AllModels(), ", ")+")")
	cmd.PersistentFlags().StringVar(&flags.backend, "backend", "", "Completion backend ("+strings.Join(models.AllBackends(), ", ")+")")
	cmd.Flags().BoolVar(&openFlag, "open", false, "Start with the chat panel open")
	cmd.Flags().BoolP("version", "v", false, "Show version and exit")

	cmd.AddCommand(NewAskCmd(deps, flags))
	cmd.AddCommand(NewConfigCmd(deps))

	return cmd
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd(nil).ExecuteContext(ctx); err != nil {
		tui.PrintError(err)
		stop()
		os.Exit(1)
	}
}

// loadConfig loads the configuration and applies command line overrides
func loadConfig(flags *globalFlags) (config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return cfg, err
	}
	if flags != nil {
		if flags.model != "" {
			cfg.Model = flags.model
		}
		if flags.backend != "" {
			cfg.Backend = flags.backend
		}
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// setup loads configuration, logging and the completion client
func setup(deps *Dependencies, flags *globalFlags) (config.Config, *slog.Logger, api.Completer, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return cfg, nil, nil, err
	}

	logger, err := deps.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "Warning: logging disabled: %v\n", err)
	}
	if logger == nil {
		logger = logging.Discard()
	}

	client, err := deps.NewCompleter(cfg, logger)
	if err != nil {
		return cfg, logger, nil, fmt.Errorf("failed to create client: %w", err)
	}

	logger.Info("client_ready", "model", cfg.Model, "backend", cfg.Backend)
	return cfg, logger, client, nil
}

// newController seeds a conversation for cfg
func newController(cfg config.Config, client api.Completer, logger *slog.Logger) *widget.Controller {
	return widget.New(client,
		widget.WithGreeting(cfg.Greeting),
		widget.WithLogger(logger),
	)
}

func runWidget(ctx context.Context, deps *Dependencies, flags *globalFlags, open bool) error {
	cfg, logger, client, err := setup(deps, flags)
	if err != nil {
		return err
	}

	ctrl := newController(cfg, client, logger)
	if open || cfg.StartOpen {
		ctrl.TogglePanel()
	}

	format, err := transcript.ParseFormat(cfg.TranscriptFormat)
	if err != nil {
		return err
	}

	transcriptDir, err := config.GetTranscriptDir(cfg)
	if err != nil {
		logger.Warn("transcript_dir_unavailable", "error", err.Error())
		transcriptDir = ""
	}

	return deps.RunWidget(ctx, ctrl, tui.Options{
		ModelName:        cfg.Model,
		TranscriptDir:    transcriptDir,
		TranscriptFormat: format,
		Render:           render.FromConfig(cfg.Markdown),
		Logger:           logger,
	})
}
