package commands

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/atotto/clipboard"
	"golang.org/x/term"

	"github.com/diogo/chatwidget/internal/api"
	"github.com/diogo/chatwidget/internal/config"
	"github.com/diogo/chatwidget/internal/logging"
	"github.com/diogo/chatwidget/internal/tui"
	"github.com/diogo/chatwidget/internal/widget"
)

// Dependencies holds the external dependencies for the commands.
// This allows for dependency injection and easier testing.
type Dependencies struct {
	// NewCompleter builds the completion client for the loaded configuration
	NewCompleter func(cfg config.Config, logger *slog.Logger) (api.Completer, error)

	// NewLogger sets up diagnostic logging
	NewLogger func(cfg config.LogConfig) (*slog.Logger, error)

	// RunWidget runs the interactive view until the user quits
	RunWidget func(ctx context.Context, ctrl *widget.Controller, opts tui.Options) error

	// CopyToClipboard places text on the system clipboard
	CopyToClipboard func(text string) error

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// StdinIsTerminal reports whether stdin is interactive
	StdinIsTerminal func() bool
	// StdoutIsTerminal reports whether stdout is interactive
	StdoutIsTerminal func() bool
}

// NewDependencies creates a new Dependencies struct with default implementations.
func NewDependencies() *Dependencies {
	return &Dependencies{
		NewCompleter:    api.New,
		NewLogger:       logging.Init,
		RunWidget:       tui.RunWidget,
		CopyToClipboard: clipboard.WriteAll,
		Stdin:           os.Stdin,
		Stdout:          os.Stdout,
		Stderr:          os.Stderr,
		StdinIsTerminal: func() bool {
			return term.IsTerminal(int(os.Stdin.Fd()))
		},
		StdoutIsTerminal: func() bool {
			return term.IsTerminal(int(os.Stdout.Fd()))
		},
	}
}
