package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/diogo/chatwidget/internal/models"
	"github.com/diogo/chatwidget/internal/render"
)

var (
	colorText     = lipgloss.Color("#c0caf5")
	colorTextMute = lipgloss.Color("#3b4261")
	colorSuccess  = lipgloss.Color("#9ece6a")
	colorPrimary  = lipgloss.Color("#7aa2f7")
	colorWarning  = lipgloss.Color("#f7768e")
)

// Styles matching the widget TUI
var (
	assistantLabelStyle = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)

	assistantBubbleStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(colorPrimary).
				Foreground(colorText).
				Padding(0, 1).
				MarginBottom(1)
)

type askFlags struct {
	file   string
	output string
	copy   bool
}

// NewAskCmd creates the one-shot ask command
func NewAskCmd(deps *Dependencies, global *globalFlags) *cobra.Command {
	flags := &askFlags{}

	cmd := &cobra.Command{
		Use:   "ask [message]",
		Short: "Send a single message and print the reply",
		Long: `Send one message through the same conversation flow as the widget:
the greeting is seeded, the message is submitted and the assistant turn is printed.

The message is taken from --file, then from the first argument, then from
stdin when it is not a terminal.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt, err := readPrompt(deps, flags, args)
			if err != nil {
				return err
			}
			return runAsk(cmd.Context(), deps, global, flags, prompt)
		},
	}

	cmd.Flags().StringVarP(&flags.file, "file", "f", "", "Read the message from file")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Save the reply to file")
	cmd.Flags().BoolVar(&flags.copy, "copy", false, "Copy the reply to the clipboard")

	return cmd
}

// readPrompt picks the message source: file, argument, then piped stdin
func readPrompt(deps *Dependencies, flags *askFlags, args []string) (string, error) {
	if flags.file != "" {
		data, err := os.ReadFile(flags.file)
		if err != nil {
			return "", fmt.Errorf("failed to read file: %w", err)
		}
		return string(data), nil
	}

	if len(args) > 0 {
		return args[0], nil
	}

	if !deps.StdinIsTerminal() {
		data, err := io.ReadAll(deps.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}

	return "", fmt.Errorf("no message given: pass it as an argument, with --file or on stdin")
}

// runAsk submits prompt and writes the assistant turn. Failures are part of
// the reply, as they are in the widget.
func runAsk(ctx context.Context, deps *Dependencies, global *globalFlags, flags *askFlags, prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return fmt.Errorf("message cannot be empty")
	}

	cfg, logger, client, err := setup(deps, global)
	if err != nil {
		return err
	}

	ctrl := newController(cfg, client, logger)
	ctrl.TogglePanel()

	decorated := deps.StdoutIsTerminal()

	var spin *spinner
	if decorated {
		spin = newSpinner(deps.Stderr, "Thinking...")
		spin.start()
	}
	accepted := ctrl.Submit(ctx, prompt)
	if spin != nil {
		spin.stop()
	}
	if !accepted {
		return fmt.Errorf("message was not accepted")
	}

	reply, ok := ctrl.LastReply()
	if !ok {
		return fmt.Errorf("no reply recorded")
	}
	text := reply.Content

	if flags.copy || cfg.CopyToClipboard {
		if err := deps.CopyToClipboard(text); err != nil {
			fmt.Fprintln(deps.Stderr, lipgloss.NewStyle().Foreground(colorWarning).Render(
				fmt.Sprintf("⚠ Failed to copy to clipboard: %v", err),
			))
		} else if decorated {
			fmt.Fprintln(deps.Stderr, lipgloss.NewStyle().Foreground(colorSuccess).Render("✓ Copied to clipboard"))
		}
	}

	if flags.output != "" {
		if err := os.WriteFile(flags.output, []byte(text), 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		if decorated {
			fmt.Fprintln(deps.Stderr, lipgloss.NewStyle().Foreground(colorSuccess).Render(
				fmt.Sprintf("✓ Reply saved to %s", flags.output),
			))
		}
		return nil
	}

	if !decorated {
		fmt.Fprintln(deps.Stdout, text)
		return nil
	}

	bubbleWidth := min(max(getTerminalWidth()-4, 40), 120)
	renderOpts := render.FromConfig(cfg.Markdown).WithWidth(bubbleWidth - 4)

	fmt.Fprintln(deps.Stdout, assistantLabelStyle.Render(models.RoleAssistant.Label()))
	fmt.Fprintln(deps.Stdout, assistantBubbleStyle.Width(bubbleWidth).Render(render.Turn(text, renderOpts)))
	return nil
}

// getTerminalWidth returns the terminal width or a default value
func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

// spinner draws a one-line progress indicator while a reply is awaited
type spinner struct {
	out     io.Writer
	message string
	done    chan struct{}
	quit    chan struct{}
	once    sync.Once
}

func newSpinner(out io.Writer, message string) *spinner {
	return &spinner{
		out:     out,
		message: message,
		done:    make(chan struct{}),
		quit:    make(chan struct{}),
	}
}

func (s *spinner) start() {
	go func() {
		defer close(s.done)

		chars := []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		fmt.Fprint(s.out, "\033[?25l")
		for frame := 0; ; frame++ {
			select {
			case <-s.quit:
				fmt.Fprint(s.out, "\r\033[K\033[?25h")
				return
			case <-ticker.C:
				spinChar := lipgloss.NewStyle().Foreground(colorPrimary).Bold(true).Render(chars[frame%len(chars)])
				msg := lipgloss.NewStyle().Foreground(colorTextMute).Render(s.message)
				fmt.Fprintf(s.out, "\r\033[K%s %s", spinChar, msg)
			}
		}
	}()
}

// stop is safe to call more than once
func (s *spinner) stop() {
	s.once.Do(func() { close(s.quit) })
	<-s.done
}
