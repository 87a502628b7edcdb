package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/diogo/chatwidget/internal/config"
	"github.com/diogo/chatwidget/internal/transcript"
)

var (
	configKeyStyle  = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	configPathStyle = lipgloss.NewStyle().Foreground(colorTextMute).Italic(true)
)

// NewConfigCmd creates the config command
func NewConfigCmd(deps *Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Long: `Print the configuration after applying the config file and environment.
The API key is masked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			path, err := config.GetConfigPath()
			if err != nil {
				return err
			}
			printConfig(deps.Stdout, path, cfg)
			return nil
		},
	}

	cmd.AddCommand(newConfigInitCmd(deps))
	return cmd
}

// newConfigInitCmd writes a default config file
func newConfigInitCmd(deps *Dependencies) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with default values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.GetConfigPath()
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
			}
			if err := config.SaveConfig(config.DefaultConfig()); err != nil {
				return err
			}
			fmt.Fprintf(deps.Stdout, "Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	return cmd
}

func printConfig(out io.Writer, path string, cfg config.Config) {
	transcriptDir := cfg.TranscriptDir
	if transcriptDir == "" {
		transcriptDir = "(default)"
	}
	format, err := transcript.ParseFormat(cfg.TranscriptFormat)
	if err != nil {
		format = transcript.Format(cfg.TranscriptFormat + " (invalid)")
	}
	logFile := cfg.Log.File
	if logFile == "" {
		logFile = "(default)"
	}

	rows := []struct {
		key   string
		value string
	}{
		{"model", cfg.Model},
		{"backend", cfg.Backend},
		{"endpoint", cfg.Endpoint},
		{"api_key", cfg.MaskedAPIKey()},
		{"greeting", cfg.Greeting},
		{"request_timeout", cfg.RequestTimeout().String()},
		{"start_open", fmt.Sprint(cfg.StartOpen)},
		{"copy_to_clipboard", fmt.Sprint(cfg.CopyToClipboard)},
		{"transcript_dir", transcriptDir},
		{"transcript_format", string(format)},
		{"markdown.style", cfg.Markdown.Style},
		{"log.level", cfg.Log.Level},
		{"log.format", cfg.Log.Format},
		{"log.file", logFile},
	}

	fmt.Fprintln(out, configPathStyle.Render(path))
	for _, r := range rows {
		fmt.Fprintf(out, "%s %s\n", configKeyStyle.Render(fmt.Sprintf("%-18s", r.key)), r.value)
	}
}
