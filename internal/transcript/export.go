// Package transcript exports the in-memory conversation. Nothing is ever read back.
package transcript

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/diogo/chatwidget/internal/models"
)

// Format represents the format for exporting a transcript
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

// ParseFormat maps a user-supplied name to a Format
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "md", "markdown":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown transcript format %q (use markdown or json)", name)
	}
}

// Extension returns the file extension for the format
func (f Format) Extension() string {
	if f == FormatJSON {
		return ".json"
	}
	return ".md"
}

// Options configures an export
type Options struct {
	Title      string
	Model      string
	ExportedAt time.Time
}

// ToMarkdown renders turns as a Markdown document
func ToMarkdown(turns []models.Turn, opts Options) string {
	var sb strings.Builder

	title := opts.Title
	if title == "" {
		title = "Chat transcript"
	}
	sb.WriteString("# ")
	sb.WriteString(title)
	sb.WriteString("\n\n")

	if opts.Model != "" {
		sb.WriteString("**Model:** ")
		sb.WriteString(opts.Model)
		sb.WriteString("\n")
	}
	if !opts.ExportedAt.IsZero() {
		sb.WriteString("**Exported:** ")
		sb.WriteString(opts.ExportedAt.Format("2006-01-02 15:04:05"))
		sb.WriteString("\n")
	}
	sb.WriteString(fmt.Sprintf("**Turns:** %d", len(turns)))
	sb.WriteString("\n\n---\n\n")

	for i, turn := range turns {
		sb.WriteString("## ")
		sb.WriteString(turn.Role.Label())
		sb.WriteString("\n\n")
		sb.WriteString(turn.Content)
		sb.WriteString("\n")

		if i < len(turns)-1 {
			sb.WriteString("\n---\n\n")
		}
	}

	return sb.String()
}

type exportTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type exportTranscript struct {
	Title      string       `json:"title,omitempty"`
	Model      string       `json:"model,omitempty"`
	ExportedAt *time.Time   `json:"exported_at,omitempty"`
	Turns      []exportTurn `json:"turns"`
}

// ToJSON renders turns as indented JSON
func ToJSON(turns []models.Turn, opts Options) ([]byte, error) {
	export := exportTranscript{
		Title: opts.Title,
		Model: opts.Model,
		Turns: make([]exportTurn, len(turns)),
	}
	if !opts.ExportedAt.IsZero() {
		at := opts.ExportedAt
		export.ExportedAt = &at
	}
	for i, turn := range turns {
		export.Turns[i] = exportTurn{Role: turn.Role.String(), Content: turn.Content}
	}
	return json.MarshalIndent(export, "", "  ")
}

// Save writes the transcript to a timestamped file in dir and returns its path
func Save(dir string, turns []models.Turn, format Format, opts Options) (string, error) {
	if opts.ExportedAt.IsZero() {
		opts.ExportedAt = time.Now()
	}

	var data []byte
	switch format {
	case FormatJSON:
		b, err := ToJSON(turns, opts)
		if err != nil {
			return "", fmt.Errorf("failed to encode transcript: %w", err)
		}
		data = b
	default:
		data = []byte(ToMarkdown(turns, opts))
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create transcript directory: %w", err)
	}

	name := "chat-" + opts.ExportedAt.Format("20060102-150405") + format.Extension()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write transcript: %w", err)
	}
	return path, nil
}
