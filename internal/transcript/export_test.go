package transcript

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diogo/chatwidget/internal/models"
)

func sampleTurns() []models.Turn {
	return []models.Turn{
		models.AssistantTurn("Hi! How can I help?"),
		models.UserTurn("Hello, how are you?"),
		models.AssistantTurn("I'm doing well, thank you!"),
	}
}

func TestToMarkdown(t *testing.T) {
	at := time.Date(2026, 3, 4, 10, 11, 12, 0, time.UTC)
	md := ToMarkdown(sampleTurns(), Options{Title: "Support", Model: "gemini-2.5-flash", ExportedAt: at})

	assert.True(t, strings.HasPrefix(md, "# Support\n"))
	assert.Contains(t, md, "**Model:** gemini-2.5-flash")
	assert.Contains(t, md, "**Exported:** 2026-03-04 10:11:12")
	assert.Contains(t, md, "**Turns:** 3")
	assert.Contains(t, md, "## You\n\nHello, how are you?")
	assert.Equal(t, 2, strings.Count(md, "## Assistant"))
	assert.Less(t, strings.Index(md, "Hello, how are you?"), strings.Index(md, "I'm doing well"))
}

func TestToMarkdown_DefaultTitle(t *testing.T) {
	md := ToMarkdown(sampleTurns()[:1], Options{})

	assert.True(t, strings.HasPrefix(md, "# Chat transcript"))
	assert.NotContains(t, md, "**Model:**")
	assert.NotContains(t, md, "**Exported:**")
}

func TestToJSON(t *testing.T) {
	data, err := ToJSON(sampleTurns(), Options{Model: "m"})
	require.NoError(t, err)

	var got exportTranscript
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got.Turns, 3)
	assert.Equal(t, "model", got.Turns[0].Role)
	assert.Equal(t, "user", got.Turns[1].Role)
	assert.Equal(t, "m", got.Model)
	assert.Nil(t, got.ExportedAt)
}

func TestSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	path, err := Save(dir, sampleTurns(), FormatJSON, Options{ExportedAt: at})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "chat-20260102-030405.json"), path)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestSave_Markdown(t *testing.T) {
	dir := t.TempDir()

	path, err := Save(dir, sampleTurns(), FormatMarkdown, Options{})
	require.NoError(t, err)
	assert.Equal(t, ".md", filepath.Ext(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "**Exported:**")
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatMarkdown, "md": FormatMarkdown, "Markdown": FormatMarkdown, "json": FormatJSON} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseFormat("pdf")
	assert.Error(t, err)
}
