package render

import "strings"

// Markdown renders markdown content for terminal display.
func Markdown(content string, opts Options) (string, error) {
	renderer, err := globalPool.get(opts)
	if err != nil {
		return "", err
	}
	defer globalPool.put(opts, renderer)

	return renderer.Render(content)
}

// Turn renders an assistant turn, falling back to the raw text when
// rendering fails. Surrounding blank lines added by glamour are trimmed.
func Turn(content string, opts Options) string {
	rendered, err := Markdown(content, opts)
	if err != nil {
		return content
	}
	return strings.Trim(rendered, "\n")
}
