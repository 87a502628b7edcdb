// Package api provides the completion clients for the chat widget.
package api

// GJSON paths for extracting values from generateContent responses.
const (
	// PathReplyText is the first candidate's first content part
	PathReplyText = "candidates.0.content.parts.0.text"

	// Diagnostics only, logged when the reply text is missing
	PathFinishReason = "candidates.0.finishReason"
	PathBlockReason  = "promptFeedback.blockReason"
)
