// Package models contains data types and constants for the chat widget.
package models

// Endpoints for the generative language API
const (
	EndpointBase = "https://generativelanguage.googleapis.com/v1beta"

	// APIKeyHeader carries the credential so it never appears in URLs or logs
	APIKeyHeader = "x-goog-api-key"
)

// Model names accepted by the endpoint
const (
	ModelFlash     = "gemini-1.5-flash-latest"
	Model25Flash   = "gemini-2.5-flash"
	Model25Pro     = "gemini-2.5-pro"
	DefaultModel   = ModelFlash
	DefaultBackend = "rest"
)

// Transcript texts
const (
	DefaultGreeting = "Hi! I'm your assistant. How can I help you today?"

	// FallbackReply replaces a reply whose text could not be found in the response
	FallbackReply = "Sorry, I couldn't understand that."

	// TransportApology is shown when the request never got an answer
	TransportApology = "Sorry, something went wrong."

	// UpstreamApologyFormat is shown when the endpoint answered with a non-success status
	UpstreamApologyFormat = "Sorry, I couldn't reach the AI service (%d)"
)

// AllModels returns the known model names
func AllModels() []string {
	return []string{ModelFlash, Model25Flash, Model25Pro}
}

// AllBackends returns the available completion backends
func AllBackends() []string {
	return []string{"rest", "sdk"}
}
