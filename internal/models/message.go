package models

import "slices"

// Role tags who authored a turn. The values are sent to the endpoint as-is.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "model"
)

// String returns the wire value of the role
func (r Role) String() string {
	return string(r)
}

// Label returns the name shown next to a turn in the panel
func (r Role) Label() string {
	if r == RoleUser {
		return "You"
	}
	return "Assistant"
}

// Turn is a single message in the transcript
type Turn struct {
	Role    Role
	Content string
}

// UserTurn creates a turn authored by the user
func UserTurn(content string) Turn {
	return Turn{Role: RoleUser, Content: content}
}

// AssistantTurn creates a turn authored by the assistant
func AssistantTurn(content string) Turn {
	return Turn{Role: RoleAssistant, Content: content}
}

// Conversation is the ordered, append-only transcript.
// It always holds at least the greeting turn it was created with.
type Conversation struct {
	turns []Turn
}

// NewConversation creates a conversation seeded with one assistant greeting.
// An empty greeting falls back to DefaultGreeting.
func NewConversation(greeting string) *Conversation {
	if greeting == "" {
		greeting = DefaultGreeting
	}
	return &Conversation{turns: []Turn{AssistantTurn(greeting)}}
}

// Append adds a turn to the end of the transcript
func (c *Conversation) Append(t Turn) {
	c.turns = append(c.turns, t)
}

// Turns returns a copy of the transcript
func (c *Conversation) Turns() []Turn {
	return slices.Clone(c.turns)
}

// Len returns the number of turns
func (c *Conversation) Len() int {
	return len(c.turns)
}

// Last returns the newest turn
func (c *Conversation) Last() Turn {
	return c.turns[len(c.turns)-1]
}

// Filter returns the turns with the given role, in transcript order
func (c *Conversation) Filter(role Role) []Turn {
	out := make([]Turn, 0, len(c.turns))
	for _, t := range c.turns {
		if t.Role == role {
			out = append(out, t)
		}
	}
	return out
}

// LastOf returns the newest turn with the given role
func (c *Conversation) LastOf(role Role) (Turn, bool) {
	for i := len(c.turns) - 1; i >= 0; i-- {
		if c.turns[i].Role == role {
			return c.turns[i], true
		}
	}
	return Turn{}, false
}
