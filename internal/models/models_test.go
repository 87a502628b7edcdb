package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConversation_SeedsGreeting(t *testing.T) {
	conv := NewConversation("Hello there")

	require.Equal(t, 1, conv.Len())
	assert.Equal(t, AssistantTurn("Hello there"), conv.Last())
}

func TestNewConversation_DefaultGreeting(t *testing.T) {
	conv := NewConversation("")

	assert.Equal(t, DefaultGreeting, conv.Last().Content)
	assert.Equal(t, RoleAssistant, conv.Last().Role)
}

func TestConversation_TurnsReturnsCopy(t *testing.T) {
	conv := NewConversation("hi")
	turns := conv.Turns()
	turns[0].Content = "changed"

	assert.Equal(t, "hi", conv.Last().Content)
}

func TestConversation_FilterKeepsOrder(t *testing.T) {
	conv := NewConversation("hi")
	conv.Append(UserTurn("one"))
	conv.Append(AssistantTurn("reply one"))
	conv.Append(UserTurn("two"))
	conv.Append(AssistantTurn("reply two"))
	conv.Append(AssistantTurn("extra"))
	conv.Append(UserTurn("three"))

	got := conv.Filter(RoleUser)

	assert.Equal(t, []Turn{UserTurn("one"), UserTurn("two"), UserTurn("three")}, got)
}

func TestConversation_LastOf(t *testing.T) {
	conv := NewConversation("hi")
	conv.Append(UserTurn("question"))

	got, ok := conv.LastOf(RoleAssistant)
	require.True(t, ok)
	assert.Equal(t, "hi", got.Content)

	got, ok = conv.LastOf(RoleUser)
	require.True(t, ok)
	assert.Equal(t, "question", got.Content)
}

func TestRoleLabel(t *testing.T) {
	assert.Equal(t, "You", RoleUser.Label())
	assert.Equal(t, "Assistant", RoleAssistant.Label())
}

func TestNewGenerateRequest_WireShape(t *testing.T) {
	req := NewGenerateRequest([]Turn{UserTurn("a"), UserTurn("b")})

	data, err := json.Marshal(req)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"contents":[{"role":"user","parts":[{"text":"a"}]},{"role":"user","parts":[{"text":"b"}]}]}`,
		string(data))
}

func TestNewGenerateRequest_PassesRoleThrough(t *testing.T) {
	req := NewGenerateRequest([]Turn{AssistantTurn("x")})

	require.Len(t, req.Contents, 1)
	assert.Equal(t, "model", req.Contents[0].Role)
}
