package widget

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestState_Derived(t *testing.T) {
	tests := []struct {
		state   State
		open    bool
		pending bool
		name    string
	}{
		{StateClosed, false, false, "closed"},
		{StateOpen, true, false, "open"},
		{StateOpenPending, true, true, "open-pending"},
		{StateClosedPending, false, true, "closed-pending"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.open, tt.state.PanelOpen(), tt.name)
		assert.Equal(t, tt.pending, tt.state.Pending(), tt.name)
		assert.Equal(t, tt.name, tt.state.String())
		assert.Equal(t, tt.state, stateOf(tt.open, tt.pending))
	}
	assert.Equal(t, "unknown", State(42).String())
}

func TestState_ToggledTwiceIsIdentity(t *testing.T) {
	for _, s := range []State{StateClosed, StateOpen, StateOpenPending, StateClosedPending} {
		assert.Equal(t, s, s.toggled().toggled())
		assert.Equal(t, s.Pending(), s.toggled().Pending())
		assert.NotEqual(t, s.PanelOpen(), s.toggled().PanelOpen())
	}
}

func TestState_WithPending(t *testing.T) {
	assert.Equal(t, StateOpenPending, StateOpen.withPending(true))
	assert.Equal(t, StateClosedPending, StateClosed.withPending(true))
	assert.Equal(t, StateOpen, StateOpenPending.withPending(false))
	assert.Equal(t, StateClosed, StateClosedPending.withPending(false))
}
