package widget

// State is the single value describing the panel and the request guard.
// Every combination is legal: closing the panel never cancels a request.
type State int

const (
	// StateClosed shows only the floating button
	StateClosed State = iota
	// StateOpen shows the panel, ready for input
	StateOpen
	// StateOpenPending shows the panel while a reply is awaited
	StateOpenPending
	// StateClosedPending is a closed panel with a reply still in flight
	StateClosedPending
)

// String returns a short name for logs and the status line
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateOpenPending:
		return "open-pending"
	case StateClosedPending:
		return "closed-pending"
	default:
		return "unknown"
	}
}

// PanelOpen reports whether the chat panel is shown
func (s State) PanelOpen() bool {
	return s == StateOpen || s == StateOpenPending
}

// Pending reports whether a request is in flight
func (s State) Pending() bool {
	return s == StateOpenPending || s == StateClosedPending
}

// toggled flips the panel and keeps the pending half
func (s State) toggled() State {
	return stateOf(!s.PanelOpen(), s.Pending())
}

// withPending sets the pending half and keeps the panel
func (s State) withPending(pending bool) State {
	return stateOf(s.PanelOpen(), pending)
}

func stateOf(open, pending bool) State {
	switch {
	case open && pending:
		return StateOpenPending
	case open:
		return StateOpen
	case pending:
		return StateClosedPending
	default:
		return StateClosed
	}
}
