// Package widget implements the conversation controller behind the chat panel.
//
// The controller owns the transcript and the panel/request state. Views read
// immutable snapshots and are told about changes through Subscribe.
package widget

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/diogo/chatwidget/internal/api"
	apierrors "github.com/diogo/chatwidget/internal/errors"
	"github.com/diogo/chatwidget/internal/models"
)

// ErrNoPendingExchange is returned by Resolve for an exchange that is not in flight
var ErrNoPendingExchange = errors.New("no matching exchange in flight")

// Snapshot is a read-only copy of the controller for rendering
type Snapshot struct {
	State State
	Draft string
	Turns []models.Turn
}

// PanelOpen reports whether the panel is shown
func (s Snapshot) PanelOpen() bool { return s.State.PanelOpen() }

// Pending reports whether a reply is awaited
func (s Snapshot) Pending() bool { return s.State.Pending() }

// Exchange is one accepted submission waiting for its reply
type Exchange struct {
	seq uint64
	// Turns is the request payload: the user turns of the transcript, in order
	Turns []models.Turn
}

// Controller owns the conversation and mediates between the panel and the completer
type Controller struct {
	client api.Completer
	logger *slog.Logger

	mu        sync.Mutex
	conv      *models.Conversation
	state     State
	draft     string
	seq       uint64
	listeners map[int]func(Snapshot)
	nextID    int
}

// Option configures a Controller
type Option func(*Controller)

// WithGreeting sets the seeded assistant greeting
func WithGreeting(greeting string) Option {
	return func(c *Controller) {
		c.conv = models.NewConversation(greeting)
	}
}

// WithLogger sets the diagnostics logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a controller with a closed panel and a transcript holding only the greeting
func New(client api.Completer, opts ...Option) *Controller {
	c := &Controller{
		client:    client,
		logger:    slog.Default(),
		conv:      models.NewConversation(models.DefaultGreeting),
		state:     StateClosed,
		listeners: make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// PanelOpen reports whether the panel is shown
func (c *Controller) PanelOpen() bool {
	return c.State().PanelOpen()
}

// Pending reports whether a reply is awaited
func (c *Controller) Pending() bool {
	return c.State().Pending()
}

// Draft returns the text currently typed in the input
func (c *Controller) Draft() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// Turns returns a copy of the transcript
func (c *Controller) Turns() []models.Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conv.Turns()
}

// Len returns the number of turns in the transcript
func (c *Controller) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conv.Len()
}

// Snapshot returns a copy of the state for rendering
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{State: c.state, Draft: c.draft, Turns: c.conv.Turns()}
}

// Subscribe registers fn to run after every state change, outside the lock.
// The returned function removes the listener.
func (c *Controller) Subscribe(fn func(Snapshot)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// notify must be called without c.mu held
func (c *Controller) notify(snap Snapshot) {
	c.mu.Lock()
	fns := make([]func(Snapshot), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

// TogglePanel opens or closes the panel. It always succeeds and never touches
// the transcript or an in-flight request.
func (c *Controller) TogglePanel() State {
	c.mu.Lock()
	c.state = c.state.toggled()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.logger.Debug("panel_toggled", "state", snap.State.String())
	c.notify(snap)
	return snap.State
}

// SetDraft replaces the input text. The input is locked while a reply is awaited.
func (c *Controller) SetDraft(text string) bool {
	c.mu.Lock()
	if c.state.Pending() {
		c.mu.Unlock()
		return false
	}
	c.draft = text
	c.mu.Unlock()
	return true
}

// Begin accepts a submission: it appends the user turn, marks the request
// pending, clears the draft and returns the request payload. Blank text and
// submissions while pending are rejected without any change.
func (c *Controller) Begin(text string) (*Exchange, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apierrors.ErrEmptyInput
	}

	c.mu.Lock()
	if c.state.Pending() {
		c.mu.Unlock()
		return nil, apierrors.ErrAlreadyPending
	}

	c.conv.Append(models.UserTurn(text))
	c.state = c.state.withPending(true)
	c.draft = ""
	c.seq++
	ex := &Exchange{seq: c.seq, Turns: c.conv.Filter(models.RoleUser)}
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.logger.Debug("submission_accepted", "user_turns", len(ex.Turns), "transcript_len", len(snap.Turns))
	c.notify(snap)
	return ex, nil
}

// Await runs the completion for ex. A panicking completer is reported as a
// transport failure so the exchange can still be resolved.
func (c *Controller) Await(ctx context.Context, ex *Exchange) (reply string, err error) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("completion_panic", "panic", fmt.Sprint(r))
			reply, err = "", apierrors.NewNetworkError("generate content", "", fmt.Errorf("completer panicked: %v", r))
		}
	}()
	return c.client.Complete(ctx, ex.Turns)
}

// Resolve pairs the pending user turn with exactly one assistant turn and
// clears the pending state. Failures become an apology turn.
func (c *Controller) Resolve(ex *Exchange, reply string, err error) (models.Turn, error) {
	var turn models.Turn
	switch {
	case err != nil:
		turn = models.AssistantTurn(apierrors.UserMessage(err))
	case reply == "":
		turn = models.AssistantTurn(models.FallbackReply)
	default:
		turn = models.AssistantTurn(reply)
	}

	c.mu.Lock()
	if ex == nil || !c.state.Pending() || ex.seq != c.seq {
		c.mu.Unlock()
		return models.Turn{}, ErrNoPendingExchange
	}
	c.conv.Append(turn)
	c.state = c.state.withPending(false)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	if err != nil {
		c.logger.Info("completion_failed",
			"status", apierrors.GetHTTPStatus(err),
			"network", apierrors.IsNetworkError(err),
			"error", err.Error(),
		)
	}
	if !snap.PanelOpen() {
		c.logger.Debug("reply_applied_while_closed")
	}

	c.notify(snap)
	return turn, nil
}

// Submit is the synchronous form of Begin, Await and Resolve. It reports
// whether the text was accepted; rejected text leaves everything unchanged.
func (c *Controller) Submit(ctx context.Context, text string) bool {
	ex, err := c.Begin(text)
	if err != nil {
		if apierrors.IsGuardError(err) {
			c.logger.Debug("submit_ignored", "reason", err.Error())
		} else {
			c.logger.Error("submit_rejected", "error", err.Error())
		}
		return false
	}

	reply, err := c.Await(ctx, ex)
	if _, rerr := c.Resolve(ex, reply, err); rerr != nil {
		c.logger.Error("resolve_failed", "error", rerr.Error())
	}
	return true
}

// SubmitDraft submits the current draft
func (c *Controller) SubmitDraft(ctx context.Context) bool {
	return c.Submit(ctx, c.Draft())
}

// LastReply returns the newest assistant turn
func (c *Controller) LastReply() (models.Turn, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conv.LastOf(models.RoleAssistant)
}
