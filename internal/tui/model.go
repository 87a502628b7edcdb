package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/chatwidget/internal/logging"
	"github.com/diogo/chatwidget/internal/models"
	"github.com/diogo/chatwidget/internal/render"
	"github.com/diogo/chatwidget/internal/transcript"
	"github.com/diogo/chatwidget/internal/widget"
)

// clipboardWrite is replaced in tests
var clipboardWrite = clipboard.WriteAll

// Message types for the TUI
type (
	// snapshotMsg is delivered after every controller change
	snapshotMsg widget.Snapshot

	replyMsg struct {
		ex    *widget.Exchange
		reply string
		err   error
	}

	noticeMsg struct {
		text string
		err  error
	}
)

// Options configures the widget view
type Options struct {
	ModelName     string
	TranscriptDir string
	// TranscriptFormat defaults to markdown
	TranscriptFormat transcript.Format
	Render           render.Options
	Logger           *slog.Logger
}

// Model represents the TUI state. Everything shown is derived from the
// controller snapshot.
type Model struct {
	ctx    context.Context
	ctrl   *widget.Controller
	opts   Options
	logger *slog.Logger

	events chan widget.Snapshot
	feed   *snapshotFeed

	// UI components
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	// State
	snap   widget.Snapshot
	ready  bool
	notice string
	err    error

	// rendered assistant turns by transcript index
	rendered      map[int]string
	renderedWidth int

	// Dimensions
	width  int
	height int
}

// NewWidgetModel creates the view for ctrl and subscribes to its changes.
// Call Close when the program ends.
func NewWidgetModel(ctx context.Context, ctrl *widget.Controller, opts Options) Model {
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.Render.Width == 0 {
		opts.Render = render.DefaultOptions()
	}

	ti := textinput.New()
	ti.Placeholder = "Type your message..."
	ti.CharLimit = 4000
	ti.Prompt = ""
	ti.TextStyle = lipgloss.NewStyle().Foreground(colorText)
	ti.PlaceholderStyle = lipgloss.NewStyle().Foreground(colorTextMute)
	ti.Focus()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = loadingStyle

	feed := newSnapshotFeed()
	feed.unsubscribe = ctrl.Subscribe(feed.push)

	return Model{
		ctx:      ctx,
		ctrl:     ctrl,
		opts:     opts,
		logger:   opts.Logger,
		events:   feed.events,
		feed:     feed,
		input:    ti,
		spinner:  s,
		snap:     ctrl.Snapshot(),
		rendered: make(map[int]string),
	}
}

// Close detaches the model from the controller and ends the snapshot feed.
// It is safe to call more than once.
func (m Model) Close() {
	if m.feed != nil {
		m.feed.close()
	}
}

// snapshotFeed forwards controller notifications to the update loop.
// Sends never block, and nothing is sent once the feed is closed.
type snapshotFeed struct {
	mu          sync.Mutex
	closed      bool
	events      chan widget.Snapshot
	unsubscribe func()
}

func newSnapshotFeed() *snapshotFeed {
	return &snapshotFeed{events: make(chan widget.Snapshot, 32)}
}

func (f *snapshotFeed) push(snap widget.Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	select {
	case f.events <- snap:
	default:
		// a queued snapshot is already pending; the view re-reads the controller
	}
}

func (f *snapshotFeed) close() {
	if f.unsubscribe != nil {
		f.unsubscribe()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	close(f.events)
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, waitForSnapshot(m.events)}
	if m.snap.Pending() {
		cmds = append(cmds, m.spinner.Tick)
	}
	return tea.Batch(cmds...)
}

// waitForSnapshot blocks until the controller reports a change.
// It yields no message once the feed is closed.
func waitForSnapshot(events <-chan widget.Snapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-events
		if !ok {
			return nil
		}
		return snapshotMsg(snap)
	}
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.updateViewport()
		m.viewport.GotoBottom()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case snapshotMsg:
		// the controller is the source of truth; dropped notifications are covered by re-reading it
		m.snap = m.ctrl.Snapshot()
		if m.snap.Pending() {
			m.input.Blur()
		} else {
			cmds = append(cmds, m.input.Focus())
		}
		m.updateViewport()
		m.viewport.GotoBottom()
		cmds = append(cmds, waitForSnapshot(m.events))
		return m, tea.Batch(cmds...)

	case replyMsg:
		if _, err := m.ctrl.Resolve(msg.ex, msg.reply, msg.err); err != nil {
			m.logger.Error("resolve_failed", "error", err.Error())
		}
		return m, nil

	case noticeMsg:
		m.notice = msg.text
		m.err = msg.err
		return m, nil

	case spinner.TickMsg:
		if m.snap.Pending() {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}

	if m.snap.PanelOpen() {
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// handleKey routes key presses according to the panel state
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return m, tea.Quit
	}

	if !m.snap.PanelOpen() {
		switch key {
		case "ctrl+o", "o", "enter", " ":
			m.ctrl.TogglePanel()
		case "q":
			return m, tea.Quit
		}
		return m, nil
	}

	switch key {
	case "ctrl+o", "esc":
		m.ctrl.TogglePanel()
		return m, nil

	case "enter":
		return m, m.submit()

	case "ctrl+y":
		return m, m.copyLastReply()

	case "ctrl+s":
		return m, m.saveTranscript()

	case "up", "down", "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	// input is locked while a reply is awaited
	if m.snap.Pending() {
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.ctrl.SetDraft(m.input.Value())
	m.notice = ""
	m.err = nil
	return m, cmd
}

// submit starts an exchange for the current input. Rejected input is left untouched.
func (m *Model) submit() tea.Cmd {
	ex, err := m.ctrl.Begin(m.input.Value())
	if err != nil {
		return nil
	}
	m.input.Reset()
	m.input.Blur()
	m.notice = ""
	m.err = nil
	return tea.Batch(m.await(ex), m.spinner.Tick)
}

// await runs the completion off the update loop
func (m Model) await(ex *widget.Exchange) tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		reply, err := ctrl.Await(ctx, ex)
		return replyMsg{ex: ex, reply: reply, err: err}
	}
}

func (m Model) copyLastReply() tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		turn, ok := ctrl.LastReply()
		if !ok {
			return noticeMsg{}
		}
		if err := clipboardWrite(turn.Content); err != nil {
			return noticeMsg{err: fmt.Errorf("failed to copy to clipboard: %w", err)}
		}
		return noticeMsg{text: "Copied last reply to clipboard"}
	}
}

func (m Model) saveTranscript() tea.Cmd {
	ctrl, opts := m.ctrl, m.opts
	return func() tea.Msg {
		if opts.TranscriptDir == "" {
			return noticeMsg{err: fmt.Errorf("no transcript directory configured")}
		}
		path, err := transcript.Save(opts.TranscriptDir, ctrl.Turns(), opts.TranscriptFormat, transcript.Options{
			Model: opts.ModelName,
		})
		if err != nil {
			return noticeMsg{err: err}
		}
		return noticeMsg{text: "Saved transcript to " + path}
	}
}

// resize lays out the open panel for the current window
func (m *Model) resize() {
	contentWidth := m.contentWidth()

	headerHeight := 2  // title and rule
	inputHeight := 3   // input panel with border
	loadingHeight := 1 // "Thinking..." line
	statusHeight := 2  // notice and status bar
	frame := 2         // panel border

	vpHeight := m.height - headerHeight - inputHeight - loadingHeight - statusHeight - frame
	if vpHeight < 3 {
		vpHeight = 3
	}

	if !m.ready {
		m.viewport = viewport.New(contentWidth, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = contentWidth
		m.viewport.Height = vpHeight
	}
	m.input.Width = contentWidth - 8
}

func (m Model) contentWidth() int {
	w := m.width - 4
	if w < 20 {
		w = 20
	}
	return w
}

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return loadingStyle.Render("  Initializing...")
	}
	if !m.snap.PanelOpen() {
		return m.renderClosed()
	}
	return m.renderPanel()
}

// renderClosed shows only the floating launcher in the bottom-right corner
func (m Model) renderClosed() string {
	label := "AI"
	style := launcherStyle
	if m.snap.Pending() {
		label = m.spinner.View() + " AI"
		style = launcherBusyStyle
	}
	button := style.Render(label)

	hint := hintStyle.Render("ctrl+o open chat • ctrl+c quit")
	area := lipgloss.Place(m.width, max(m.height-1, 1), lipgloss.Right, lipgloss.Bottom, button)
	return lipgloss.JoinVertical(lipgloss.Left, area, hint)
}

// renderPanel shows header, transcript, thinking indicator and input
func (m Model) renderPanel() string {
	contentWidth := m.contentWidth()

	title := titleStyle.Render("Assistant")
	closeHint := hintStyle.Render("esc close")
	gap := max(contentWidth-lipgloss.Width(title)-lipgloss.Width(closeHint), 1)
	header := title + strings.Repeat(" ", gap) + closeHint
	rule := lipgloss.NewStyle().Foreground(colorBorder).Render(strings.Repeat("─", contentWidth))

	thinking := ""
	if m.snap.Pending() {
		thinking = m.spinner.View() + loadingStyle.Render(" Thinking...")
	}

	var inputContent string
	if m.snap.Pending() {
		inputContent = inputLabelStyle.Render("You") + hintStyle.Render("waiting for reply...")
	} else {
		inputContent = inputLabelStyle.Render("You") + m.input.View()
	}
	inputPanel := inputPanelStyle.Width(contentWidth).Render(inputContent)

	notice := ""
	switch {
	case m.err != nil:
		notice = errorStyle.Render("⚠ " + m.err.Error())
	case m.notice != "":
		notice = noticeStyle.Render(m.notice)
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		header,
		rule,
		m.viewport.View(),
		thinking,
		inputPanel,
		notice,
		m.renderStatusBar(contentWidth),
	)
	return panelStyle.Render(body)
}

// renderStatusBar renders the bottom status bar with shortcuts
func (m Model) renderStatusBar(width int) string {
	canSend := !m.snap.Pending() && strings.TrimSpace(m.input.Value()) != ""

	shortcuts := []struct {
		key     string
		desc    string
		enabled bool
	}{
		{"Enter", "Send", canSend},
		{"Ctrl+Y", "Copy", true},
		{"Ctrl+S", "Save", true},
		{"Esc", "Close", true},
	}

	var items []string
	for _, s := range shortcuts {
		keyStyle := statusKeyStyle
		if !s.enabled {
			keyStyle = statusDescStyle
		}
		items = append(items, keyStyle.Render(s.key)+statusDescStyle.Render(" "+s.desc))
	}

	return statusBarStyle.Width(width).Align(lipgloss.Center).Render(strings.Join(items, "  │  "))
}

// updateViewport refreshes the viewport content with styled turns
func (m *Model) updateViewport() {
	if !m.ready {
		return
	}

	contentWidth := m.viewport.Width
	bubbleWidth := max(contentWidth*3/4, 10)
	if bubbleWidth != m.renderedWidth {
		m.rendered = make(map[int]string)
		m.renderedWidth = bubbleWidth
	}

	var content strings.Builder
	for i, turn := range m.snap.Turns {
		if i > 0 {
			content.WriteString("\n")
		}

		if turn.Role == models.RoleUser {
			label := userLabelStyle.Render(turn.Role.Label())
			bubble := userBubbleStyle.Width(bubbleWidth).Render(turn.Content)
			block := lipgloss.JoinVertical(lipgloss.Right, label, bubble)
			content.WriteString(lipgloss.PlaceHorizontal(contentWidth, lipgloss.Right, block))
		} else {
			rendered, ok := m.rendered[i]
			if !ok {
				rendered = render.Turn(turn.Content, m.opts.Render.WithWidth(bubbleWidth-4))
				m.rendered[i] = rendered
			}
			label := assistantLabelStyle.Render(turn.Role.Label())
			bubble := assistantBubbleStyle.Width(bubbleWidth).Render(rendered)
			content.WriteString(lipgloss.JoinVertical(lipgloss.Left, label, bubble))
		}
		content.WriteString("\n")
	}

	m.viewport.SetContent(content.String())
}

// RunWidget starts the widget TUI for ctrl
func RunWidget(ctx context.Context, ctrl *widget.Controller, opts Options) error {
	m := NewWidgetModel(ctx, ctrl, opts)
	defer m.Close()

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	_, err := p.Run()
	return err
}
