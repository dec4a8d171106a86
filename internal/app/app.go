package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"plainmail/internal/cache"
	"plainmail/internal/config"
	"plainmail/internal/keys"
	"plainmail/internal/mail"
	"plainmail/internal/ui"
	"plainmail/internal/ui/compose"
	configview "plainmail/internal/ui/config"
	helpview "plainmail/internal/ui/help"
	"plainmail/internal/ui/inbox"
	"plainmail/internal/ui/mailview"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewInbox ViewState = iota
	ViewMail
	ViewCompose
	ViewConfig
	ViewHelp
)

// Model is the root Bubble Tea model that manages view routing, the
// mailbox cache, and the IMAP session.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout

	cfg        *config.AppConfig
	configPath string
	keys       *keys.KeyMap

	mailbox *cache.Mailbox
	session mailSession
	dial    dialFunc

	inbox       inbox.Model
	mailView    mailview.Model
	composeView compose.Model
	configView  configview.Model
	helpView    helpview.Model

	spinner     spinner.Model
	busy        string // label of the in-flight operation, empty when idle
	statusMsg   string
	statusToken int

	// fetchGen ties body loads to the mail view visit that requested
	// them; leaving the view bumps it so stale results are dropped.
	fetchGen    int
	fetchCancel context.CancelFunc

	ready bool
}

// New creates the root application model. A configuration that is not
// yet complete boots straight into the settings screen.
func New(cfg *config.AppConfig, configPath string) Model {
	km := keys.DefaultKeyMap()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	view := ViewInbox
	if !cfg.Complete() {
		view = ViewConfig
	}

	return Model{
		currentView: view,
		cfg:         cfg,
		configPath:  configPath,
		keys:        km,
		mailbox:     cache.New(),
		dial:        dialSession,
		inbox:       inbox.New(km, 80, 24),
		mailView:    mailview.New(km, 80, 24),
		composeView: compose.New(km, cfg.EditorCommand(), 80, 24),
		configView:  configview.New(cfg, configPath, km, 80, 24),
		helpView:    helpview.New(km, 80, 24),
		spinner:     sp,
	}
}

// Init connects to the mail server, or opens settings on first run.
func (m Model) Init() tea.Cmd {
	if m.currentView == ViewConfig {
		return m.configView.Init()
	}
	return m.startConnect()
}

// startConnect kicks off a connection attempt with the busy spinner.
func (m *Model) startConnect() tea.Cmd {
	m.busy = "connecting"
	return tea.Batch(m.connectCmd(), m.spinner.Tick)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		contentWidth := m.layout.ContentWidth()
		contentHeight := m.layout.ContentHeight()
		m.inbox.SetSize(contentWidth, contentHeight)
		m.mailView.SetSize(contentWidth, contentHeight)
		m.composeView.SetSize(contentWidth, contentHeight)
		m.configView.SetSize(contentWidth, contentHeight)
		m.helpView.SetSize(contentWidth, contentHeight)
		// Forward to the active view so huh forms can lay out.
		return m.updateActiveView(msg)

	case sessionReadyMsg:
		m.session = msg.session
		m.busy = "refreshing"
		return m, tea.Batch(m.refreshCmd(), m.spinner.Tick)

	case summariesLoadedMsg:
		m.busy = ""
		m.mailbox.Refresh(msg.summaries)
		return m, m.inbox.SetMessages(m.mailbox.Summaries())

	case bodyLoadedMsg:
		if msg.gen != m.fetchGen {
			// A stale load from a mail view already left.
			return m, nil
		}
		m.busy = ""
		m.clearFetch()
		if sum, ok := m.mailbox.Summary(msg.uid); ok {
			m.mailView.SetMessage(sum, msg.content)
		}
		return m, nil

	case sentMsg:
		m.busy = ""
		m.composeView.SetSending(false)
		m.currentView = ViewInbox
		return m, m.setStatus("Message sent")

	case errMsg:
		return m.handleError(msg)

	case clearStatusMsg:
		if msg.token == m.statusToken {
			m.statusMsg = ""
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		if m.busy != "" {
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		// Settings view runs its own spinner while saving.
		if m.currentView == ViewConfig {
			return m.updateActiveView(msg)
		}
		return m, nil

	case inbox.OpenMessageMsg:
		return m.openMessage(msg.UID)

	case mailview.BackMsg:
		m.leaveMailView()
		m.currentView = ViewInbox
		return m, nil

	case mailview.ReplyMsg:
		draft := mail.DeriveReply(m.mailView.Summary(), m.mailView.Content())
		cmd := m.composeView.SetDraft(draft)
		m.composeView.SetSize(m.layout.ContentWidth(), m.layout.ContentHeight())
		m.previousView = m.currentView
		m.currentView = ViewCompose
		return m, cmd

	case compose.SendRequestMsg:
		m.composeView.SetSending(true)
		m.busy = "sending"
		return m, tea.Batch(m.sendCmd(msg.Draft), m.spinner.Tick)

	case compose.CancelMsg:
		m.currentView = ViewInbox
		return m, nil

	case configview.DoneMsg:
		return m.configDone(msg)

	case tea.KeyMsg:
		if model, cmd, handled := m.handleGlobalKey(msg); handled {
			return model, cmd
		}
	}

	return m.updateActiveView(msg)
}

// handleGlobalKey processes keys that switch views or act app-wide.
// Views with focused text input (compose, settings) only give up
// ctrl+c.
func (m Model) handleGlobalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	if msg.String() == "ctrl+c" {
		m.closeSession()
		return m, tea.Quit, true
	}

	typing := m.currentView == ViewCompose || m.currentView == ViewConfig
	if typing {
		return m, nil, false
	}

	switch msg.String() {
	case "q":
		if m.currentView == ViewInbox {
			m.closeSession()
			return m, tea.Quit, true
		}

	case "?":
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return m, nil, true
		}
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return m, nil, true

	case "r":
		if m.currentView == ViewInbox {
			if m.session == nil {
				return m, m.startConnect(), true
			}
			m.busy = "refreshing"
			return m, tea.Batch(m.refreshCmd(), m.spinner.Tick), true
		}

	case "c":
		if m.currentView == ViewInbox || m.currentView == ViewMail {
			cmd := m.composeView.Reset()
			m.composeView.SetSize(m.layout.ContentWidth(), m.layout.ContentHeight())
			m.previousView = m.currentView
			m.currentView = ViewCompose
			return m, cmd, true
		}

	case "g":
		if m.currentView == ViewInbox {
			m.configView = configview.New(m.cfg, m.configPath, m.keys, m.layout.ContentWidth(), m.layout.ContentHeight())
			m.previousView = m.currentView
			m.currentView = ViewConfig
			return m, m.configView.Init(), true
		}
	}

	return m, nil, false
}

// openMessage flips the message to read (locally and on the server)
// and switches to the mail view while the body loads.
func (m Model) openMessage(uid uint32) (tea.Model, tea.Cmd) {
	sum, ok := m.mailbox.Summary(uid)
	if !ok {
		return m, nil
	}

	// No session while reconnecting (settings just saved) or after a
	// failed connect. Stay put instead of issuing commands nowhere.
	if m.session == nil {
		return m, m.setStatus("Offline; press r to reconnect")
	}

	var cmds []tea.Cmd
	if m.mailbox.MarkRead(uid) {
		sum.Seen = true
		cmds = append(cmds,
			m.markSeenCmd(uid),
			m.inbox.SetMessages(m.mailbox.Summaries()),
		)
	}

	m.leaveMailView()
	m.fetchGen++
	ctx, cancel := context.WithTimeout(context.Background(), networkTimeout)
	m.fetchCancel = cancel

	m.previousView = m.currentView
	m.currentView = ViewMail
	m.mailView.SetLoading(sum)
	m.busy = "loading"

	cmds = append(cmds, m.loadBodyCmd(ctx, m.fetchGen, uid), m.spinner.Tick)
	return m, tea.Batch(cmds...)
}

// leaveMailView abandons any in-flight body fetch. The bumped
// generation drops a result that still arrives; the cancelled context
// keeps the cache untouched.
func (m *Model) leaveMailView() {
	if m.fetchCancel != nil {
		m.fetchCancel()
		m.fetchCancel = nil
	}
	m.fetchGen++
	if m.busy == "loading" {
		m.busy = ""
	}
}

// clearFetch releases the fetch context after a completed load.
func (m *Model) clearFetch() {
	if m.fetchCancel != nil {
		m.fetchCancel()
		m.fetchCancel = nil
	}
}

// configDone handles leaving the settings screen.
func (m Model) configDone(msg configview.DoneMsg) (tea.Model, tea.Cmd) {
	m.currentView = ViewInbox
	if !msg.Saved {
		if !m.cfg.Complete() {
			return m, m.setStatus("Not configured; press g to open settings")
		}
		return m, nil
	}

	m.cfg = msg.Cfg
	m.composeView = compose.New(m.keys, m.cfg.EditorCommand(), m.layout.ContentWidth(), m.layout.ContentHeight())
	m.closeSession()
	return m, m.startConnect()
}

// handleError routes a failed operation to the status line and backs
// out of any view that depended on it.
func (m Model) handleError(msg errMsg) (tea.Model, tea.Cmd) {
	m.busy = ""
	m.composeView.SetSending(false)

	// A cancelled operation is the user navigating away, not a fault.
	if errors.Is(msg.err, context.Canceled) {
		return m, nil
	}

	if msg.op == "load message" && m.currentView == ViewMail {
		m.leaveMailView()
		m.currentView = ViewInbox
	}

	return m, m.setStatus(statusFor(msg))
}

// statusFor renders an error as a short actionable status line.
func statusFor(msg errMsg) string {
	switch {
	case mail.IsAuthError(msg.err):
		return "Authentication failed; check your settings (g)"
	case mail.IsTransportError(msg.err):
		return "Server unreachable; press r to retry"
	case mail.IsSendError(msg.err):
		return fmt.Sprintf("Send rejected: %v", msg.err)
	default:
		return fmt.Sprintf("%s failed: %v", msg.op, msg.err)
	}
}

// setStatus shows a transient status message.
func (m *Model) setStatus(s string) tea.Cmd {
	m.statusMsg = s
	m.statusToken++
	return expireStatusCmd(m.statusToken)
}

// closeSession logs out the IMAP session, if any.
func (m *Model) closeSession() {
	if m.session != nil {
		m.session.Close()
		m.session = nil
	}
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewInbox:
		m.inbox, cmd = m.inbox.Update(msg)
	case ViewMail:
		m.mailView, cmd = m.mailView.Update(msg)
	case ViewCompose:
		m.composeView, cmd = m.composeView.Update(msg)
	case ViewConfig:
		m.configView, cmd = m.configView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	headerTitle := "plainmail"
	if unread := m.mailbox.UnreadCount(); unread > 0 {
		headerTitle = fmt.Sprintf("plainmail [%d unread]", unread)
	}
	header := m.layout.RenderHeader(headerTitle, m.connectionStatus())
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.statusLine())

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewInbox:
		return m.inbox.View()
	case ViewMail:
		return m.mailView.View()
	case ViewCompose:
		return m.composeView.View()
	case ViewConfig:
		return m.configView.View()
	case ViewHelp:
		return m.helpView.View()
	default:
		return ""
	}
}

// connectionStatus returns the short header-side state string.
func (m Model) connectionStatus() string {
	if m.busy != "" {
		return m.spinner.View() + " " + m.busy
	}
	if m.session == nil {
		return "offline"
	}
	return "connected"
}

// statusLine returns the status bar content: a transient message when
// one is active, key hints otherwise.
func (m Model) statusLine() string {
	if m.statusMsg != "" {
		return m.statusMsg
	}
	return m.keyHints()
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewMail:
		return "esc back | r reply | c compose | j/k scroll | ? help"
	case ViewCompose:
		return "ctrl+s send | ctrl+e editor | tab next field | esc cancel"
	case ViewConfig:
		return "enter next | shift+tab back | esc cancel"
	case ViewHelp:
		return "? close help"
	default:
		return "q quit | enter open | r refresh | c compose | g settings | ? help"
	}
}
