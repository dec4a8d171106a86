package mailview

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"plainmail/internal/keys"
	"plainmail/internal/mail"
	"plainmail/internal/theme"
)

// BackMsg signals the parent to navigate back to the inbox.
type BackMsg struct{}

// ReplyMsg signals the parent to open a reply draft for the shown
// message.
type ReplyMsg struct{}

// Model is the message reading view component.
type Model struct {
	summary  mail.MessageSummary
	content  mail.Content
	hasBody  bool
	viewport viewport.Model
	keys     *keys.KeyMap
	width    int
	height   int
	loading  bool
}

// New creates a new mail view model.
func New(k *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     k,
		width:    width,
		height:   height,
	}
}

// Init returns the initial command for the mail view.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the mail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg {
				return BackMsg{}
			}

		case key.Matches(msg, m.keys.Reply):
			if m.hasBody {
				return m, func() tea.Msg {
					return ReplyMsg{}
				}
			}
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the mail view.
func (m Model) View() string {
	if m.loading {
		loadingStyle := lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray)
		return loadingStyle.Render("Loading message...")
	}

	if !m.hasBody {
		emptyStyle := lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray)
		return emptyStyle.Render("No message selected")
	}

	return m.viewport.View()
}

// renderContent builds the header block plus body for the viewport.
func (m Model) renderContent() string {
	var sections []string

	field := func(name, value string) {
		if value == "" {
			return
		}
		sections = append(sections, fmt.Sprintf(
			"%s %s",
			theme.HeaderFieldStyle.Render(name),
			value,
		))
	}

	from := m.content.From
	if from == "" {
		from = m.summary.From
	}
	subject := m.content.Subject
	if subject == "" {
		subject = m.summary.Subject
	}
	date := m.content.Date
	if date.IsZero() {
		date = m.summary.Date
	}

	field("From:   ", from)
	field("To:     ", m.content.To)
	if !date.IsZero() {
		field("Date:   ", date.Format("Mon, 02 Jan 2006 15:04"))
	}
	field("Subject:", subject)

	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", min(m.width-4, 80)))
	sections = append(sections, "")
	sections = append(sections, separator)
	sections = append(sections, "")

	body := strings.ReplaceAll(m.content.Text, "\r\n", "\n")
	if strings.TrimSpace(body) == "" {
		body = lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true).
			Render("(empty message)")
	}
	sections = append(sections, body)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetMessage updates the message being displayed and re-renders the
// content.
func (m *Model) SetMessage(sum mail.MessageSummary, c mail.Content) {
	m.summary = sum
	m.content = c
	m.hasBody = true
	m.loading = false
	m.viewport.SetContent(m.renderContent())
	m.viewport.GotoTop()
}

// SetLoading sets the loading state, clearing any previous message.
func (m *Model) SetLoading(sum mail.MessageSummary) {
	m.summary = sum
	m.content = mail.Content{}
	m.hasBody = false
	m.loading = true
}

// UID returns the UID of the displayed (or loading) message.
func (m Model) UID() uint32 {
	return m.summary.UID
}

// Summary returns the summary row of the displayed message.
func (m Model) Summary() mail.MessageSummary {
	return m.summary
}

// Content returns the extracted content of the displayed message.
func (m Model) Content() mail.Content {
	return m.content
}

// SetSize updates the mail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	if m.hasBody {
		m.viewport.SetContent(m.renderContent())
	}
}
