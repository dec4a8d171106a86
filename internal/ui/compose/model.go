package compose

import (
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"plainmail/internal/keys"
	"plainmail/internal/mail"
	"plainmail/internal/theme"
)

// SendRequestMsg asks the parent to submit the assembled draft.
type SendRequestMsg struct {
	Draft mail.Draft
}

// CancelMsg signals the parent that the user abandoned the draft.
type CancelMsg struct{}

// EditorFinishedMsg is delivered when the external editor exits.
type EditorFinishedMsg struct {
	Path string
	Err  error
}

// focus targets cycled by tab.
const (
	focusTo = iota
	focusSubject
	focusBody
)

// Model is the compose view component. The editable reply text lives
// in the textarea; the quoted original, when present, is rendered
// read-only below it and joined in at send time.
type Model struct {
	to      textinput.Model
	subject textinput.Model
	body    textarea.Model
	quote   string

	inReplyTo  string
	references []string

	focus   int
	editor  string
	keys    *keys.KeyMap
	width   int
	height  int
	sending bool
}

// New creates an empty compose model. editor is the external editor
// command used by ctrl+e.
func New(k *keys.KeyMap, editor string, width, height int) Model {
	to := textinput.New()
	to.Placeholder = "recipient@example.com"
	to.Prompt = "To:      "
	to.Width = width - 12

	subject := textinput.New()
	subject.Placeholder = "Subject"
	subject.Prompt = "Subject: "
	subject.Width = width - 12

	body := textarea.New()
	body.Placeholder = "Write your message..."
	body.ShowLineNumbers = false
	body.CharLimit = 0
	body.SetWidth(width - 4)
	body.SetHeight(height - 8)

	return Model{
		to:      to,
		subject: subject,
		body:    body,
		editor:  editor,
		keys:    k,
		width:   width,
		height:  height,
	}
}

// Reset clears the form for a fresh message and focuses the To field.
func (m *Model) Reset() tea.Cmd {
	m.to.Reset()
	m.subject.Reset()
	m.body.Reset()
	m.quote = ""
	m.inReplyTo = ""
	m.references = nil
	m.sending = false
	return m.setFocus(focusTo)
}

// SetDraft loads a prepared draft, typically a reply. The body field
// gets the editable text; the quote stays read-only. Focus lands on
// the body since recipient and subject are prefilled.
func (m *Model) SetDraft(d mail.Draft) tea.Cmd {
	m.to.SetValue(d.To)
	m.subject.SetValue(d.Subject)
	m.body.SetValue(d.Body)
	m.quote = d.Quote
	m.inReplyTo = d.InReplyTo
	m.references = d.References
	m.sending = false
	return m.setFocus(focusBody)
}

// Draft assembles the current form state.
func (m Model) Draft() mail.Draft {
	return mail.Draft{
		To:         strings.TrimSpace(m.to.Value()),
		Subject:    strings.TrimSpace(m.subject.Value()),
		Body:       m.body.Value(),
		Quote:      m.quote,
		InReplyTo:  m.inReplyTo,
		References: m.references,
	}
}

// SetSending toggles the submit-in-flight state; input keeps working
// so esc can still abandon the screen.
func (m *Model) SetSending(sending bool) {
	m.sending = sending
}

// Init returns the initial command for the compose view.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the compose view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case EditorFinishedMsg:
		defer os.Remove(msg.Path)
		if msg.Err != nil {
			return m, nil
		}
		content, err := os.ReadFile(msg.Path)
		if err != nil {
			return m, nil
		}
		m.body.SetValue(string(content))
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg {
				return CancelMsg{}
			}

		case key.Matches(msg, m.keys.Send):
			if m.sending {
				return m, nil
			}
			d := m.Draft()
			if d.To == "" {
				return m, nil
			}
			return m, func() tea.Msg {
				return SendRequestMsg{Draft: d}
			}

		case key.Matches(msg, m.keys.Editor):
			return m.openEditor()

		case msg.String() == "tab":
			return m, m.setFocus((m.focus + 1) % 3)

		case msg.String() == "shift+tab":
			return m, m.setFocus((m.focus + 2) % 3)
		}
	}

	return m.updateFocused(msg)
}

// openEditor writes the body to a temp file and suspends the TUI while
// the external editor runs.
func (m Model) openEditor() (Model, tea.Cmd) {
	f, err := os.CreateTemp("", "plainmail-*.txt")
	if err != nil {
		return m, nil
	}
	path := f.Name()
	if _, err := f.WriteString(m.body.Value()); err != nil {
		f.Close()
		os.Remove(path)
		return m, nil
	}
	f.Close()

	c := exec.Command(m.editor, path)
	return m, tea.ExecProcess(c, func(err error) tea.Msg {
		return EditorFinishedMsg{Path: path, Err: err}
	})
}

func (m *Model) setFocus(focus int) tea.Cmd {
	m.focus = focus
	m.to.Blur()
	m.subject.Blur()
	m.body.Blur()

	switch focus {
	case focusTo:
		return m.to.Focus()
	case focusSubject:
		return m.subject.Focus()
	default:
		cmd := m.body.Focus()
		return tea.Batch(cmd, textarea.Blink)
	}
}

func (m Model) updateFocused(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.focus {
	case focusTo:
		m.to, cmd = m.to.Update(msg)
	case focusSubject:
		m.subject, cmd = m.subject.Update(msg)
	default:
		m.body, cmd = m.body.Update(msg)
	}
	return m, cmd
}

// View renders the compose view.
func (m Model) View() string {
	var sections []string

	title := "New Message"
	if m.inReplyTo != "" {
		title = "Reply"
	}
	if m.sending {
		title += "  (sending...)"
	}
	sections = append(sections,
		lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).Render(title),
		"",
		m.to.View(),
		m.subject.View(),
		"",
		m.body.View(),
	)

	if m.quote != "" {
		sections = append(sections, "", theme.QuoteStyle.Render(m.quote))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetSize updates the compose view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.to.Width = width - 12
	m.subject.Width = width - 12
	m.body.SetWidth(width - 4)

	bodyHeight := height - 8
	if m.quote != "" {
		quoteLines := strings.Count(m.quote, "\n") + 2
		if quoteLines > height/2 {
			quoteLines = height / 2
		}
		bodyHeight -= quoteLines
	}
	if bodyHeight < 3 {
		bodyHeight = 3
	}
	m.body.SetHeight(bodyHeight)
}
