package inbox

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"plainmail/internal/keys"
	"plainmail/internal/mail"
	"plainmail/internal/theme"
)

// OpenMessageMsg is sent when the user selects a message to read.
type OpenMessageMsg struct {
	UID uint32
}

// Model is the inbox list view component.
type Model struct {
	list   list.Model
	keys   *keys.KeyMap
	width  int
	height int
}

// New creates a new inbox model.
func New(k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height-2)
	l.Title = "Inbox"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	return Model{
		list:   l,
		keys:   k,
		width:  width,
		height: height,
	}
}

// Init returns the initial command for the inbox view.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the inbox view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if key.Matches(msg, m.keys.Select) {
			item, ok := m.list.SelectedItem().(MessageItem)
			if !ok {
				return m, nil
			}
			uid := item.Summary.UID
			return m, func() tea.Msg {
				return OpenMessageMsg{UID: uid}
			}
		}
	}

	// Delegate to the list for navigation keys (up/down/pgup/pgdn)
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// SetMessages replaces the listed summaries, keeping the selection on
// the same UID when it survives.
func (m *Model) SetMessages(sums []mail.MessageSummary) tea.Cmd {
	selected := m.SelectedUID()

	items := make([]list.Item, len(sums))
	index := 0
	for i, s := range sums {
		items[i] = MessageItem{Summary: s}
		if s.UID == selected {
			index = i
		}
	}
	cmd := m.list.SetItems(items)
	m.list.Select(index)
	return cmd
}

// SelectedUID returns the UID under the cursor, zero when the list is
// empty.
func (m Model) SelectedUID() uint32 {
	if item, ok := m.list.SelectedItem().(MessageItem); ok {
		return item.Summary.UID
	}
	return 0
}

// View renders the inbox view.
func (m Model) View() string {
	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}
	return m.list.View()
}

// renderEmptyState shows guidance text when the mailbox is empty.
func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	return style.Render("Inbox empty.\n\nPress r to refresh.")
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
}
