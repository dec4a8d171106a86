package inbox

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"plainmail/internal/mail"
	"plainmail/internal/theme"
)

// MessageItem wraps a summary so it can be used in a bubbles/list.
type MessageItem struct {
	Summary mail.MessageSummary
}

// FilterValue returns the string used for fuzzy filtering.
func (i MessageItem) FilterValue() string {
	return i.Summary.From + " " + i.Summary.Subject
}

// ItemDelegate implements list.ItemDelegate for rendering one message
// per line.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single message line: unread marker, sender, subject,
// age, and size.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	mi, ok := item.(MessageItem)
	if !ok {
		return
	}

	sum := mi.Summary
	isSelected := index == m.Index()

	marker := " "
	if !sum.Seen {
		marker = "●"
	}

	from := theme.FromStyle.Render(truncate(senderName(sum.From), 24))

	subject := sum.Subject
	if subject == "" {
		subject = "(no subject)"
	}
	if !sum.Seen {
		subject = theme.UnreadStyle.Render(subject)
	}

	meta := theme.DateStyle.Render(
		fmt.Sprintf("%s  %s", relativeTime(sum.Date), formatSize(sum.Size)),
	)

	line := fmt.Sprintf("%s %s  %s  %s", marker, from, subject, meta)

	if sum.Seen {
		line = theme.ReadStyle.Render(line)
	}
	if isSelected {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// senderName strips the address part from a "Name <addr>" display
// string, keeping the bare address when there is no name.
func senderName(from string) string {
	if i := strings.Index(from, "<"); i > 0 {
		if name := strings.TrimSpace(from[:i]); name != "" {
			return name
		}
	}
	return from
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}

// relativeTime returns a human-friendly relative time string.
func relativeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		mins := int(d.Minutes())
		if mins == 1 {
			return "1m ago"
		}
		return fmt.Sprintf("%dm ago", mins)
	case d < 24*time.Hour:
		hrs := int(d.Hours())
		if hrs == 1 {
			return "1h ago"
		}
		return fmt.Sprintf("%dh ago", hrs)
	case d < 7*24*time.Hour:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "1d ago"
		}
		return fmt.Sprintf("%dd ago", days)
	default:
		return t.Format("Jan 02")
	}
}

// formatSize renders a byte count in short human form.
func formatSize(n int64) string {
	switch {
	case n <= 0:
		return ""
	case n < 1024:
		return fmt.Sprintf("%dB", n)
	case n < 1024*1024:
		return fmt.Sprintf("%.0fK", float64(n)/1024)
	default:
		return fmt.Sprintf("%.1fM", float64(n)/(1024*1024))
	}
}
