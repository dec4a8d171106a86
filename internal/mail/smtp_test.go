package mail

import (
	"strings"
	"testing"
	"time"
)

func TestBuildMessageRoundTrip(t *testing.T) {
	id := Identity{Name: "Bob Tester", Email: "bob@example.com"}
	d := Draft{
		To:         "alice@example.com",
		Subject:    "Re: Weekly status",
		Body:       "Looks good to me.",
		Quote:      "On Mon, Alice wrote:\n> All systems nominal.",
		InReplyTo:  "abc123@example.com",
		References: []string{"abc123@example.com"},
	}

	raw, err := BuildMessage(id, d, time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("BuildMessage: %v", err)
	}

	c := Extract(raw)
	if c.From != "Bob Tester <bob@example.com>" {
		t.Errorf("From = %q", c.From)
	}
	if c.To != "alice@example.com" {
		t.Errorf("To = %q", c.To)
	}
	if c.Subject != "Re: Weekly status" {
		t.Errorf("Subject = %q", c.Subject)
	}
	if c.InReplyTo != "abc123@example.com" {
		t.Errorf("InReplyTo = %q", c.InReplyTo)
	}
	if c.MessageID == "" {
		t.Error("MessageID missing from outgoing message")
	}

	text := strings.ReplaceAll(c.Text, "\r\n", "\n")
	if !strings.Contains(text, "Looks good to me.\n\nOn Mon, Alice wrote:\n> All systems nominal.") {
		t.Errorf("body = %q, want reply joined above quote", text)
	}
}

func TestBuildMessageNoThreadingHeadersForFreshMail(t *testing.T) {
	id := Identity{Name: "Bob", Email: "bob@example.com"}
	d := Draft{To: "alice@example.com", Subject: "Hello", Body: "Hi there"}

	raw, err := BuildMessage(id, d, time.Now())
	if err != nil {
		t.Fatalf("BuildMessage: %v", err)
	}
	if strings.Contains(string(raw), "In-Reply-To") {
		t.Error("fresh message carries In-Reply-To")
	}
	if strings.Contains(string(raw), "References") {
		t.Error("fresh message carries References")
	}
}

func TestGenerateMessageIDUsesSenderDomain(t *testing.T) {
	got := generateMessageID("bob@example.com")
	if !strings.HasPrefix(got, "<") || !strings.HasSuffix(got, "@example.com>") {
		t.Errorf("generateMessageID = %q", got)
	}
	if got == generateMessageID("bob@example.com") {
		t.Error("two message ids collided")
	}
}
