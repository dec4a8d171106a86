package mail

import (
	"strings"
	"testing"
	"time"
)

func TestReplySubject(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Weekly status", "Re: Weekly status"},
		{"Re: Weekly status", "Re: Weekly status"},
		{"RE: shouting", "RE: shouting"},
		{"re: lowercase", "re: lowercase"},
		{"", "Re:"},
		{"   ", "Re:"},
		{"Regarding the offer", "Re: Regarding the offer"},
	}
	for _, tt := range tests {
		if got := ReplySubject(tt.in); got != tt.want {
			t.Errorf("ReplySubject(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestReplyAddress(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Alice Example <alice@example.com>", "alice@example.com"},
		{"alice@example.com", "alice@example.com"},
		{"\"Example, Alice\" <alice@example.com>", "alice@example.com"},
		{"Weird Sender alice@example.com extra", "alice@example.com"},
		{"no address here", "no address here"},
	}
	for _, tt := range tests {
		if got := ReplyAddress(tt.in); got != tt.want {
			t.Errorf("ReplyAddress(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestQuoteLines(t *testing.T) {
	got := QuoteLines("line one\r\nline two\nline three")
	want := []string{"> line one", "> line two", "> line three"}
	if len(got) != len(want) {
		t.Fatalf("got %d lines, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestQuoteLinesEmptyBody(t *testing.T) {
	got := QuoteLines("")
	if len(got) != 1 || got[0] != "> " {
		t.Errorf("QuoteLines(\"\") = %q, want single marker line", got)
	}
}

func TestQuoteLinesEveryLinePrefixed(t *testing.T) {
	body := "a\nb\n\nc\n"
	for i, line := range QuoteLines(body) {
		if !strings.HasPrefix(line, "> ") {
			t.Errorf("line %d = %q, missing quote prefix", i, line)
		}
	}
}

func TestDeriveReply(t *testing.T) {
	sum := MessageSummary{
		UID:     42,
		From:    "Alice Example <alice@example.com>",
		Subject: "Weekly status",
		Date:    time.Date(2025, 6, 2, 10, 30, 0, 0, time.UTC),
	}
	orig := Content{
		MessageID: "abc123@example.com",
		Text:      "All systems nominal.\nNext review on Friday.",
	}

	d := DeriveReply(sum, orig)

	if d.To != "alice@example.com" {
		t.Errorf("To = %q", d.To)
	}
	if d.Subject != "Re: Weekly status" {
		t.Errorf("Subject = %q", d.Subject)
	}
	if d.Body != "" {
		t.Errorf("Body = %q, want empty editable body", d.Body)
	}
	if d.InReplyTo != "abc123@example.com" {
		t.Errorf("InReplyTo = %q", d.InReplyTo)
	}
	if len(d.References) != 1 || d.References[0] != "abc123@example.com" {
		t.Errorf("References = %v", d.References)
	}

	lines := strings.Split(d.Quote, "\n")
	if !strings.HasPrefix(lines[0], "On ") || !strings.HasSuffix(lines[0], "Alice Example <alice@example.com> wrote:") {
		t.Errorf("attribution line = %q", lines[0])
	}
	if len(lines) != 3 {
		t.Fatalf("quote has %d lines, want attribution + 2 quoted", len(lines))
	}
	if lines[1] != "> All systems nominal." || lines[2] != "> Next review on Friday." {
		t.Errorf("quoted lines = %q", lines[1:])
	}
}

func TestDeriveReplyNoMessageID(t *testing.T) {
	d := DeriveReply(MessageSummary{From: "x@example.com"}, Content{})
	if d.InReplyTo != "" || d.References != nil {
		t.Errorf("threading headers set without an original Message-ID: %+v", d)
	}
}

func TestDraftFullBody(t *testing.T) {
	tests := []struct {
		name  string
		draft Draft
		want  string
	}{
		{
			name:  "reply above quote",
			draft: Draft{Body: "Thanks!", Quote: "On Mon, Alice wrote:\n> hi"},
			want:  "Thanks!\n\nOn Mon, Alice wrote:\n> hi",
		},
		{
			name:  "no quote",
			draft: Draft{Body: "Fresh message"},
			want:  "Fresh message",
		},
		{
			name:  "empty reply keeps quote",
			draft: Draft{Quote: "> original"},
			want:  "> original",
		},
		{
			name:  "trailing whitespace trimmed",
			draft: Draft{Body: "Thanks!\n\n", Quote: "> original\n"},
			want:  "Thanks!\n\n> original",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.draft.FullBody(); got != tt.want {
				t.Errorf("FullBody() = %q, want %q", got, tt.want)
			}
		})
	}
}
