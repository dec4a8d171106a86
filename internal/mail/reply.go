package mail

import (
	netmail "net/mail"
	"strings"
	"time"
)

// DeriveReply builds a reply draft from a message's summary row and its
// extracted content. The draft body starts empty; the quoted original
// sits below it as a separate read-only block.
func DeriveReply(sum MessageSummary, orig Content) Draft {
	d := Draft{
		To:      ReplyAddress(sum.From),
		Subject: ReplySubject(sum.Subject),
		Quote:   QuoteBlock(sum.Date, sum.From, orig.Text),
	}
	if orig.MessageID != "" {
		d.InReplyTo = orig.MessageID
		d.References = []string{orig.MessageID}
	}
	return d
}

// ReplySubject prefixes the subject with "Re: " unless it already
// carries one, case-insensitively. An empty subject replies as "Re:".
func ReplySubject(subject string) string {
	s := strings.TrimSpace(subject)
	if s == "" {
		return "Re:"
	}
	if len(s) >= 3 && strings.EqualFold(s[:3], "re:") {
		return s
	}
	return "Re: " + s
}

// ReplyAddress extracts the bare address to reply to from a From
// display string. It tries a strict parse, then the angle-bracket
// content, then the first token containing '@', and finally returns
// the input unchanged.
func ReplyAddress(from string) string {
	from = strings.TrimSpace(from)
	if a, err := netmail.ParseAddress(from); err == nil {
		return a.Address
	}
	if open := strings.LastIndex(from, "<"); open >= 0 {
		if end := strings.Index(from[open:], ">"); end > 0 {
			return strings.TrimSpace(from[open+1 : open+end])
		}
	}
	for _, tok := range strings.Fields(from) {
		if strings.Contains(tok, "@") {
			return strings.Trim(tok, "<>,;\"'")
		}
	}
	return from
}

// QuoteBlock renders the quoted original: an attribution line followed
// by every original line prefixed with "> ".
func QuoteBlock(date time.Time, from, body string) string {
	var b strings.Builder
	b.WriteString("On ")
	b.WriteString(date.Format("Mon, 02 Jan 2006 15:04"))
	b.WriteString(", ")
	b.WriteString(from)
	b.WriteString(" wrote:\n")
	b.WriteString(strings.Join(QuoteLines(body), "\n"))
	return b.String()
}

// QuoteLines prefixes each line of body with "> ". CRLF input is
// normalized first; an empty body quotes as a single marker line.
func QuoteLines(body string) []string {
	body = strings.ReplaceAll(body, "\r\n", "\n")
	body = strings.TrimRight(body, "\n")
	lines := strings.Split(body, "\n")
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = "> " + line
	}
	return out
}
