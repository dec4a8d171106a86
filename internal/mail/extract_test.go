package mail

import (
	"strings"
	"testing"
)

// crlf converts a readable LF fixture into proper wire line endings.
func crlf(s string) []byte {
	return []byte(strings.ReplaceAll(s, "\n", "\r\n"))
}

func TestExtractSinglePart(t *testing.T) {
	raw := crlf(`From: Alice Example <alice@example.com>
To: bob@example.com
Subject: Weekly status
Date: Mon, 02 Jun 2025 10:30:00 +0000
Message-ID: <abc123@example.com>
Content-Type: text/plain; charset=utf-8

All systems nominal.
Next review on Friday.
`)

	c := Extract(raw)
	if c.From != "Alice Example <alice@example.com>" {
		t.Errorf("From = %q", c.From)
	}
	if c.Subject != "Weekly status" {
		t.Errorf("Subject = %q", c.Subject)
	}
	if c.MessageID != "abc123@example.com" {
		t.Errorf("MessageID = %q", c.MessageID)
	}
	want := "All systems nominal.\r\nNext review on Friday.\r\n"
	if c.Text != want {
		t.Errorf("Text = %q, want %q", c.Text, want)
	}
}

func TestExtractPrefersPlainOverHTML(t *testing.T) {
	raw := crlf(`From: alice@example.com
To: bob@example.com
Subject: Alternative
Content-Type: multipart/alternative; boundary="b1"

--b1
Content-Type: text/html; charset=utf-8

<html><body><b>rich</b></body></html>
--b1
Content-Type: text/plain; charset=utf-8

plain wins
--b1--
`)

	c := Extract(raw)
	if !strings.Contains(c.Text, "plain wins") {
		t.Errorf("Text = %q, want the text/plain part", c.Text)
	}
	if strings.Contains(c.Text, "<html>") {
		t.Errorf("Text contains HTML: %q", c.Text)
	}
}

func TestExtractNestedMultipart(t *testing.T) {
	raw := crlf(`From: alice@example.com
Subject: Nested
Content-Type: multipart/mixed; boundary="outer"

--outer
Content-Type: multipart/alternative; boundary="inner"

--inner
Content-Type: text/plain; charset=utf-8

buried text part
--inner
Content-Type: text/html; charset=utf-8

<p>html</p>
--inner--
--outer
Content-Type: application/octet-stream
Content-Disposition: attachment; filename="data.bin"

AAAA
--outer--
`)

	c := Extract(raw)
	if !strings.Contains(c.Text, "buried text part") {
		t.Errorf("Text = %q, want nested text/plain part", c.Text)
	}
}

func TestExtractQuotedPrintable(t *testing.T) {
	raw := crlf(`From: alice@example.com
Subject: =?UTF-8?Q?Caf=C3=A9_plans?=
Content-Type: text/plain; charset=utf-8
Content-Transfer-Encoding: quoted-printable

Meet at the caf=C3=A9?
`)

	c := Extract(raw)
	if c.Subject != "Café plans" {
		t.Errorf("Subject = %q, want decoded encoded-word", c.Subject)
	}
	if !strings.Contains(c.Text, "café") {
		t.Errorf("Text = %q, want decoded quoted-printable", c.Text)
	}
}

func TestExtractBase64(t *testing.T) {
	raw := crlf(`From: alice@example.com
Subject: Encoded
Content-Type: text/plain; charset=utf-8
Content-Transfer-Encoding: base64

aGVsbG8gZnJvbSBiYXNlNjQ=
`)

	c := Extract(raw)
	if !strings.Contains(c.Text, "hello from base64") {
		t.Errorf("Text = %q, want decoded base64", c.Text)
	}
}

func TestExtractHTMLOnlyYieldsEmptyBody(t *testing.T) {
	raw := crlf(`From: alice@example.com
Subject: HTML only
Content-Type: text/html; charset=utf-8

<html><body>no text version</body></html>
`)

	c := Extract(raw)
	if c.Text != "" {
		t.Errorf("Text = %q, want empty body when no text/plain part exists", c.Text)
	}
	if c.Subject != "HTML only" {
		t.Errorf("Subject = %q", c.Subject)
	}
}

func TestExtractInReplyTo(t *testing.T) {
	raw := crlf(`From: bob@example.com
Subject: Re: Weekly status
Message-ID: <def456@example.com>
In-Reply-To: <abc123@example.com>
Content-Type: text/plain

ack
`)

	c := Extract(raw)
	if c.InReplyTo != "abc123@example.com" {
		t.Errorf("InReplyTo = %q", c.InReplyTo)
	}
}

func TestExtractMalformedFallsBack(t *testing.T) {
	raw := []byte("From: ghost@example.com\nSubject: broken\nContent-Type: multipart/mixed\n\nno boundary declared")

	c := Extract(raw)
	if c.From != "ghost@example.com" {
		t.Errorf("From = %q, want line-scanned header", c.From)
	}
	if c.Subject != "broken" {
		t.Errorf("Subject = %q", c.Subject)
	}
	if c.Text == "" {
		t.Error("Text empty, want placeholder body")
	}
}
