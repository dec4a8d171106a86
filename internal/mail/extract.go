package mail

import (
	"bytes"
	"io"
	netmail "net/mail"
	"strings"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset" // register charset decoders
	"github.com/emersion/go-message/mail"
)

// decodeFailedBody is shown when a message is too broken to parse.
const decodeFailedBody = "[unreadable message body]"

// Extract parses a raw RFC 5322 message and returns its decoded
// headers plus the first text/plain body part. HTML parts are never
// selected. Extraction is best-effort and never fails: broken headers
// fall back to a line scan, unknown charsets keep the raw bytes, and a
// message with no text part yields an empty body.
func Extract(raw []byte) Content {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil && !message.IsUnknownCharset(err) {
		return fallbackContent(raw)
	}

	var c Content
	c.From = addressField(mr.Header, "From")
	c.To = addressField(mr.Header, "To")
	c.Subject, _ = mr.Header.Subject()
	c.Date, _ = mr.Header.Date()
	c.MessageID, _ = mr.Header.MessageID()
	if ids, err := mr.Header.MsgIDList("In-Reply-To"); err == nil && len(ids) > 0 {
		c.InReplyTo = ids[0]
	}
	c.Text = firstTextPart(mr)
	return c
}

// firstTextPart walks the MIME tree depth-first and returns the first
// text/plain leaf, decoded. go-message applies the declared transfer
// encoding and charset before the bytes reach us.
func firstTextPart(mr *mail.Reader) string {
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return ""
		}
		// A missing charset decoder still leaves the part body
		// readable as raw bytes. Any other error means the body
		// structure itself is broken (e.g. multipart with no boundary),
		// so surface the placeholder rather than an empty body.
		if err != nil && !message.IsUnknownCharset(err) {
			return decodeFailedBody
		}
		if part == nil {
			return ""
		}
		h, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		ctype, _, err := h.ContentType()
		if err != nil && ctype == "" {
			ctype = "text/plain"
		}
		if ctype != "text/plain" {
			continue
		}
		b, _ := io.ReadAll(part.Body)
		return string(b)
	}
}

// addressField renders an address header as a display string,
// "Name <addr>" when a display name is present.
func addressField(h mail.Header, key string) string {
	addrs, err := h.AddressList(key)
	if err != nil || len(addrs) == 0 {
		v := h.Get(key)
		return strings.TrimSpace(v)
	}
	parts := make([]string, 0, len(addrs))
	for _, a := range addrs {
		parts = append(parts, formatAddress(a))
	}
	return strings.Join(parts, ", ")
}

func formatAddress(a *mail.Address) string {
	if a.Name != "" {
		return a.Name + " <" + a.Address + ">"
	}
	return a.Address
}

// fallbackContent recovers what it can from a message whose header
// block does not parse. Headers come from a plain line scan; the body
// is replaced with a placeholder.
func fallbackContent(raw []byte) Content {
	text := strings.ReplaceAll(string(raw), "\r\n", "\n")
	head, _, _ := strings.Cut(text, "\n\n")

	c := Content{Text: decodeFailedBody}
	for _, line := range strings.Split(head, "\n") {
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.ToLower(name) {
		case "from":
			c.From = value
		case "to":
			c.To = value
		case "subject":
			c.Subject = value
		case "date":
			if t, err := netmail.ParseDate(value); err == nil {
				c.Date = t
			}
		case "message-id":
			c.MessageID = strings.Trim(value, "<> ")
		}
	}
	return c
}
