package mail

import (
	"strings"
	"time"
)

// Security selects how the transport to a mail server is protected.
type Security int

const (
	// SecurityTLS wraps the connection in TLS from the first byte.
	SecurityTLS Security = iota
	// SecurityStartTLS connects in cleartext and upgrades via STARTTLS.
	SecurityStartTLS
	// SecurityNone uses a cleartext connection. Local testing only.
	SecurityNone
)

// ParseSecurity maps a config string to a Security mode. Unknown values
// default to TLS, the safest choice.
func ParseSecurity(s string) Security {
	switch s {
	case "starttls":
		return SecurityStartTLS
	case "none", "insecure":
		return SecurityNone
	default:
		return SecurityTLS
	}
}

// String returns the config spelling of the security mode.
func (s Security) String() string {
	switch s {
	case SecurityStartTLS:
		return "starttls"
	case SecurityNone:
		return "none"
	default:
		return "tls"
	}
}

// Account holds everything needed to authenticate against one server
// (IMAP or SMTP).
type Account struct {
	Host     string
	Port     string
	Username string
	Password string
	Security Security
}

// Addr returns the host:port dial address.
func (a Account) Addr() string {
	return a.Host + ":" + a.Port
}

// Identity is the sender identity stamped on outgoing mail.
type Identity struct {
	Name  string
	Email string
}

// MessageSummary is the envelope-level view of one message, as listed
// in the inbox. Immutable once fetched except Seen, which flips when
// the message is opened.
type MessageSummary struct {
	UID     uint32
	From    string // display form: "Name <user@host>" or bare address
	Subject string
	Date    time.Time
	Seen    bool
	Size    int64
}

// Content is the result of extracting a raw RFC 5322 message: decoded
// header fields plus the plain-text body.
type Content struct {
	From      string
	To        string
	Subject   string
	Date      time.Time
	MessageID string
	InReplyTo string
	Text      string
}

// Draft is an in-progress outgoing message. Body is the user's own
// text; Quote is the read-only quoted block appended below it when the
// draft was derived from a reply.
type Draft struct {
	To         string
	Subject    string
	Body       string
	Quote      string
	InReplyTo  string
	References []string
}

// FullBody joins the editable reply text and the quoted block the way
// the message will be sent: reply on top, one blank line, quote below.
func (d Draft) FullBody() string {
	body := strings.TrimRight(d.Body, " \t\r\n")
	quote := strings.TrimRight(d.Quote, " \t\r\n")

	switch {
	case quote == "":
		return body
	case body == "":
		return quote
	default:
		return body + "\n\n" + quote
	}
}
