package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/google/uuid"
)

// Send submits a draft through the configured SMTP server on a fresh,
// short-lived connection. It never touches the IMAP session.
func Send(ctx context.Context, acct Account, id Identity, d Draft) error {
	msg, err := BuildMessage(id, d, time.Now())
	if err != nil {
		return &SendError{Server: acct.Addr(), Err: err}
	}

	errc := make(chan error, 1)
	go func() { errc <- submit(acct, id.Email, d.To, msg) }()

	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return &TransportError{Server: acct.Addr(), Err: ctx.Err()}
		}
		return ctx.Err()
	case err := <-errc:
		return err
	}
}

func submit(acct Account, from, to string, msg []byte) error {
	client, err := dialSMTP(acct)
	if err != nil {
		return &TransportError{Server: acct.Addr(), Err: err}
	}
	defer client.Close()

	if acct.Password != "" {
		auth := sasl.NewPlainClient("", acct.Username, acct.Password)
		if err := client.Auth(auth); err != nil {
			return &AuthError{Server: acct.Addr(), Err: err}
		}
	}

	if err := client.SendMail(from, []string{to}, bytes.NewReader(msg)); err != nil {
		return &SendError{Server: acct.Addr(), Err: err}
	}
	return client.Quit()
}

func dialSMTP(acct Account) (*smtp.Client, error) {
	tlsCfg := &tls.Config{ServerName: acct.Host}
	switch acct.Security {
	case SecurityStartTLS:
		return smtp.DialStartTLS(acct.Addr(), tlsCfg)
	case SecurityNone:
		return smtp.Dial(acct.Addr())
	default:
		return smtp.DialTLS(acct.Addr(), tlsCfg)
	}
}

// BuildMessage assembles the RFC 5322 bytes for a draft: sender
// identity, recipient, Date, a fresh Message-ID, threading headers when
// replying, and the reply text joined above the quoted block as a
// text/plain UTF-8 body.
func BuildMessage(id Identity, d Draft, now time.Time) ([]byte, error) {
	var h mail.Header
	h.SetDate(now)
	h.SetSubject(d.Subject)
	h.SetAddressList("From", []*mail.Address{{Name: id.Name, Address: id.Email}})
	h.SetAddressList("To", []*mail.Address{{Address: d.To}})
	h.Set("Message-ID", generateMessageID(id.Email))
	if d.InReplyTo != "" {
		h.SetMsgIDList("In-Reply-To", []string{d.InReplyTo})
	}
	if len(d.References) > 0 {
		h.SetMsgIDList("References", d.References)
	}
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(w, d.FullBody()); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// generateMessageID returns <unixnano.uuid@domain> using the sender's
// domain.
func generateMessageID(fromEmail string) string {
	domain := "localhost"
	if _, d, ok := strings.Cut(fromEmail, "@"); ok && d != "" {
		domain = d
	}
	return fmt.Sprintf("<%d.%s@%s>", time.Now().UnixNano(), uuid.NewString(), domain)
}
