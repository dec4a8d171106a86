package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"plainmail/internal/cache"
	"plainmail/internal/config"
	"plainmail/internal/credential"
	"plainmail/internal/mail"
)

// networkTimeout bounds every server round trip so a dead connection
// surfaces as a transport error instead of a hang.
const networkTimeout = 30 * time.Second

// statusLifetime is how long a transient status message stays visible.
const statusLifetime = 4 * time.Second

// mailSession is the slice of the IMAP session the app depends on.
// Tests substitute fakes.
type mailSession interface {
	cache.BodyFetcher
	ListMessages(ctx context.Context) ([]mail.MessageSummary, error)
	MarkSeen(ctx context.Context, uid uint32) error
	Close()
}

// dialFunc opens an authenticated session. The production value wraps
// mail.Dial.
type dialFunc func(ctx context.Context, acct mail.Account) (mailSession, error)

func dialSession(ctx context.Context, acct mail.Account) (mailSession, error) {
	return mail.Dial(ctx, acct)
}

// sessionReadyMsg is delivered when a connection attempt finishes.
type sessionReadyMsg struct {
	session mailSession
}

// summariesLoadedMsg carries a fresh mailbox listing.
type summariesLoadedMsg struct {
	summaries []mail.MessageSummary
}

// bodyLoadedMsg carries an extracted message body. Gen ties it to the
// fetch generation that requested it; stale generations are dropped.
type bodyLoadedMsg struct {
	gen     int
	uid     uint32
	content mail.Content
}

// sentMsg is delivered after a successful SMTP submission.
type sentMsg struct{}

// errMsg carries a failed operation to the status line.
type errMsg struct {
	op  string
	err error
}

// clearStatusMsg expires a transient status message. Token guards
// against clearing a newer message.
type clearStatusMsg struct {
	token int
}

// imapAccount assembles the IMAP account from config plus keyring.
func imapAccount(cfg *config.AppConfig) (mail.Account, error) {
	password, err := credential.Get(credential.IMAPPassword)
	if err != nil {
		return mail.Account{}, err
	}
	return mail.Account{
		Host:     cfg.IMAP.Host,
		Port:     cfg.IMAP.Port,
		Username: cfg.IMAP.Username,
		Password: password,
		Security: mail.ParseSecurity(cfg.IMAP.Security),
	}, nil
}

// smtpAccount assembles the SMTP account from config plus keyring.
func smtpAccount(cfg *config.AppConfig) (mail.Account, error) {
	password, err := credential.Get(credential.SMTPPassword)
	if err != nil {
		return mail.Account{}, err
	}
	return mail.Account{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: password,
		Security: mail.ParseSecurity(cfg.SMTP.Security),
	}, nil
}

// connectCmd dials the IMAP server.
func (m Model) connectCmd() tea.Cmd {
	cfg := m.cfg
	dial := m.dial
	return func() tea.Msg {
		acct, err := imapAccount(cfg)
		if err != nil {
			return errMsg{op: "connect", err: err}
		}
		ctx, cancel := context.WithTimeout(context.Background(), networkTimeout)
		defer cancel()
		session, err := dial(ctx, acct)
		if err != nil {
			return errMsg{op: "connect", err: err}
		}
		return sessionReadyMsg{session: session}
	}
}

// refreshCmd lists the mailbox on the current session.
func (m Model) refreshCmd() tea.Cmd {
	session := m.session
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), networkTimeout)
		defer cancel()
		sums, err := session.ListMessages(ctx)
		if err != nil {
			return errMsg{op: "refresh", err: err}
		}
		return summariesLoadedMsg{summaries: sums}
	}
}

// loadBodyCmd fetches one message body through the cache. ctx belongs
// to the mail view visit; leaving the view cancels it and the cache
// stores nothing for the abandoned fetch.
func (m Model) loadBodyCmd(ctx context.Context, gen int, uid uint32) tea.Cmd {
	mailbox := m.mailbox
	session := m.session
	return func() tea.Msg {
		content, err := mailbox.GetOrFetchBody(ctx, uid, session)
		if err != nil {
			return errMsg{op: "load message", err: err}
		}
		return bodyLoadedMsg{gen: gen, uid: uid, content: content}
	}
}

// markSeenCmd tells the server a message was read. Local state is
// already updated; a failure here only surfaces in the status line.
func (m Model) markSeenCmd(uid uint32) tea.Cmd {
	session := m.session
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), networkTimeout)
		defer cancel()
		if err := session.MarkSeen(ctx, uid); err != nil {
			return errMsg{op: "mark read", err: err}
		}
		return nil
	}
}

// sendCmd submits a draft over SMTP.
func (m Model) sendCmd(draft mail.Draft) tea.Cmd {
	cfg := m.cfg
	return func() tea.Msg {
		acct, err := smtpAccount(cfg)
		if err != nil {
			return errMsg{op: "send", err: err}
		}
		id := mail.Identity{Name: cfg.User.Name, Email: cfg.User.Email}
		ctx, cancel := context.WithTimeout(context.Background(), networkTimeout)
		defer cancel()
		if err := mail.Send(ctx, acct, id, draft); err != nil {
			return errMsg{op: "send", err: err}
		}
		return sentMsg{}
	}
}

// expireStatusCmd schedules the current status message to clear.
func expireStatusCmd(token int) tea.Cmd {
	return tea.Tick(statusLifetime, func(time.Time) tea.Msg {
		return clearStatusMsg{token: token}
	})
}
