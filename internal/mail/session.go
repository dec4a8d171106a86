package mail

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
)

// listWindow caps how many of the most recent messages a refresh
// fetches envelopes for.
const listWindow = 100

var errSessionClosed = errors.New("session closed")

// Session owns one authenticated IMAP connection. All commands are
// funneled through a single worker goroutine so exactly one command is
// outstanding at a time and commands run in issue order. A caller whose
// context ends stops waiting, but the worker still finishes the command
// against the connection so the protocol stream stays coherent.
type Session struct {
	client *imapclient.Client
	addr   string

	reqs chan func()
	done chan struct{}
	once sync.Once
}

// Dial connects to the IMAP server described by acct, authenticates,
// and starts the session worker. Credential rejection is reported as
// *AuthError, connection trouble as *TransportError. Both the dial and
// the login run under ctx, so a server that accepts the connection but
// stalls before answering LOGIN still fails within the deadline.
func Dial(ctx context.Context, acct Account) (*Session, error) {
	type result struct {
		client *imapclient.Client
		err    error
	}
	ch := make(chan result, 1)
	go func() {
		c, err := dialIMAP(acct)
		if err != nil {
			ch <- result{nil, &TransportError{Server: acct.Addr(), Err: err}}
			return
		}
		if err := c.Login(acct.Username, acct.Password).Wait(); err != nil {
			c.Close()
			ch <- result{nil, &AuthError{Server: acct.Addr(), Err: err}}
			return
		}
		ch <- result{c, nil}
	}()

	select {
	case <-ctx.Done():
		// The abandoned attempt keeps running; release the connection
		// if it ever completes.
		go func() {
			if r := <-ch; r.client != nil {
				r.client.Close()
			}
		}()
		return nil, &TransportError{Server: acct.Addr(), Err: ctx.Err()}
	case r := <-ch:
		if r.err != nil {
			return nil, r.err
		}
		s := &Session{
			client: r.client,
			addr:   acct.Addr(),
			reqs:   make(chan func()),
			done:   make(chan struct{}),
		}
		go s.run()
		return s, nil
	}
}

func dialIMAP(acct Account) (*imapclient.Client, error) {
	opts := &imapclient.Options{}
	switch acct.Security {
	case SecurityStartTLS:
		return imapclient.DialStartTLS(acct.Addr(), opts)
	case SecurityNone:
		return imapclient.DialInsecure(acct.Addr(), opts)
	default:
		return imapclient.DialTLS(acct.Addr(), opts)
	}
}

func (s *Session) run() {
	for {
		select {
		case fn := <-s.reqs:
			fn()
		case <-s.done:
			s.client.Logout().Wait()
			s.client.Close()
			return
		}
	}
}

// do queues fn on the worker and waits for its result. The result
// channel is buffered so the worker never blocks on a caller that has
// already given up.
func (s *Session) do(ctx context.Context, fn func() error) error {
	errc := make(chan error, 1)
	select {
	case s.reqs <- func() { errc <- fn() }:
	case <-s.done:
		return &TransportError{Server: s.addr, Err: errSessionClosed}
	case <-ctx.Done():
		return s.ctxErr(ctx)
	}

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return s.ctxErr(ctx)
	}
}

// ctxErr classifies a context failure: a timeout counts as a transport
// error, a plain cancellation passes through for the caller to drop.
func (s *Session) ctxErr(ctx context.Context) error {
	err := ctx.Err()
	if errors.Is(err, context.DeadlineExceeded) {
		return &TransportError{Server: s.addr, Err: err}
	}
	return err
}

// ListMessages selects INBOX and returns envelope summaries for the
// most recent messages, newest first.
func (s *Session) ListMessages(ctx context.Context) ([]MessageSummary, error) {
	var out []MessageSummary
	err := s.do(ctx, func() error {
		sel, err := s.client.Select("INBOX", nil).Wait()
		if err != nil {
			return &FetchError{Op: "select", Err: err}
		}
		if sel.NumMessages == 0 {
			return nil
		}

		first := uint32(1)
		if sel.NumMessages > listWindow {
			first = sel.NumMessages - listWindow + 1
		}
		var seqSet imap.SeqSet
		seqSet.AddRange(first, sel.NumMessages)

		fetchOpts := &imap.FetchOptions{
			Envelope:   true,
			Flags:      true,
			UID:        true,
			RFC822Size: true,
		}
		msgs, err := s.client.Fetch(seqSet, fetchOpts).Collect()
		if err != nil {
			return &FetchError{Op: "fetch envelopes", Err: err}
		}
		out = summarize(msgs)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FetchBody retrieves the full raw message for one UID without setting
// the \Seen flag (BODY.PEEK).
func (s *Session) FetchBody(ctx context.Context, uid uint32) ([]byte, error) {
	var raw []byte
	err := s.do(ctx, func() error {
		section := &imap.FetchItemBodySection{Peek: true}
		fetchOpts := &imap.FetchOptions{
			UID:         true,
			BodySection: []*imap.FetchItemBodySection{section},
		}
		msgs, err := s.client.Fetch(imap.UIDSetNum(imap.UID(uid)), fetchOpts).Collect()
		if err != nil {
			return &FetchError{Op: "fetch body", Err: err}
		}
		for _, m := range msgs {
			if b := m.FindBodySection(section); b != nil {
				raw = b
				return nil
			}
		}
		return &FetchError{Op: "fetch body", Err: fmt.Errorf("uid %d: server returned no body", uid)}
	})
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// MarkSeen adds the \Seen flag to one message on the server.
func (s *Session) MarkSeen(ctx context.Context, uid uint32) error {
	return s.do(ctx, func() error {
		storeFlags := &imap.StoreFlags{
			Op:     imap.StoreFlagsAdd,
			Silent: true,
			Flags:  []imap.Flag{imap.FlagSeen},
		}
		if err := s.client.Store(imap.UIDSetNum(imap.UID(uid)), storeFlags, nil).Close(); err != nil {
			return &FetchError{Op: "store seen", Err: err}
		}
		return nil
	})
}

// Close logs out and releases the connection. Safe to call more than
// once; pending callers receive a transport error.
func (s *Session) Close() {
	s.once.Do(func() { close(s.done) })
}

func summarize(msgs []*imapclient.FetchMessageBuffer) []MessageSummary {
	out := make([]MessageSummary, 0, len(msgs))
	for _, m := range msgs {
		if m.Envelope == nil {
			continue
		}
		sum := MessageSummary{
			UID:     uint32(m.UID),
			Subject: m.Envelope.Subject,
			Date:    m.Envelope.Date,
			Size:    m.RFC822Size,
		}
		if len(m.Envelope.From) > 0 {
			sum.From = envelopeAddress(m.Envelope.From[0])
		}
		for _, f := range m.Flags {
			if f == imap.FlagSeen {
				sum.Seen = true
				break
			}
		}
		out = append(out, sum)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UID > out[j].UID })
	return out
}

func envelopeAddress(a imap.Address) string {
	if a.Name != "" {
		return a.Name + " <" + a.Addr() + ">"
	}
	return a.Addr()
}
