// Package cache holds the in-memory view of the mailbox: the summary
// list shown in the inbox plus lazily fetched message bodies. Nothing
// here touches disk.
package cache

import (
	"context"
	"errors"
	"sync"

	"plainmail/internal/mail"
)

// ErrUnknownMessage is returned when a body is requested for a UID the
// summary list does not contain.
var ErrUnknownMessage = errors.New("message not in mailbox")

// BodyFetcher retrieves the raw bytes of one message. Implemented by
// the mail session; tests substitute fakes.
type BodyFetcher interface {
	FetchBody(ctx context.Context, uid uint32) ([]byte, error)
}

// Mailbox is the shared message cache. Methods are safe to call from
// concurrent tea.Cmd goroutines.
type Mailbox struct {
	mu        sync.Mutex
	summaries []mail.MessageSummary
	bodies    map[uint32]mail.Content
}

func New() *Mailbox {
	return &Mailbox{bodies: make(map[uint32]mail.Content)}
}

// Summaries returns a copy of the current summary list, newest first.
func (m *Mailbox) Summaries() []mail.MessageSummary {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]mail.MessageSummary, len(m.summaries))
	copy(out, m.summaries)
	return out
}

// Summary returns the summary for one UID.
func (m *Mailbox) Summary(uid uint32) (mail.MessageSummary, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.summaries {
		if s.UID == uid {
			return s, true
		}
	}
	return mail.MessageSummary{}, false
}

// Refresh replaces the summary list wholesale. Locally set read flags
// survive for UIDs the server still reports, cached bodies survive for
// surviving UIDs, and bodies for vanished UIDs are dropped.
func (m *Mailbox) Refresh(latest []mail.MessageSummary) {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := make(map[uint32]bool, len(m.summaries))
	for _, s := range m.summaries {
		if s.Seen {
			seen[s.UID] = true
		}
	}

	next := make([]mail.MessageSummary, len(latest))
	copy(next, latest)
	alive := make(map[uint32]bool, len(next))
	for i := range next {
		alive[next[i].UID] = true
		if seen[next[i].UID] {
			next[i].Seen = true
		}
	}
	m.summaries = next

	for uid := range m.bodies {
		if !alive[uid] {
			delete(m.bodies, uid)
		}
	}
}

// GetOrFetchBody returns the cached content for uid, fetching and
// extracting it once on a miss. A fetch abandoned by ctx stores
// nothing, so a later retry starts clean. Unknown UIDs fail without
// calling the fetcher.
func (m *Mailbox) GetOrFetchBody(ctx context.Context, uid uint32, f BodyFetcher) (mail.Content, error) {
	m.mu.Lock()
	if c, ok := m.bodies[uid]; ok {
		m.mu.Unlock()
		return c, nil
	}
	known := false
	for _, s := range m.summaries {
		if s.UID == uid {
			known = true
			break
		}
	}
	m.mu.Unlock()
	if !known {
		return mail.Content{}, ErrUnknownMessage
	}

	raw, err := f.FetchBody(ctx, uid)
	if err != nil {
		return mail.Content{}, err
	}
	if err := ctx.Err(); err != nil {
		return mail.Content{}, err
	}

	c := mail.Extract(raw)
	m.mu.Lock()
	m.bodies[uid] = c
	m.mu.Unlock()
	return c, nil
}

// HasBody reports whether a body for uid is already cached.
func (m *Mailbox) HasBody(uid uint32) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.bodies[uid]
	return ok
}

// MarkRead flips the local read flag for uid and reports whether it
// changed, so the caller knows whether a server-side store is needed.
// Idempotent.
func (m *Mailbox) MarkRead(uid uint32) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.summaries {
		if m.summaries[i].UID == uid {
			if m.summaries[i].Seen {
				return false
			}
			m.summaries[i].Seen = true
			return true
		}
	}
	return false
}

// UnreadCount returns how many listed messages are still unread.
func (m *Mailbox) UnreadCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.summaries {
		if !s.Seen {
			n++
		}
	}
	return n
}
