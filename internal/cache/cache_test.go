package cache

import (
	"context"
	"errors"
	"testing"

	"plainmail/internal/mail"
)

// countingFetcher returns a canned raw message and counts calls.
type countingFetcher struct {
	raw   []byte
	err   error
	calls int
}

func (f *countingFetcher) FetchBody(_ context.Context, _ uint32) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.raw, nil
}

func threeSummaries() []mail.MessageSummary {
	return []mail.MessageSummary{
		{UID: 3, From: "c@example.com", Subject: "third"},
		{UID: 2, From: "b@example.com", Subject: "second"},
		{UID: 1, From: "a@example.com", Subject: "first"},
	}
}

func rawMessage() []byte {
	return []byte("From: a@example.com\r\nSubject: first\r\nContent-Type: text/plain\r\n\r\nhello body\r\n")
}

func TestGetOrFetchBodyFetchesOnce(t *testing.T) {
	m := New()
	m.Refresh(threeSummaries())
	f := &countingFetcher{raw: rawMessage()}

	c1, err := m.GetOrFetchBody(context.Background(), 1, f)
	if err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	c2, err := m.GetOrFetchBody(context.Background(), 1, f)
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if f.calls != 1 {
		t.Errorf("fetcher called %d times, want 1", f.calls)
	}
	if c1.Text != c2.Text {
		t.Errorf("cached content differs: %q vs %q", c1.Text, c2.Text)
	}
}

func TestGetOrFetchBodyUnknownUID(t *testing.T) {
	m := New()
	m.Refresh(threeSummaries())
	f := &countingFetcher{raw: rawMessage()}

	_, err := m.GetOrFetchBody(context.Background(), 99, f)
	if !errors.Is(err, ErrUnknownMessage) {
		t.Fatalf("err = %v, want ErrUnknownMessage", err)
	}
	if f.calls != 0 {
		t.Errorf("fetcher called for unknown UID")
	}
	if len(m.Summaries()) != 3 {
		t.Error("unknown UID fabricated a summary")
	}
}

func TestGetOrFetchBodyCancelledStoresNothing(t *testing.T) {
	m := New()
	m.Refresh(threeSummaries())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := &countingFetcher{raw: rawMessage()}

	_, err := m.GetOrFetchBody(ctx, 1, f)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if m.HasBody(1) {
		t.Error("cancelled fetch left a cached body")
	}

	// A retry after cancellation fetches fresh.
	if _, err := m.GetOrFetchBody(context.Background(), 1, f); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if !m.HasBody(1) {
		t.Error("retry did not cache the body")
	}
}

func TestGetOrFetchBodyFetchError(t *testing.T) {
	m := New()
	m.Refresh(threeSummaries())
	f := &countingFetcher{err: errors.New("boom")}

	if _, err := m.GetOrFetchBody(context.Background(), 1, f); err == nil {
		t.Fatal("want error")
	}
	if m.HasBody(1) {
		t.Error("failed fetch left a cached body")
	}
}

func TestRefreshPreservesSeenAndBodies(t *testing.T) {
	m := New()
	m.Refresh(threeSummaries())
	f := &countingFetcher{raw: rawMessage()}
	if _, err := m.GetOrFetchBody(context.Background(), 2, f); err != nil {
		t.Fatal(err)
	}
	m.MarkRead(2)

	// Message 1 vanished, message 4 arrived, server still reports 2
	// as unseen.
	m.Refresh([]mail.MessageSummary{
		{UID: 4, Subject: "fourth"},
		{UID: 3, Subject: "third"},
		{UID: 2, Subject: "second"},
	})

	s, ok := m.Summary(2)
	if !ok || !s.Seen {
		t.Error("local read flag lost across refresh")
	}
	if !m.HasBody(2) {
		t.Error("cached body lost for surviving UID")
	}

	if _, ok := m.Summary(1); ok {
		t.Error("vanished UID still listed")
	}
	if m.HasBody(1) {
		t.Error("body kept for vanished UID")
	}

	if _, ok := m.Summary(4); !ok {
		t.Error("new UID missing after refresh")
	}
}

func TestMarkReadIdempotent(t *testing.T) {
	m := New()
	m.Refresh(threeSummaries())

	if !m.MarkRead(2) {
		t.Error("first MarkRead reported no change")
	}
	if m.MarkRead(2) {
		t.Error("second MarkRead reported a change")
	}
	if m.MarkRead(99) {
		t.Error("MarkRead changed an unknown UID")
	}

	// Only message 2 flipped.
	for _, s := range m.Summaries() {
		want := s.UID == 2
		if s.Seen != want {
			t.Errorf("uid %d Seen = %v, want %v", s.UID, s.Seen, want)
		}
	}
	if m.UnreadCount() != 2 {
		t.Errorf("UnreadCount = %d, want 2", m.UnreadCount())
	}
}
