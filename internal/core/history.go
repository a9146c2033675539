package core

import (
	"context"
	"net/url"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"
)

// HistoryStore records load events.
type HistoryStore interface {
	Record(ctx context.Context, ev LoadEvent) error
	Recent(ctx context.Context, limit int) ([]LoadEvent, error)
}

// NewLoadEvent starts an event for a source label.
func NewLoadEvent(source string) LoadEvent {
	return LoadEvent{
		ID:     uuid.New(),
		Source: source,
		At:     time.Now().UTC(),
	}
}

// Finish fills in the outcome of a load.
func (e *LoadEvent) Finish(t Table, err error) {
	e.Duration = time.Since(e.At)
	if err != nil {
		msg := MapError(err)
		e.Error = RedactURLs(err.Error())
		e.Code = msg.Code
		return
	}
	e.Rows = t.Len()
	e.Columns = len(t.Columns)
}

var urlPattern = regexp.MustCompile(`[A-Za-z][A-Za-z0-9+.-]*://[^\s"'<>]+`)

// RedactURLs cuts every URL in s down to scheme, host and path. Query
// strings, fragments and user info can carry access tokens.
func RedactURLs(s string) string {
	return urlPattern.ReplaceAllStringFunc(s, func(raw string) string {
		u, err := url.Parse(raw)
		if err != nil || u.Host == "" {
			return "[url]"
		}
		return u.Scheme + "://" + u.Host + u.Path
	})
}

// MemoryHistory keeps the most recent load events in a ring buffer.
type MemoryHistory struct {
	mu     sync.Mutex
	events []LoadEvent
	next   int
	full   bool
}

// NewMemoryHistory creates a store that keeps up to size events.
func NewMemoryHistory(size int) *MemoryHistory {
	if size <= 0 {
		size = 100
	}
	return &MemoryHistory{events: make([]LoadEvent, size)}
}

// Record stores an event, evicting the oldest when full.
func (h *MemoryHistory) Record(_ context.Context, ev LoadEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.events[h.next] = ev
	h.next = (h.next + 1) % len(h.events)
	if h.next == 0 {
		h.full = true
	}
	return nil
}

// Recent returns up to limit events, newest first.
func (h *MemoryHistory) Recent(_ context.Context, limit int) ([]LoadEvent, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	count := h.next
	if h.full {
		count = len(h.events)
	}
	if limit <= 0 || limit > count {
		limit = count
	}

	out := make([]LoadEvent, 0, limit)
	for i := 0; i < limit; i++ {
		idx := (h.next - 1 - i + len(h.events)) % len(h.events)
		out = append(out, h.events[idx])
	}
	return out, nil
}
