package testutil

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// LogRecord is one captured entry. Attribute keys are flattened with dots
// for groups, so logger.WithGroup("selection").Info(..., "region", r)
// is stored under "selection.region".
type LogRecord struct {
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// Attr returns the attribute value and whether it was present.
func (r LogRecord) Attr(key string) (any, bool) {
	v, ok := r.Attrs[key]
	return v, ok
}

// logSink is shared by every handler derived from the same capture.
type logSink struct {
	mu      sync.Mutex
	records []LogRecord
	t       testing.TB
	done    bool
}

// LogCapture is a slog.Handler that keeps every record in memory.
// Records are echoed to the test log until the test finishes; afterwards
// late writes from background goroutines are still captured but not echoed.
type LogCapture struct {
	sink   *logSink
	prefix string
	attrs  []slog.Attr
}

// NewTestLogger returns a logger backed by a fresh capture.
func NewTestLogger(t testing.TB) (*slog.Logger, *LogCapture) {
	sink := &logSink{t: t}
	t.Cleanup(func() {
		sink.mu.Lock()
		sink.done = true
		sink.mu.Unlock()
	})
	h := &LogCapture{sink: sink}
	return slog.New(h), h
}

func (h *LogCapture) Enabled(context.Context, slog.Level) bool { return true }

func (h *LogCapture) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]any, len(h.attrs)+r.NumAttrs())
	for _, a := range h.attrs {
		flatten(attrs, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		flatten(attrs, h.prefix, a)
		return true
	})

	s := h.sink
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, LogRecord{Level: r.Level, Message: r.Message, Attrs: attrs})
	if !s.done {
		s.t.Logf("[%s] %s %v", r.Level, r.Message, attrs)
	}
	return nil
}

func (h *LogCapture) WithAttrs(as []slog.Attr) slog.Handler {
	next := *h
	next.attrs = make([]slog.Attr, 0, len(h.attrs)+len(as))
	next.attrs = append(next.attrs, h.attrs...)
	for _, a := range as {
		if h.prefix != "" {
			a.Key = h.prefix + a.Key
		}
		next.attrs = append(next.attrs, a)
	}
	return &next
}

func (h *LogCapture) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}

func flatten(dst map[string]any, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Value.Kind() == slog.KindGroup {
		p := prefix
		if a.Key != "" {
			p += a.Key + "."
		}
		for _, g := range a.Value.Group() {
			flatten(dst, p, g)
		}
		return
	}
	dst[prefix+a.Key] = a.Value.Any()
}

// Records returns a copy of everything captured so far.
func (h *LogCapture) Records() []LogRecord {
	h.sink.mu.Lock()
	defer h.sink.mu.Unlock()
	out := make([]LogRecord, len(h.sink.records))
	copy(out, h.sink.records)
	return out
}

// AtLevel returns the records logged at exactly level.
func (h *LogCapture) AtLevel(level slog.Level) []LogRecord {
	var out []LogRecord
	for _, r := range h.Records() {
		if r.Level == level {
			out = append(out, r)
		}
	}
	return out
}

// Find returns the first record whose message contains msg.
func (h *LogCapture) Find(msg string) (LogRecord, bool) {
	for _, r := range h.Records() {
		if strings.Contains(r.Message, msg) {
			return r, true
		}
	}
	return LogRecord{}, false
}

// HasMessage reports whether any record message contains msg.
func (h *LogCapture) HasMessage(msg string) bool {
	_, ok := h.Find(msg)
	return ok
}

func (h *LogCapture) Count() int {
	h.sink.mu.Lock()
	defer h.sink.mu.Unlock()
	return len(h.sink.records)
}

// Reset drops captured records.
func (h *LogCapture) Reset() {
	h.sink.mu.Lock()
	defer h.sink.mu.Unlock()
	h.sink.records = nil
}

// AssertLogContains fails t unless a record at level contains msg.
func AssertLogContains(t testing.TB, h *LogCapture, level slog.Level, msg string) {
	t.Helper()
	records := h.AtLevel(level)
	for _, r := range records {
		if strings.Contains(r.Message, msg) {
			return
		}
	}
	t.Errorf("no %s log containing %q", level, msg)
	for _, r := range records {
		t.Logf("  %s", r.Message)
	}
}

// AssertLogAttr fails t unless some record carries key with value want.
func AssertLogAttr(t testing.TB, h *LogCapture, key string, want any) {
	t.Helper()
	for _, r := range h.Records() {
		if v, ok := r.Attrs[key]; ok && v == want {
			return
		}
	}
	t.Errorf("no log with %s=%v", key, want)
}

// AssertNoErrors fails t if anything was logged at error level.
func AssertNoErrors(t testing.TB, h *LogCapture) {
	t.Helper()
	for _, r := range h.AtLevel(slog.LevelError) {
		t.Errorf("unexpected error log: %s %v", r.Message, r.Attrs)
	}
}
