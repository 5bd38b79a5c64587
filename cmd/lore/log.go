package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

// logEntry is one formatted record kept for the log overlay.
type logEntry struct {
	level slog.Level
	text  string
}

// logBuffer keeps the most recent log entries in a fixed-size ring.
type logBuffer struct {
	mu      sync.Mutex
	entries []logEntry
	next    int
	full    bool
	dropped int
}

func newLogBuffer(size int) *logBuffer {
	return &logBuffer{entries: make([]logEntry, max(1, size))}
}

func (b *logBuffer) add(level slog.Level, text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.full {
		b.dropped++
	}
	b.entries[b.next] = logEntry{level: level, text: text}
	b.next = (b.next + 1) % len(b.entries)
	if b.next == 0 {
		b.full = true
	}
}

// snapshot returns the kept entries, oldest first, and how many older ones
// were overwritten.
func (b *logBuffer) snapshot() ([]logEntry, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.full {
		return slices.Clone(b.entries[:b.next]), 0
	}
	return append(slices.Clone(b.entries[b.next:]), b.entries[:b.next]...), b.dropped
}

// bufferHandler is a slog.Handler writing one line per record to a
// logBuffer.
type bufferHandler struct {
	buf    *logBuffer
	level  slog.Level
	prefix string
}

func newBufferHandler(buf *logBuffer, level slog.Level) *bufferHandler {
	return &bufferHandler{buf: buf, level: level}
}

func (h *bufferHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *bufferHandler) Handle(_ context.Context, r slog.Record) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %-5s %s%s", r.Time.Format(time.TimeOnly), r.Level, r.Message, h.prefix)
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&sb, a)
		return true
	})
	h.buf.add(r.Level, sb.String())
	return nil
}

func writeAttr(sb *strings.Builder, a slog.Attr) {
	v := a.Value.Resolve().String()
	if strings.ContainsAny(v, " \t\n\"") {
		v = strconv.Quote(v)
	}
	fmt.Fprintf(sb, " %s=%s", a.Key, v)
}

func (h *bufferHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	var sb strings.Builder
	sb.WriteString(h.prefix)
	for _, a := range attrs {
		writeAttr(&sb, a)
	}
	next := *h
	next.prefix = sb.String()
	return &next
}

func (h *bufferHandler) WithGroup(string) slog.Handler {
	return h
}

// fanoutHandler sends every record to each handler that accepts its level.
type fanoutHandler []slog.Handler

func (f fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanoutHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (f fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanoutHandler, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanoutHandler) WithGroup(name string) slog.Handler {
	out := make(fanoutHandler, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}

// setupBrowseLogger routes slog away from the terminal while the browser
// owns it: records at level or above go to the ring buffer shown in the log
// overlay and to a log file. The returned func closes the file.
func setupBrowseLogger(buf *logBuffer, level slog.Level, path string) func() {
	handlers := fanoutHandler{newBufferHandler(buf, level)}
	closeFile := func() {}

	if path == "" {
		if dir, err := stateDir(); err == nil {
			path = filepath.Join(dir, "lore.log")
		}
	}
	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err == nil {
			handlers = append(handlers, slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
			closeFile = func() { f.Close() }
		} else {
			buf.add(slog.LevelWarn, "failed to open log file "+path+": "+err.Error())
		}
	}

	slog.SetDefault(slog.New(handlers))
	return closeFile
}
