package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// consoleTimeFormat is the timestamp layout of console lines.
const consoleTimeFormat = "2006-01-02T15:04:05"

// consoleHandler writes one coloured line per record for an operator
// watching a node's terminal:
//
//	2024-03-01T12:00:00 | INFO  | broker connected topics=5
//
// With colored set, fatih/color still drops colours when stdout is not a
// terminal. Without it lines are always plain, as file output must be.
type consoleHandler struct {
	mu      *sync.Mutex
	w       io.Writer
	level   slog.Leveler
	colored bool
	attrs   []slog.Attr
	prefix  string
}

func newConsoleHandler(w io.Writer, opts *slog.HandlerOptions, colored bool) *consoleHandler {
	return &consoleHandler{
		mu:      &sync.Mutex{},
		w:       w,
		level:   opts.Level,
		colored: colored,
	}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder

	b.WriteString(h.paint(color.FgGreen, r.Time.Format(consoleTimeFormat)))
	b.WriteString(" | ")
	b.WriteString(h.levelString(r.Level))
	b.WriteString(" | ")
	b.WriteString(r.Message)

	for _, attr := range h.attrs {
		h.writeAttr(&b, "", attr)
	}
	r.Attrs(func(attr slog.Attr) bool {
		h.writeAttr(&b, h.prefix, attr)
		return true
	})
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	prefixed := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	prefixed = append(prefixed, h.attrs...)
	for _, attr := range attrs {
		attr.Key = h.prefix + attr.Key
		prefixed = append(prefixed, attr)
	}

	clone := *h
	clone.attrs = prefixed
	return &clone
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = h.prefix + name + "."
	return &clone
}

// paint colours s unless the handler writes plain lines.
func (h *consoleHandler) paint(attr color.Attribute, s string) string {
	if !h.colored {
		return s
	}
	return color.New(attr).Sprint(s)
}

// levelString pads and colours a level name.
func (h *consoleHandler) levelString(level slog.Level) string {
	name := fmt.Sprintf("%-5s", level.String())
	switch {
	case level >= slog.LevelError:
		return h.paint(color.FgRed, name)
	case level >= slog.LevelWarn:
		return h.paint(color.FgYellow, name)
	case level >= slog.LevelInfo:
		return h.paint(color.FgBlue, name)
	default:
		return h.paint(color.FgMagenta, name)
	}
}

func (h *consoleHandler) writeAttr(b *strings.Builder, prefix string, attr slog.Attr) {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return
	}

	if attr.Value.Kind() == slog.KindGroup {
		if attr.Key != "" {
			prefix += attr.Key + "."
		}
		for _, member := range attr.Value.Group() {
			h.writeAttr(b, prefix, member)
		}
		return
	}

	b.WriteByte(' ')
	b.WriteString(h.paint(color.FgCyan, prefix+attr.Key+"="))
	b.WriteString(attr.Value.String())
}
