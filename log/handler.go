package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// DiscardHandler returns a handler that drops every record.
func DiscardHandler() slog.Handler {
	return &discardHandler{}
}

type discardHandler struct{}

func (h *discardHandler) Enabled(_ context.Context, _ slog.Level) bool   { return false }
func (h *discardHandler) Handle(_ context.Context, _ slog.Record) error  { return nil }
func (h *discardHandler) WithAttrs(_ []slog.Attr) slog.Handler           { return h }
func (h *discardHandler) WithGroup(_ string) slog.Handler                { return h }

// TerminalHandler prints records in a compact single-line format suited
// for terminals, one attribute per key=value pair.
type TerminalHandler struct {
	mu    sync.Mutex
	wr    io.Writer
	lvl   slog.Level
	attrs []slog.Attr
}

// NewTerminalHandlerWithLevel returns a TerminalHandler emitting records
// at or above the given level. The useColor flag is accepted for
// compatibility with callers configuring color terminals; output is
// always plain.
func NewTerminalHandlerWithLevel(wr io.Writer, lvl slog.Level, _ bool) *TerminalHandler {
	return &TerminalHandler{wr: wr, lvl: lvl}
}

func (h *TerminalHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.lvl
}

func (h *TerminalHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	fmt.Fprintf(h.wr, "%s[%s] %s", LevelAlignedString(r.Level), r.Time.Format("01-02|15:04:05.000"), r.Message)
	for _, attr := range h.attrs {
		fmt.Fprintf(h.wr, " %s=%v", attr.Key, attr.Value)
	}
	r.Attrs(func(attr slog.Attr) bool {
		fmt.Fprintf(h.wr, " %s=%v", attr.Key, attr.Value)
		return true
	})
	fmt.Fprintln(h.wr)
	return nil
}

func (h *TerminalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TerminalHandler{
		wr:    h.wr,
		lvl:   h.lvl,
		attrs: append(append([]slog.Attr{}, h.attrs...), attrs...),
	}
}

func (h *TerminalHandler) WithGroup(_ string) slog.Handler {
	return h
}
