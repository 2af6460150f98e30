package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// consoleHandler prints one line per record: a colored [TAG] followed by
// the message and key=value attributes. Records carrying an "action" attr
// use the action as the tag, e.g. [MOVE] or [DRY].
type consoleHandler struct {
	mu     *sync.Mutex
	out    io.Writer
	level  slog.Leveler
	attrs  []slog.Attr
	prefix string // group prefix for attr keys
}

func newConsoleHandler(out io.Writer, level slog.Leveler) *consoleHandler {
	return &consoleHandler{mu: &sync.Mutex{}, out: out, level: level}
}

// levelFor maps the -v count: warnings only, then actions, then debug.
func levelFor(verbose int) slog.Level {
	switch {
	case verbose <= 0:
		return slog.LevelWarn
	case verbose == 1:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}

// setColorMode applies always or never to fatih/color. Anything else leaves
// the terminal detection in place; Config.Validate rejects unknown modes.
func setColorMode(mode string) {
	switch mode {
	case "always":
		color.NoColor = false
	case "never":
		color.NoColor = true
	}
}

var (
	levelTags = map[slog.Level]string{
		slog.LevelError: "ERR ",
		slog.LevelWarn:  "WARN",
		slog.LevelInfo:  "INFO",
		slog.LevelDebug: "DBG ",
	}
	levelColors = map[slog.Level]*color.Color{
		slog.LevelError: color.New(color.FgRed),
		slog.LevelWarn:  color.New(color.FgYellow),
		slog.LevelInfo:  color.New(color.FgBlue),
		slog.LevelDebug: color.New(color.FgHiBlack),
	}
	actionColors = map[string]*color.Color{
		"move":     color.New(color.FgGreen),
		"rename":   color.New(color.FgGreen),
		"prune":    color.New(color.FgCyan),
		"displace": color.New(color.FgCyan),
		"dry":      color.New(color.FgHiBlack),
	}
)

func (h *consoleHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, r slog.Record) error {
	tag, c := levelTags[r.Level], levelColors[r.Level]
	if tag == "" {
		tag, c = r.Level.String(), levelColors[slog.LevelInfo]
	}

	var sb strings.Builder
	appendAttr := func(a slog.Attr) bool {
		if a.Key == "action" {
			action := a.Value.String()
			tag = strings.ToUpper(action)
			if ac, ok := actionColors[action]; ok {
				c = ac
			}
			return true
		}
		if a.Equal(slog.Attr{}) {
			return true
		}
		fmt.Fprintf(&sb, " %s=%s", a.Key, quoteValue(a.Value.Resolve()))
		return true
	}
	for _, a := range h.attrs {
		appendAttr(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		if h.prefix != "" {
			a.Key = h.prefix + a.Key
		}
		return appendAttr(a)
	})

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := fmt.Fprintf(h.out, "%s %s%s\n", c.Sprintf("[%s]", tag), r.Message, sb.String())
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h2 := *h
	h2.attrs = slices.Clip(h.attrs)
	for _, a := range attrs {
		a.Key = h.prefix + a.Key
		h2.attrs = append(h2.attrs, a)
	}
	return &h2
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	h2.prefix = h.prefix + name + "."
	return &h2
}

func quoteValue(v slog.Value) string {
	s := v.String()
	if s == "" || strings.ContainsAny(s, " \t\"=") {
		return fmt.Sprintf("%q", s)
	}
	return s
}
