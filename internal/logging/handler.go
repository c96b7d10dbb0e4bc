package logging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

func newJSONHandler(w io.Writer, level slog.Level, withSource bool) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: withSource,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) > 0 {
				return a
			}
			switch a.Key {
			case slog.TimeKey:
				if a.Value.Kind() == slog.KindTime {
					return slog.String("ts", a.Value.Time().UTC().Format(time.RFC3339))
				}
			case slog.LevelKey:
				return slog.String(slog.LevelKey, strings.ToLower(a.Value.String()))
			case slog.SourceKey:
				if src, ok := a.Value.Any().(*slog.Source); ok && src != nil {
					return slog.String(slog.SourceKey, sourceLabel(src))
				}
			}
			return a
		},
	})
}

// consoleHandler writes one line per record:
//
//	<ts> <LEVEL> <component>: <msg> [file:line] <request fields> <attrs> <diagnostics>
//
// Request fields are correlation_id and user_id; diagnostics are event_type,
// error_hint and impact.
type consoleHandler struct {
	mu         *sync.Mutex
	w          io.Writer
	level      slog.Level
	withSource bool
	group      string
	bound      consoleLine
}

func newConsoleHandler(w io.Writer, level slog.Level, withSource bool) *consoleHandler {
	return &consoleHandler{mu: &sync.Mutex{}, w: w, level: level, withSource: withSource}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *consoleHandler) Handle(_ context.Context, r slog.Record) error {
	line := h.bound.clone()
	r.Attrs(func(a slog.Attr) bool {
		line.add(h.group, a)
		return true
	})

	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	var buf bytes.Buffer
	buf.WriteString(ts.UTC().Format(time.RFC3339))
	buf.WriteByte(' ')
	buf.WriteString(r.Level.String())
	buf.WriteByte(' ')
	if line.component != "" {
		buf.WriteString(line.component)
		buf.WriteString(": ")
	}
	buf.WriteString(strings.TrimSpace(r.Message))
	if h.withSource && r.PC != 0 {
		if src := r.Source(); src != nil {
			buf.WriteString(" [" + sourceLabel(src) + "]")
		}
	}
	for _, section := range [][]slog.Attr{line.request, line.attrs, line.diagnostics} {
		for _, a := range section {
			buf.WriteByte(' ')
			buf.WriteString(a.Key)
			buf.WriteByte('=')
			buf.WriteString(formatValue(a.Value))
		}
	}
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf.Bytes())
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.bound = h.bound.clone()
	for _, a := range attrs {
		next.bound.add(h.group, a)
	}
	return &next
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.group = h.group + name + "."
	return &next
}

type consoleLine struct {
	component   string
	request     []slog.Attr
	attrs       []slog.Attr
	diagnostics []slog.Attr
}

func (l consoleLine) clone() consoleLine {
	l.request = append([]slog.Attr(nil), l.request...)
	l.attrs = append([]slog.Attr(nil), l.attrs...)
	l.diagnostics = append([]slog.Attr(nil), l.diagnostics...)
	return l
}

func (l *consoleLine) add(group string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		if a.Key != "" {
			group += a.Key + "."
		}
		for _, member := range a.Value.Group() {
			l.add(group, member)
		}
		return
	}
	if group != "" {
		a.Key = group + a.Key
	}
	switch a.Key {
	case FieldComponent:
		if l.component == "" {
			l.component = a.Value.String()
		}
	case FieldCorrelationID, FieldUserID:
		l.request = append(l.request, a)
	case FieldEventType, FieldErrorHint, FieldImpact:
		l.diagnostics = append(l.diagnostics, a)
	default:
		l.attrs = append(l.attrs, a)
	}
}

func formatValue(v slog.Value) string {
	var s string
	switch v.Kind() {
	case slog.KindTime:
		s = v.Time().UTC().Format(time.RFC3339)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			s = err.Error()
		} else {
			s = fmt.Sprint(v.Any())
		}
	default:
		s = v.String()
	}
	if s == "" || strings.ContainsAny(s, " =\"\t\n") {
		return strconv.Quote(s)
	}
	return s
}

func sourceLabel(src *slog.Source) string {
	return filepath.Base(src.File) + ":" + strconv.Itoa(src.Line)
}
