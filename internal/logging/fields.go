package logging

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"marquee/internal/services"
)

// Keys marquee stamps on its log lines. The console handler gives the
// request and diagnostic keys fixed positions on the line.
const (
	FieldComponent     = "component"
	FieldCorrelationID = "correlation_id"
	FieldUserID        = "user_id"
	FieldEventType     = "event_type"
	FieldErrorHint     = "error_hint"
	FieldImpact        = "impact"
)

func String(key, value string) slog.Attr { return slog.String(key, value) }

func Int(key string, value int) slog.Attr { return slog.Int(key, value) }

func Int64(key string, value int64) slog.Attr { return slog.Int64(key, value) }

func Bool(key string, value bool) slog.Attr { return slog.Bool(key, value) }

func Duration(key string, value time.Duration) slog.Attr { return slog.Duration(key, value) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

// NewNop returns a logger that discards everything.
func NewNop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// NewComponentLogger tags logger with a component name. A nil logger yields
// a no-op logger.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(String(FieldComponent, component))
}

// ContextFields returns the correlation and user attributes carried by ctx.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	var fields []slog.Attr
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	if uid, ok := services.UserIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldUserID, uid))
	}
	return fields
}

// WithContext binds the fields from ContextFields to logger.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	args := make([]any, len(fields))
	for i, f := range fields {
		args[i] = f
	}
	return logger.With(args...)
}

// WarnWithContext logs a degraded-but-continuing event. event_type,
// error_hint and impact are filled in when attrs does not carry them.
func WarnWithContext(logger *slog.Logger, msg, eventType string, attrs ...slog.Attr) {
	logEvent(logger, slog.LevelWarn, msg, eventType, attrs, "results may be incomplete")
}

// ErrorWithContext logs a failed operation. Only event_type and error_hint
// are filled in.
func ErrorWithContext(logger *slog.Logger, msg, eventType string, attrs ...slog.Attr) {
	logEvent(logger, slog.LevelError, msg, eventType, attrs, "")
}

func logEvent(logger *slog.Logger, level slog.Level, msg, eventType string, attrs []slog.Attr, impact string) {
	ctx := context.Background()
	if logger == nil || !logger.Enabled(ctx, level) {
		return
	}
	defaults := []slog.Attr{
		slog.String(FieldEventType, eventType),
		slog.String(FieldErrorHint, "see the error attribute"),
	}
	if impact != "" {
		defaults = append(defaults, slog.String(FieldImpact, impact))
	}
	for _, d := range defaults {
		if !hasKey(attrs, d.Key) {
			attrs = append(attrs, d)
		}
	}

	// Skip runtime.Callers, logEvent and the exported wrapper so the source
	// points at the caller.
	var pcs [1]uintptr
	runtime.Callers(3, pcs[:])
	record := slog.NewRecord(time.Now(), level, msg, pcs[0])
	record.AddAttrs(attrs...)
	_ = logger.Handler().Handle(ctx, record)
}

func hasKey(attrs []slog.Attr, key string) bool {
	for _, a := range attrs {
		if a.Key == key {
			return true
		}
	}
	return false
}
