// Package logging builds marquee's slog loggers.
//
// Two formats are supported. The console format puts the component in front
// of the message, request ids right after it, and the diagnostic keys last. The JSON format is
// slog's own with a "ts" key and lowercase levels.
//
// WithContext copies the correlation and user ids from a request context onto
// a logger. WarnWithContext and ErrorWithContext make sure degraded paths
// always carry event_type and error_hint.
package logging
