// Package logger builds configured log/slog loggers with environment-driven
// defaults. It keeps the module's logging uniform without forcing a logging
// dependency on consumers: everything downstream only ever sees
// *slog.Logger.
package logger
