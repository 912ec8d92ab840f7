// Package log provides the structured logging facade shared by every
// DreamCanvas process.
//
// # Overview
//
// The package exposes a small Logger interface with leveled methods and a
// typed Field for structured context. Internally it is backed by log/slog via
// a bridge handler that renders entries with our own formatters and outputs.
//
// Quick start
//
//	l := log.NewLogger(
//	    log.WithLevel(log.InfoLevel),
//	    log.WithFormatter(&log.TextFormatter{}),
//	    log.WithOutput(log.NewConsoleOutput()),
//	)
//	l = l.With(log.Component("gateway"))
//	l.Info("listening", log.Str("addr", ":8000"))
//
// # Configuration
//
// ApplyConfig builds a logger from a declarative Config (level, text|json,
// redacted keys). Loggers are passed explicitly; there is no global default.
//
// # Interop
//
// RedirectStdLog routes the standard library logger (used by Pebble and
// net/http internals) through a Logger.
package log
