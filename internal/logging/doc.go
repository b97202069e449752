// Package logging assembles the slog loggers shared by the rating server and
// the CLI.
//
// It owns the console and JSON handlers, level parsing, and output routing,
// and exposes context helpers so HTTP handlers can tag every line with the
// request ID and listener context. A no-op logger is provided for tests and
// wiring code that cannot fail.
package logging
