// Package logging assembles the slog loggers shared by the ytbili daemon and CLI.
//
// It owns the console and JSON handlers, level and output plumbing, per-job log
// files teed from the daemon logger, log retention, and context-aware helpers
// that tag log lines with job IDs, stages and correlation IDs. NewNop exists for
// tests and wiring code that cannot fail.
package logging
