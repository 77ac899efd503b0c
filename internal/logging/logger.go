package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Options configures New.
type Options struct {
	Level  string
	Format string // console or json
	// OutputPaths receive every record at Level or above. "stdout" and
	// "stderr" name the standard streams; anything else is a file path.
	OutputPaths []string
	// ErrorOutputPaths additionally receive ERROR records. Paths already in
	// OutputPaths are skipped.
	ErrorOutputPaths []string
	Development      bool
}

type handlerFactory func(w io.Writer, level slog.Leveler, addSource bool) slog.Handler

// New builds the logger used by the daemon and the CLI.
func New(opts Options) (*slog.Logger, error) {
	var build handlerFactory
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "", "console":
		build = func(w io.Writer, level slog.Leveler, addSource bool) slog.Handler {
			return newConsoleHandler(w, level, addSource)
		}
	case "json":
		build = newJSONHandler
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}

	level := parseLevel(opts.Level)
	addSource := opts.Development || level <= slog.LevelDebug

	outputs := opts.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stdout"}
	}
	seen := make(map[string]bool)
	out, err := openOutputs(outputs, seen)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = os.Stdout
	}
	handlers := []slog.Handler{build(out, level, addSource)}

	errorOut, err := openOutputs(opts.ErrorOutputPaths, seen)
	if err != nil {
		return nil, err
	}
	if errorOut != nil {
		handlers = append(handlers, build(errorOut, max(level, slog.LevelError), addSource))
	}
	if len(handlers) == 1 {
		return slog.New(handlers[0]), nil
	}
	return slog.New(teeHandler(handlers)), nil
}

// NewJobLogger tees base into a JSON file inside a job directory so a job
// keeps its own log next to its artifacts. The closer releases the file.
func NewJobLogger(base *slog.Logger, path string) (*slog.Logger, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return base, io.NopCloser(nil), fmt.Errorf("create job log dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return base, io.NopCloser(nil), fmt.Errorf("open job log %s: %w", path, err)
	}
	return Tee(base, newJSONHandler(file, slog.LevelInfo, false)), file, nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// openOutputs resolves paths into one writer, skipping names already in seen.
// It returns nil when nothing new was opened.
func openOutputs(paths []string, seen map[string]bool) (io.Writer, error) {
	var writers []io.Writer
	for _, path := range paths {
		path = strings.TrimSpace(path)
		if path == "" || seen[path] {
			continue
		}
		seen[path] = true
		switch path {
		case "stdout":
			writers = append(writers, os.Stdout)
		case "stderr":
			writers = append(writers, os.Stderr)
		default:
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return nil, fmt.Errorf("create log dir for %s: %w", path, err)
			}
			file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o664)
			if err != nil {
				return nil, fmt.Errorf("open log file %s: %w", path, err)
			}
			writers = append(writers, file)
		}
	}
	switch len(writers) {
	case 0:
		return nil, nil
	case 1:
		return writers[0], nil
	}
	return io.MultiWriter(writers...), nil
}
