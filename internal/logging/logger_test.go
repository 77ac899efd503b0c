package logging_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ytbili/internal/logging"
	"ytbili/internal/services"
)

func newFileLogger(t *testing.T, format, level string) (func(), string) {
	t.Helper()
	logPath := filepath.Join(t.TempDir(), "ytbilid.log")
	logger, err := logging.New(logging.Options{
		Format:           format,
		Level:            level,
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	ctx := services.WithItemID(context.Background(), 123)
	ctx = services.WithStage(ctx, "translating")
	ctx = services.WithVideoID(ctx, "dQw4w9WgXcQ")
	ctx = services.WithRequestID(ctx, "req-xyz")
	return func() {
		logging.WithContext(ctx, logger).Info("translation batch sent", logging.Int("batch", 2))
		logger.Debug("debug detail")
	}, logPath
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	return string(content)
}

func TestConsoleLoggerOmitsSourceForInfo(t *testing.T) {
	write, path := newFileLogger(t, "console", "info")
	write()
	content := readLog(t, path)
	if strings.Contains(content, ".go:") {
		t.Fatalf("expected no source information in info logs, got %q", content)
	}
	if strings.Contains(content, "debug detail") {
		t.Fatalf("debug line written at info level: %q", content)
	}
	for _, want := range []string{"INFO", "translation batch sent", "item_id=123", "stage=translating", "video_id=dQw4w9WgXcQ", "batch=2"} {
		if !strings.Contains(content, want) {
			t.Fatalf("expected %q in %q", want, content)
		}
	}
}

func TestConsoleLoggerIncludesSourceForDebug(t *testing.T) {
	write, path := newFileLogger(t, "console", "debug")
	write()
	content := readLog(t, path)
	if !strings.Contains(content, ".go:") || !strings.Contains(content, "debug detail") {
		t.Fatalf("expected source information and debug line, got %q", content)
	}
}

func TestJSONLoggerCarriesContextFields(t *testing.T) {
	write, path := newFileLogger(t, "json", "info")
	write()
	line := strings.TrimSpace(readLog(t, path))
	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("decode %q: %v", line, err)
	}
	if entry["msg"] != "translation batch sent" {
		t.Fatalf("msg = %v", entry["msg"])
	}
	if entry[logging.FieldItemID] != float64(123) ||
		entry[logging.FieldStage] != "translating" ||
		entry[logging.FieldVideoID] != "dQw4w9WgXcQ" ||
		entry[logging.FieldCorrelationID] != "req-xyz" {
		t.Fatalf("missing context fields in %v", entry)
	}
}

func TestNewInvalidLevelDefaultsToInfo(t *testing.T) {
	write, path := newFileLogger(t, "console", "invalid")
	write()
	content := readLog(t, path)
	if strings.Contains(content, "debug detail") || !strings.Contains(content, "translation batch sent") {
		t.Fatalf("expected info level, got %q", content)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected unsupported format error")
	}
}

func TestNewJobLoggerTeesIntoJobFile(t *testing.T) {
	basePath := filepath.Join(t.TempDir(), "base.log")
	base, err := logging.New(logging.Options{Format: "console", OutputPaths: []string{basePath}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	jobPath := filepath.Join(t.TempDir(), "job-7", "job.log")
	logger, closer, err := logging.NewJobLogger(base, jobPath)
	if err != nil {
		t.Fatalf("NewJobLogger: %v", err)
	}
	logger.Info("audio extracted", logging.String("file", "audio.wav"))
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if !strings.Contains(readLog(t, basePath), "audio extracted") {
		t.Fatal("expected base logger to receive the line")
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(readLog(t, jobPath))), &entry); err != nil {
		t.Fatalf("job log is not JSON: %v", err)
	}
	if entry["file"] != "audio.wav" {
		t.Fatalf("unexpected job log entry %v", entry)
	}
}
