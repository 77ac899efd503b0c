package logs_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ytbili/internal/logs"
)

func writeLog(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
}

func appendLog(path, content string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(content)
	return err
}

func TestLastReturnsTrailingLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ytbilid.log")
	writeLog(t, path, "a\nb\nc\n")

	chunk, err := logs.Last(path, 2, nil)
	if err != nil {
		t.Fatalf("Last: %v", err)
	}
	if len(chunk.Lines) != 2 || chunk.Lines[0] != "b" || chunk.Lines[1] != "c" {
		t.Fatalf("unexpected lines: %#v", chunk.Lines)
	}
	if chunk.Offset != 6 {
		t.Fatalf("offset = %d, want 6", chunk.Offset)
	}

	short, err := logs.Last(path, 10, nil)
	if err != nil || len(short.Lines) != 3 || short.Lines[0] != "a" {
		t.Fatalf("Last(10) = %#v, %v", short.Lines, err)
	}
}

func TestLastMissingFileIsEmpty(t *testing.T) {
	chunk, err := logs.Last(filepath.Join(t.TempDir(), "missing.log"), 5, nil)
	if err != nil || len(chunk.Lines) != 0 || chunk.Offset != 0 {
		t.Fatalf("expected empty chunk, got %+v, %v", chunk, err)
	}
}

func TestLastAppliesItemFilter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ytbilid.log")
	lines := []string{
		"2026-01-01T00:00:00Z INFO stage started item_id=7 stage=download",
		"2026-01-01T00:00:01Z INFO stage started item_id=17 stage=download",
		`{"level":"INFO","msg":"stage completed","item_id":7}`,
		`{"level":"INFO","msg":"stage completed","item_id":71}`,
	}
	writeLog(t, path, strings.Join(lines, "\n")+"\n")

	chunk, err := logs.Last(path, 10, logs.ItemFilter(7))
	if err != nil {
		t.Fatalf("Last: %v", err)
	}
	if len(chunk.Lines) != 2 {
		t.Fatalf("expected two lines for job 7, got %#v", chunk.Lines)
	}
}

func TestFromSkipsPartialLinesAndRestartsAfterTruncate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ytbilid.log")
	writeLog(t, path, "one\ntwo")

	chunk, err := logs.From(path, 0, nil)
	if err != nil {
		t.Fatalf("From: %v", err)
	}
	if len(chunk.Lines) != 1 || chunk.Lines[0] != "one" || chunk.Offset != 4 {
		t.Fatalf("unexpected chunk %+v", chunk)
	}

	writeLog(t, path, "new\n")
	chunk, err = logs.From(path, 100, nil)
	if err != nil {
		t.Fatalf("From after truncate: %v", err)
	}
	if len(chunk.Lines) != 1 || chunk.Lines[0] != "new" {
		t.Fatalf("expected restart from top, got %+v", chunk)
	}
}

func TestFollowEmitsAppendedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ytbilid.log")
	writeLog(t, path, "start\n")
	start, err := logs.Last(path, 1, nil)
	if err != nil {
		t.Fatalf("Last: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	errStop := errors.New("stop")

	go func() {
		time.Sleep(50 * time.Millisecond)
		if err := appendLog(path, "skip me\nlater item_id=3\n"); err != nil {
			t.Errorf("append log: %v", err)
		}
	}()

	var got []string
	err = logs.Follow(ctx, path, start.Offset, 10*time.Millisecond, logs.ItemFilter(3), func(lines []string) error {
		got = append(got, lines...)
		return errStop
	})
	if !errors.Is(err, errStop) {
		t.Fatalf("Follow returned %v", err)
	}
	if len(got) != 1 || got[0] != "later item_id=3" {
		t.Fatalf("unexpected followed lines %#v", got)
	}
}

func TestContainsAndAllFilters(t *testing.T) {
	if logs.ContainsFilter("  ") != nil || logs.All(nil, nil) != nil {
		t.Fatal("expected empty filters to be nil")
	}
	filter := logs.All(logs.ContainsFilter("UPLOAD"), logs.ItemFilter(2))
	if !filter("bilibili upload failed item_id=2") {
		t.Fatal("expected match")
	}
	if filter("bilibili upload failed item_id=3") || filter("download item_id=2") {
		t.Fatal("expected mismatch")
	}
}
