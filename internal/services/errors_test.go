package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"ytbili/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "downloading", "yt-dlp", "download failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"external tool error", "downloading", "yt-dlp", "download failed", "boom"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapNilMarkerDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected placeholder detail, got %q", err.Error())
	}
}

func TestDetails(t *testing.T) {
	cause := context.DeadlineExceeded
	wrapped := services.Wrap(services.ErrTimeout, "transcribing", "whisper", "transcription timed out", cause)
	outer := fmt.Errorf("stage: %w", services.WithHint(wrapped, "use a smaller model"))

	tests := []struct {
		name      string
		err       error
		kind      services.ErrorKind
		operation string
		message   string
		hint      string
	}{
		{
			name:      "wrapped with hint",
			err:       outer,
			kind:      services.KindTimeout,
			operation: "whisper",
			message:   "transcription timed out: context deadline exceeded",
			hint:      "use a smaller model",
		},
		{
			name:    "plain error",
			err:     errors.New("disk full"),
			kind:    services.KindUnknown,
			message: "disk full",
			hint:    "check logs for details",
		},
		{
			name:      "validation without cause",
			err:       services.Wrap(services.ErrValidation, "merging", "align", "cue counts differ", nil),
			kind:      services.KindValidation,
			operation: "align",
			message:   "cue counts differ",
			hint:      "inspect the job artifacts; the input may be unsupported",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			details := services.Details(tc.err)
			if details.Kind != tc.kind {
				t.Fatalf("kind = %q, want %q", details.Kind, tc.kind)
			}
			if details.Operation != tc.operation {
				t.Fatalf("operation = %q, want %q", details.Operation, tc.operation)
			}
			if details.Message != tc.message {
				t.Fatalf("message = %q, want %q", details.Message, tc.message)
			}
			if details.Hint != tc.hint {
				t.Fatalf("hint = %q, want %q", details.Hint, tc.hint)
			}
		})
	}
}

func TestDetailsNil(t *testing.T) {
	if kind := services.Details(nil).Kind; kind != services.KindUnknown {
		t.Fatalf("expected unknown kind for nil error, got %q", kind)
	}
}
