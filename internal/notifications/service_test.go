package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ytbili/internal/config"
	"ytbili/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.Publish(context.Background(), notifications.EventJobQueued, notifications.Payload{"title": "Example"}); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

type captured struct {
	calls    int
	title    string
	tags     string
	priority string
	body     string
}

func newCaptureServer(t *testing.T) (*httptest.Server, *captured) {
	t.Helper()
	got := &captured{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		body, _ := io.ReadAll(r.Body)
		got.calls++
		got.title = r.Header.Get("Title")
		got.tags = r.Header.Get("Tags")
		got.priority = r.Header.Get("Priority")
		got.body = string(body)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)
	return server, got
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		event          notifications.Event
		payload        notifications.Payload
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name:          "job queued",
			event:         notifications.EventJobQueued,
			payload:       notifications.Payload{"url": "https://youtu.be/dQw4w9WgXcQ"},
			expectTitle:   "ytbili - Job Queued",
			expectMessage: "📥 Queued: https://youtu.be/dQw4w9WgXcQ",
			expectTags:    "ytbili,job,queued",
		},
		{
			name:  "job completed with upload",
			event: notifications.EventJobCompleted,
			payload: notifications.Payload{
				"title":            "Never Gonna Give You Up",
				"upload_succeeded": true,
				"upload_url":       "https://member.bilibili.com/platform/upload-manager/article",
			},
			expectTitle:    "ytbili - Complete",
			expectMessage:  "✅ Published to Bilibili: Never Gonna Give You Up\nhttps://member.bilibili.com/platform/upload-manager/article",
			expectTags:     "ytbili,workflow,completed",
			expectPriority: "high",
		},
		{
			name:           "job completed without upload",
			event:          notifications.EventJobCompleted,
			payload:        notifications.Payload{"title": "Talk"},
			expectTitle:    "ytbili - Complete",
			expectMessage:  "✅ Bilingual subtitles ready: Talk",
			expectTags:     "ytbili,workflow,completed",
			expectPriority: "high",
		},
		{
			name:           "error",
			event:          notifications.EventError,
			payload:        notifications.Payload{"context": "download", "error": errors.New("video unavailable")},
			expectTitle:    "ytbili - Error",
			expectMessage:  "❌ Error with download: video unavailable",
			expectTags:     "ytbili,error,alert",
			expectPriority: "high",
		},
		{
			name:          "queue completed with failures",
			event:         notifications.EventQueueCompleted,
			payload:       notifications.Payload{"processed": 2, "failed": 1, "duration": 90 * time.Second},
			expectTitle:   "ytbili - Queue Complete (with errors)",
			expectMessage: "Queue processing complete: 2 succeeded, 1 failed in 1m30s",
			expectTags:    "ytbili,queue,completed",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server, got := newCaptureServer(t)
			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			svc := notifications.NewService(&cfg)
			if err := svc.Publish(context.Background(), tc.event, tc.payload); err != nil {
				t.Fatalf("Publish returned error: %v", err)
			}
			if got.title != tc.expectTitle {
				t.Fatalf("title = %q, want %q", got.title, tc.expectTitle)
			}
			if got.body != tc.expectMessage {
				t.Fatalf("body = %q, want %q", got.body, tc.expectMessage)
			}
			if got.tags != tc.expectTags {
				t.Fatalf("tags = %q, want %q", got.tags, tc.expectTags)
			}
			if got.priority != tc.expectPriority {
				t.Fatalf("priority = %q, want %q", got.priority, tc.expectPriority)
			}
		})
	}
}

func TestNtfyServiceHonoursEventSwitches(t *testing.T) {
	server, got := newCaptureServer(t)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Queue = false
	svc := notifications.NewService(&cfg)
	if err := svc.Publish(context.Background(), notifications.EventQueueStarted, notifications.Payload{"count": 3}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if got.calls != 0 {
		t.Fatalf("expected disabled event to be dropped, got %d calls", got.calls)
	}
	if err := svc.Publish(context.Background(), notifications.EventTest, nil); err != nil {
		t.Fatalf("Publish test: %v", err)
	}
	if got.calls != 1 || got.priority != "low" {
		t.Fatalf("expected test notification, got %+v", got)
	}
}

func TestNtfyServiceReportsHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic not allowed", http.StatusForbidden)
	}))
	defer server.Close()
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	if err := notifications.NewService(&cfg).Publish(context.Background(), notifications.EventTest, nil); err == nil {
		t.Fatal("expected error for 403 response")
	}
}
