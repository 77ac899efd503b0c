package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ytbili/internal/config"
)

const userAgent = "ytbili/0.1.0"

// Event identifies a workflow milestone worth pushing to the operator.
type Event string

const (
	EventJobQueued      Event = "job_queued"
	EventJobCompleted   Event = "job_completed"
	EventUploadFailed   Event = "upload_failed"
	EventError          Event = "error"
	EventQueueStarted   Event = "queue_started"
	EventQueueCompleted Event = "queue_completed"
	EventTest           Event = "test"
)

// Payload carries event fields. Known keys per event:
//
//	job_queued:      title, url
//	job_completed:   title, upload_url, upload_succeeded
//	upload_failed:   title, error
//	error:           context, error
//	queue_started:   count
//	queue_completed: processed, failed, duration
type Payload map[string]any

// Service publishes workflow events.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		enabled: map[Event]bool{
			EventJobQueued:      cfg.Notifications.Jobs,
			EventJobCompleted:   cfg.Notifications.Jobs,
			EventUploadFailed:   cfg.Notifications.Errors,
			EventError:          cfg.Notifications.Errors,
			EventQueueStarted:   cfg.Notifications.Queue,
			EventQueueCompleted: cfg.Notifications.Queue,
			EventTest:           true,
		},
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	enabled  map[Event]bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	if n == nil || !n.enabled[event] {
		return nil
	}
	msg, ok := format(event, payload)
	if !ok {
		return fmt.Errorf("unknown notification event %q", event)
	}
	return n.send(ctx, msg)
}

func format(event Event, payload Payload) (message, bool) {
	switch event {
	case EventJobQueued:
		return message{
			title: "ytbili - Job Queued",
			body:  fmt.Sprintf("📥 Queued: %s", payload.text("title", payload.text("url", "video"))),
			tags:  []string{"ytbili", "job", "queued"},
		}, true
	case EventJobCompleted:
		title := payload.text("title", "video")
		body := fmt.Sprintf("✅ Bilingual subtitles ready: %s", title)
		if succeeded, _ := payload["upload_succeeded"].(bool); succeeded {
			body = fmt.Sprintf("✅ Published to Bilibili: %s", title)
			if link := payload.text("upload_url", ""); link != "" {
				body += "\n" + link
			}
		}
		return message{
			title:    "ytbili - Complete",
			body:     body,
			tags:     []string{"ytbili", "workflow", "completed"},
			priority: "high",
		}, true
	case EventUploadFailed:
		return message{
			title: "ytbili - Upload Failed",
			body: fmt.Sprintf("⚠️ Bilibili upload failed for %s: %s",
				payload.text("title", "video"), payload.text("error", "unknown error")),
			tags:     []string{"ytbili", "bilibili", "warning"},
			priority: "high",
		}, true
	case EventError:
		var builder strings.Builder
		builder.WriteString("❌ Error")
		if label := payload.text("context", ""); label != "" {
			builder.WriteString(" with ")
			builder.WriteString(label)
		}
		builder.WriteString(": ")
		builder.WriteString(payload.text("error", "unknown"))
		return message{
			title:    "ytbili - Error",
			body:     builder.String(),
			tags:     []string{"ytbili", "error", "alert"},
			priority: "high",
		}, true
	case EventQueueStarted:
		return message{
			title: "ytbili - Queue Started",
			body:  fmt.Sprintf("Started processing queue with %v items", payload["count"]),
			tags:  []string{"ytbili", "queue", "started"},
		}, true
	case EventQueueCompleted:
		return queueCompleted(payload), true
	case EventTest:
		return message{
			title:    "ytbili - Test",
			body:     "🧪 Notification system test",
			tags:     []string{"ytbili", "test"},
			priority: "low",
		}, true
	}
	return message{}, false
}

func queueCompleted(payload Payload) message {
	processed, _ := payload["processed"].(int)
	failed, _ := payload["failed"].(int)
	duration, _ := payload["duration"].(time.Duration)
	duration = max(duration.Round(time.Second), 0)

	msg := message{tags: []string{"ytbili", "queue", "completed"}}
	if failed == 0 {
		msg.title = "ytbili - Queue Complete"
		msg.body = fmt.Sprintf("Queue processing complete: %d items processed in %s", processed, duration)
	} else {
		msg.title = "ytbili - Queue Complete (with errors)"
		msg.body = fmt.Sprintf("Queue processing complete: %d succeeded, %d failed in %s", processed, failed, duration)
	}
	return msg
}

func (p Payload) text(key, fallback string) string {
	if p == nil {
		return fallback
	}
	switch v := p[key].(type) {
	case string:
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	case error:
		if v != nil {
			return strings.TrimSpace(v.Error())
		}
	case fmt.Stringer:
		return v.String()
	}
	return fallback
}

func (n *ntfyService) send(ctx context.Context, msg message) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if msg.title != "" {
		req.Header.Set("Title", msg.title)
	}
	if len(msg.tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.tags, ","))
	}
	if msg.priority != "" && msg.priority != "default" {
		req.Header.Set("Priority", msg.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
