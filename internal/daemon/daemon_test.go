package daemon

import (
	"context"
	"errors"
	"sync"
	"testing"

	"ytbili/internal/config"
	"ytbili/internal/logging"
	"ytbili/internal/metrics"
	"ytbili/internal/notifications"
	"ytbili/internal/queue"
	"ytbili/internal/services"
	"ytbili/internal/stage"
	"ytbili/internal/stageexec"
	"ytbili/internal/testsupport"
	"ytbili/internal/workflow"
)

// blockingStage holds every job in its first stage until the test ends.
type blockingStage struct{}

func (blockingStage) Prepare(context.Context, *queue.Item) error { return nil }
func (blockingStage) Execute(ctx context.Context, _ *queue.Item) error {
	<-ctx.Done()
	return ctx.Err()
}
func (blockingStage) HealthCheck(context.Context) stage.Health { return stage.Healthy("download") }

type recordingNotifier struct {
	mu     sync.Mutex
	events []notifications.Event
}

func (r *recordingNotifier) Publish(_ context.Context, event notifications.Event, _ notifications.Payload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingNotifier) count(event notifications.Event) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e == event {
			n++
		}
	}
	return n
}

type testDaemon struct {
	*Daemon
	cfg      *config.Config
	store    *queue.Store
	notifier *recordingNotifier
	metrics  *metrics.Metrics
}

func newTestDaemon(t *testing.T, mutate func(*config.Config), opts ...testsupport.ConfigOption) *testDaemon {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	cfg.Workflow.QueuePollInterval = 0
	if mutate != nil {
		mutate(cfg)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	store := testsupport.MustOpenStore(t, cfg)
	notifier := &recordingNotifier{}
	mtr := metrics.New(store.Stats)
	mgr := workflow.NewManager(cfg, store, logging.NewNop(),
		workflow.WithNotifier(notifier),
		workflow.WithMetrics(mtr),
	)
	mgr.ConfigureStages(stageexec.StageSet{Downloader: blockingStage{}})

	d, err := New(cfg, store, logging.NewNop(), mgr, WithNotifier(notifier), WithMetrics(mtr), WithVersion("test"))
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { d.Stop() })
	return &testDaemon{Daemon: d, cfg: cfg, store: store, notifier: notifier, metrics: mtr}
}

func TestDaemonStartStop(t *testing.T) {
	td := newTestDaemon(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := td.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	status := td.Status(ctx)
	if !status.Running {
		t.Fatal("expected daemon to report running")
	}
	if status.QueueDBPath != td.store.Path() || status.Version != "test" {
		t.Fatalf("unexpected status: %+v", status)
	}
	if err := td.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	td.Stop()
	if td.Status(ctx).Running {
		t.Fatal("expected daemon to be stopped")
	}
}

func TestDaemonLockPreventsSecondInstance(t *testing.T) {
	first := newTestDaemon(t, nil)
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("first Start: %v", err)
	}

	mgr := workflow.NewManager(first.cfg, first.store, logging.NewNop(), workflow.WithNotifier(first.notifier))
	mgr.ConfigureStages(stageexec.StageSet{Downloader: blockingStage{}})
	second, err := New(first.cfg, first.store, logging.NewNop(), mgr, WithNotifier(first.notifier))
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := second.Start(context.Background()); err == nil {
		second.Stop()
		t.Fatal("expected lock contention to fail the second daemon")
	}
}

func TestSubmitQueuesAndRejectsDuplicates(t *testing.T) {
	td := newTestDaemon(t, nil)
	ctx := context.Background()

	item, err := td.Submit(ctx, SubmitRequest{
		URL:  "https://youtu.be/dQw4w9WgXcQ?si=tracking",
		Tags: ParseTags("music, 80s，pop"),
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if item.SourceURL != "https://www.youtube.com/watch?v=dQw4w9WgXcQ" {
		t.Fatalf("SourceURL = %q, want canonical watch URL", item.SourceURL)
	}
	if item.TargetLanguage != td.cfg.Translation.TargetLanguage {
		t.Fatalf("TargetLanguage = %q, want config default %q", item.TargetLanguage, td.cfg.Translation.TargetLanguage)
	}
	if len(item.Tags) != 3 || item.Tags[2] != "pop" {
		t.Fatalf("unexpected tags %v", item.Tags)
	}
	if td.notifier.count(notifications.EventJobQueued) != 1 {
		t.Fatal("expected job queued notification")
	}

	dup, err := td.Submit(ctx, SubmitRequest{URL: "dQw4w9WgXcQ"})
	if !errors.Is(err, queue.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if dup == nil || dup.ID != item.ID {
		t.Fatalf("expected existing job %d, got %+v", item.ID, dup)
	}
}

func TestSubmitRejectsWhenBusy(t *testing.T) {
	td := newTestDaemon(t, func(cfg *config.Config) { cfg.API.RejectWhenBusy = true })
	ctx := context.Background()
	if _, err := td.Submit(ctx, SubmitRequest{URL: "dQw4w9WgXcQ"}); err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	if _, err := td.Submit(ctx, SubmitRequest{URL: "https://www.youtube.com/watch?v=9bZkp7q19f0"}); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
}

func TestSubmitRejectsInvalidURL(t *testing.T) {
	td := newTestDaemon(t, nil)
	if _, err := td.Submit(context.Background(), SubmitRequest{URL: "https://vimeo.com/12345"}); err == nil {
		t.Fatal("expected invalid URL to be rejected")
	}
}

func TestSubmitRejectsInvalidLanguages(t *testing.T) {
	td := newTestDaemon(t, nil)
	tests := []struct {
		name string
		req  SubmitRequest
	}{
		{"target", SubmitRequest{URL: "dQw4w9WgXcQ", TargetLanguage: "not a language!!"}},
		{"source", SubmitRequest{URL: "dQw4w9WgXcQ", SourceLanguage: "??"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			item, err := td.Submit(context.Background(), tc.req)
			if !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected validation error, got item=%v err=%v", item, err)
			}
		})
	}
	if items, err := td.store.List(context.Background()); err != nil || len(items) != 0 {
		t.Fatalf("rejected submissions must not be queued: %d items, err %v", len(items), err)
	}

	sub, err := BuildSubmission(td.cfg, SubmitRequest{URL: "dQw4w9WgXcQ", SourceLanguage: "english", TargetLanguage: "ja"})
	if err != nil {
		t.Fatalf("BuildSubmission: %v", err)
	}
	if sub.SourceLanguage != "english" || sub.TargetLanguage != "ja" {
		t.Fatalf("unexpected languages %+v", sub)
	}
}

func TestParseTags(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"", 0},
		{" , ,", 0},
		{"a,b", 2},
		{"转载，双语字幕, YouTube", 3},
	}
	for _, tc := range tests {
		if got := ParseTags(tc.raw); len(got) != tc.want {
			t.Fatalf("ParseTags(%q) = %v, want %d tags", tc.raw, got, tc.want)
		}
	}
}
