package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"ytbili/internal/api"
	"ytbili/internal/queue"
	"ytbili/internal/testsupport"
)

func seedFailedJob(t *testing.T, store *queue.Store, videoID string, resume queue.Status) *queue.Item {
	t.Helper()
	item := testsupport.NewJob(t, store, videoID)
	item.SetFailed("translation quota exceeded", resume)
	if err := store.Update(context.Background(), item); err != nil {
		t.Fatalf("Update: %v", err)
	}
	return item
}

func TestQueueListStatusAndShow(t *testing.T) {
	env := setupCLITestEnv(t, "")
	testsupport.NewJob(t, env.store, "aaaaaaaaaaa")
	failed := seedFailedJob(t, env.store, "bbbbbbbbbbb", queue.StatusTranscribed)

	out, err := env.run(t, "queue", "list")
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	requireContains(t, out, "aaaaaaaaaaa")
	requireContains(t, out, "bbbbbbbbbbb")
	requireContains(t, out, "Failed")

	out, err = env.run(t, "queue", "list", "--status", "failed", "--json")
	if err != nil {
		t.Fatalf("queue list --json: %v", err)
	}
	var listed api.QueueListResponse
	if err := json.Unmarshal([]byte(out), &listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listed.Items) != 1 || listed.Items[0].ID != failed.ID || listed.Items[0].FailedStatus != "transcribed" {
		t.Fatalf("unexpected filtered list %+v", listed.Items)
	}

	if _, err := env.run(t, "queue", "list", "--status", "bogus"); err == nil {
		t.Fatal("expected unknown status to be rejected")
	}

	out, err = env.run(t, "queue", "status")
	if err != nil {
		t.Fatalf("queue status: %v", err)
	}
	requireContains(t, out, "Pending")
	requireContains(t, out, "Failed")

	out, err = env.run(t, "queue", "show", strconv.FormatInt(failed.ID, 10))
	if err != nil {
		t.Fatalf("queue show: %v", err)
	}
	requireContains(t, out, "translation quota exceeded")
	requireContains(t, out, "Failed at:   Transcribed")

	if _, err := env.run(t, "queue", "show", "999"); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestQueueRetryResumesFailedJob(t *testing.T) {
	env := setupCLITestEnv(t, "")
	pending := testsupport.NewJob(t, env.store, "aaaaaaaaaaa")
	failed := seedFailedJob(t, env.store, "bbbbbbbbbbb", queue.StatusTranscribed)

	out, err := env.run(t, "queue", "retry", strconv.FormatInt(failed.ID, 10), strconv.FormatInt(pending.ID, 10), "77")
	if err != nil {
		t.Fatalf("queue retry: %v", err)
	}
	requireContains(t, out, "will resume at Transcribed")
	requireContains(t, out, "is not failed")
	requireContains(t, out, "Job 77 not found")
	requireContains(t, out, "Retried 1 job(s)")

	item, err := env.store.GetByID(context.Background(), failed.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if item.Status != queue.StatusTranscribed || item.ErrorMessage != "" {
		t.Fatalf("expected job to resume at transcribed, got %s (%q)", item.Status, item.ErrorMessage)
	}
}

func TestQueueRemoveAndClear(t *testing.T) {
	env := setupCLITestEnv(t, "")
	first := testsupport.NewJob(t, env.store, "aaaaaaaaaaa")
	seedFailedJob(t, env.store, "bbbbbbbbbbb", queue.StatusPending)
	testsupport.NewJob(t, env.store, "ccccccccccc")

	out, err := env.run(t, "queue", "remove", strconv.FormatInt(first.ID, 10), "404")
	if err != nil {
		t.Fatalf("queue remove: %v", err)
	}
	requireContains(t, out, "Removed job "+strconv.FormatInt(first.ID, 10))
	requireContains(t, out, "Job 404 not found")

	out, err = env.run(t, "queue", "clear", "--failed")
	if err != nil {
		t.Fatalf("queue clear --failed: %v", err)
	}
	requireContains(t, out, "Cleared 1 failed jobs")

	if _, err := env.run(t, "queue", "clear", "--failed", "--completed"); err == nil {
		t.Fatal("expected conflicting flags to be rejected")
	}

	lock, err := acquireDaemonLock(env.cfg)
	if err != nil {
		t.Fatalf("acquire lock: %v", err)
	}
	if _, err := env.run(t, "queue", "clear"); err == nil || !strings.Contains(err.Error(), "daemon is running") {
		t.Fatalf("expected running daemon to block a full clear, got %v", err)
	}
	if err := lock.Unlock(); err != nil {
		t.Fatalf("unlock: %v", err)
	}

	out, err = env.run(t, "queue", "clear")
	if err != nil {
		t.Fatalf("queue clear: %v", err)
	}
	requireContains(t, out, "Cleared 1 jobs")
}

func TestQueueResetStuck(t *testing.T) {
	env := setupCLITestEnv(t, "")
	item := testsupport.NewJob(t, env.store, "aaaaaaaaaaa")
	item.Status = queue.StatusTranslating
	if err := env.store.Update(context.Background(), item); err != nil {
		t.Fatalf("Update: %v", err)
	}

	out, err := env.run(t, "queue", "reset-stuck")
	if err != nil {
		t.Fatalf("reset-stuck: %v", err)
	}
	requireContains(t, out, "Reset 1 interrupted jobs")

	got, err := env.store.GetByID(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != queue.StatusTranscribed {
		t.Fatalf("expected status transcribed, got %s", got.Status)
	}
}

func TestBuildQueueRows(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	rows := buildQueueListRows([]api.QueueItem{
		{ID: 1, Title: "Old", Status: "completed", Step: api.QueueStep{Label: "上传到B站", Progress: 100}, CreatedAt: now.Add(-3 * time.Hour).Format(time.RFC3339)},
		{ID: 2, Title: "New", Status: "translating", Step: api.QueueStep{Label: "翻译字幕", Progress: 55.4}, CreatedAt: now.Add(-5 * time.Minute).Format(time.RFC3339)},
	}, now)
	if len(rows) != 2 || rows[0][1] != "New" {
		t.Fatalf("expected newest first, got %v", rows)
	}
	if rows[0][4] != "55%" || rows[0][5] != "5m ago" || rows[1][5] != "3h ago" {
		t.Fatalf("unexpected formatting %v", rows)
	}

	status := buildQueueStatusRows(map[string]int{"failed": 1, "pending": 2, "completed": 0})
	if len(status) != 2 || status[0][0] != "Pending" || status[1][0] != "Failed" {
		t.Fatalf("expected pipeline order without zero counts, got %v", status)
	}
}

func TestQueueRemoveReportsBusyJobFromDaemon(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})
	mux.HandleFunc("DELETE /api/queue/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") == "3" {
			w.WriteHeader(http.StatusConflict)
			_ = json.NewEncoder(w).Encode(api.ErrorResponse{Error: "job is being processed"})
			return
		}
		_ = json.NewEncoder(w).Encode(api.RemoveItemsResult{
			RemovedCount: 1,
			Items:        []api.RemoveItemResult{{ID: 4, Outcome: api.RemoveItemRemoved}},
		})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	env := setupCLITestEnv(t, strings.TrimPrefix(server.URL, "http://"))
	out, err := env.run(t, "queue", "remove", "3", "4")
	if err != nil {
		t.Fatalf("queue remove: %v", err)
	}
	requireContains(t, out, "Job 3 is being processed")
	requireContains(t, out, "Removed job 4")
}
