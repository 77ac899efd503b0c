package api

import (
	"testing"
	"time"

	"ytbili/internal/preflight"
	"ytbili/internal/queue"
	"ytbili/internal/stage"
	"ytbili/internal/workflow"
)

func TestFromQueueItemMapsArtefactsAndStep(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	item := &queue.Item{
		ID:                 4,
		SourceURL:          "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		VideoID:            "dQw4w9WgXcQ",
		SourceTitle:        "Never Gonna Give You Up",
		Tags:               []string{"music"},
		Status:             queue.StatusTranslating,
		ProgressPercent:    50,
		VideoFile:          "/work/job-4/video.mp4",
		BilingualSubtitles: "",
		CreatedAt:          created,
	}
	dto := FromQueueItem(item)
	if dto.Title != "Never Gonna Give You Up" {
		t.Fatalf("Title = %q, want yt-dlp title fallback", dto.Title)
	}
	if dto.ProcessingLane != string(queue.LanePublish) {
		t.Fatalf("ProcessingLane = %q, want %q", dto.ProcessingLane, queue.LanePublish)
	}
	if dto.Step.Index != 3 || dto.Step.Label != "翻译字幕" {
		t.Fatalf("unexpected step: %+v", dto.Step)
	}
	if dto.Step.Progress <= 50 || dto.Step.Progress >= 66.7 {
		t.Fatalf("step progress = %.2f, want within the translation step", dto.Step.Progress)
	}
	if dto.CreatedAt != "2026-03-01T12:00:00.000Z" {
		t.Fatalf("CreatedAt = %q", dto.CreatedAt)
	}
	if dto.UpdatedAt != "" {
		t.Fatalf("expected zero UpdatedAt to be omitted, got %q", dto.UpdatedAt)
	}
	if dto.FailedStatus != "" {
		t.Fatalf("FailedStatus should only be set for failed jobs, got %q", dto.FailedStatus)
	}
	item.Tags[0] = "changed"
	if dto.Tags[0] != "music" {
		t.Fatal("expected tags to be copied")
	}
}

func TestJobStatusFromItem(t *testing.T) {
	tests := []struct {
		name        string
		item        *queue.Item
		processing  bool
		step        int
		progress    float64
		wantResult  bool
		wantSuccess bool
		wantError   string
	}{
		{name: "idle", item: nil},
		{
			name:       "pending",
			item:       &queue.Item{Status: queue.StatusPending},
			processing: true,
		},
		{
			name:       "extracted waits for transcription",
			item:       &queue.Item{Status: queue.StatusExtracted},
			processing: true,
			step:       2,
			progress:   float64(2) / 6 * 100,
		},
		{
			name:        "completed",
			item:        &queue.Item{Status: queue.StatusCompleted, UploadSucceeded: true},
			step:        5,
			progress:    100,
			wantResult:  true,
			wantSuccess: true,
		},
		{
			name: "failed",
			item: &queue.Item{
				Status:       queue.StatusFailed,
				FailedStatus: queue.StatusTranscribed,
				ErrorMessage: "translation failed",
			},
			step:       3,
			progress:   50,
			wantResult: true,
			wantError:  "translation failed",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := JobStatusFromItem(tc.item)
			if got.IsProcessing != tc.processing {
				t.Fatalf("IsProcessing = %v, want %v", got.IsProcessing, tc.processing)
			}
			if got.CurrentStep != tc.step {
				t.Fatalf("CurrentStep = %d, want %d", got.CurrentStep, tc.step)
			}
			if diff := got.Progress - tc.progress; diff > 0.001 || diff < -0.001 {
				t.Fatalf("Progress = %.3f, want %.3f", got.Progress, tc.progress)
			}
			if (got.Result != nil) != tc.wantResult {
				t.Fatalf("Result presence = %v, want %v", got.Result != nil, tc.wantResult)
			}
			if got.Result != nil && got.Result.Success != tc.wantSuccess {
				t.Fatalf("Result.Success = %v, want %v", got.Result.Success, tc.wantSuccess)
			}
			if tc.wantError == "" && got.Error != nil {
				t.Fatalf("unexpected error %q", *got.Error)
			}
			if tc.wantError != "" && (got.Error == nil || *got.Error != tc.wantError) {
				t.Fatalf("Error = %v, want %q", got.Error, tc.wantError)
			}
		})
	}
}

func TestFromStatusSummarySortsHealth(t *testing.T) {
	summary := workflow.StatusSummary{
		Running: true,
		Lanes:   []string{"fetch", "publish"},
		QueueStats: map[queue.Status]int{
			queue.StatusPending: 2,
		},
		StageHealth: map[string]stage.Health{
			"upload":   stage.Unhealthy("upload", "chrome missing"),
			"download": stage.Healthy("download"),
		},
		Preflight: []preflight.Result{{Name: "Work directory", Passed: true}},
		LastItem:  &queue.Item{ID: 9, Status: queue.StatusMerged},
	}
	got := FromStatusSummary(summary)
	if !got.Running || len(got.Lanes) != 2 {
		t.Fatalf("unexpected workflow status: %+v", got)
	}
	if len(got.StageHealth) != 2 || got.StageHealth[0].Name != "download" || got.StageHealth[1].Ready {
		t.Fatalf("unexpected stage health: %+v", got.StageHealth)
	}
	if got.QueueStats["pending"] != 2 {
		t.Fatalf("queue stats = %+v", got.QueueStats)
	}
	if got.LastItem == nil || got.LastItem.ID != 9 {
		t.Fatalf("expected last item 9, got %+v", got.LastItem)
	}
	if len(got.Preflight) != 1 || !got.Preflight[0].Passed {
		t.Fatalf("unexpected preflight: %+v", got.Preflight)
	}
}
