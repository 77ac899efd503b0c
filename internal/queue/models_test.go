package queue

import "testing"

func TestStepFor(t *testing.T) {
	tests := []struct {
		name     string
		item     *Item
		index    int
		label    string
		progress float64
	}{
		{"nil", nil, 0, "下载YouTube视频", 0},
		{"pending", &Item{Status: StatusPending}, 0, "下载YouTube视频", 0},
		{"downloading half", &Item{Status: StatusDownloading, ProgressPercent: 60}, 0, "下载YouTube视频", 10},
		{"extracted waits for transcription", &Item{Status: StatusExtracted}, 2, "生成字幕", 100.0 * 2 / 6},
		{"uploading", &Item{Status: StatusUploading, ProgressPercent: 0}, 5, "上传到B站", 100.0 * 5 / 6},
		{"completed", &Item{Status: StatusCompleted}, 5, "上传到B站", 100},
		{"failed during translation", &Item{Status: StatusFailed, FailedStatus: StatusTranscribed, ProgressPercent: 40}, 3, "翻译字幕", 50},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := StepFor(tc.item)
			if got.Index != tc.index || got.Label != tc.label {
				t.Fatalf("StepFor = %+v, want index %d label %q", got, tc.index, tc.label)
			}
			if diff := got.Progress - tc.progress; diff > 0.001 || diff < -0.001 {
				t.Fatalf("progress = %f, want %f", got.Progress, tc.progress)
			}
		})
	}
}

func TestLaneForItem(t *testing.T) {
	tests := []struct {
		item *Item
		want ProcessingLane
	}{
		{nil, LaneFetch},
		{&Item{Status: StatusPending}, LaneFetch},
		{&Item{Status: StatusTranscribing}, LaneFetch},
		{&Item{Status: StatusTranscribed}, LanePublish},
		{&Item{Status: StatusUploading}, LanePublish},
		{&Item{Status: StatusFailed, FailedStatus: StatusDownloaded}, LaneFetch},
		{&Item{Status: StatusFailed, FailedStatus: StatusMerged}, LanePublish},
	}
	for _, tc := range tests {
		if got := LaneForItem(tc.item); got != tc.want {
			t.Fatalf("LaneForItem(%+v) = %s, want %s", tc.item, got, tc.want)
		}
	}
}

func TestRollbackStatusAndParse(t *testing.T) {
	if status, ok := RollbackStatus(StatusMerging); !ok || status != StatusTranslated {
		t.Fatalf("RollbackStatus(merging) = %s %v", status, ok)
	}
	if _, ok := RollbackStatus(StatusPending); ok {
		t.Fatal("pending is not a processing status")
	}
	if status, ok := ParseStatus(" Uploading "); !ok || status != StatusUploading {
		t.Fatalf("ParseStatus = %s %v", status, ok)
	}
	if _, ok := ParseStatus("review"); ok {
		t.Fatal("expected unknown status to be rejected")
	}
}

func TestSetFailedDefaultsResumeToPending(t *testing.T) {
	item := &Item{Status: StatusDownloading}
	item.SetFailed("boom", "")
	if item.Status != StatusFailed || item.FailedStatus != StatusPending {
		t.Fatalf("unexpected failure state %+v", item)
	}
	if item.IsActive() {
		t.Fatal("failed job must not be active")
	}
}
