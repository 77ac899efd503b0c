package api

import (
	"context"
	"testing"

	"ytbili/internal/queue"
)

func TestRetryFailedItemsByID(t *testing.T) {
	store := &mockQueueStore{items: []*queue.Item{
		{ID: 1, Status: queue.StatusFailed, FailedStatus: queue.StatusTranscribed},
		{ID: 2, Status: queue.StatusDownloading},
	}}
	result, err := RetryFailedItemsByID(context.Background(), NewStoreActions(store), []int64{1, 2, 3})
	if err != nil {
		t.Fatalf("RetryFailedItemsByID: %v", err)
	}
	if result.UpdatedCount != 1 {
		t.Fatalf("UpdatedCount = %d, want 1", result.UpdatedCount)
	}
	want := []RetryItemOutcome{RetryItemUpdated, RetryItemNotFailed, RetryItemNotFound}
	for i, outcome := range want {
		if result.Items[i].Outcome != outcome {
			t.Fatalf("item %d outcome = %s, want %s", i+1, result.Items[i].Outcome, outcome)
		}
	}
	if result.Items[0].NewStatus != string(queue.StatusTranscribed) {
		t.Fatalf("NewStatus = %q, want transcribed", result.Items[0].NewStatus)
	}
	if len(store.retried) != 1 || store.retried[0] != 1 {
		t.Fatalf("unexpected retries: %v", store.retried)
	}
}
