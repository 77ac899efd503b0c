package testsupport

import (
	"context"
	"testing"

	"ytbili/internal/config"
	"ytbili/internal/queue"
)

// MustOpenStore opens the queue database under cfg and closes it when the
// test ends.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()
	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("open queue: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// NewJob queues the YouTube watch URL for videoID.
func NewJob(t testing.TB, store *queue.Store, videoID string) *queue.Item {
	t.Helper()
	item, err := store.NewJob(context.Background(), queue.Submission{
		SourceURL: "https://www.youtube.com/watch?v=" + videoID,
		VideoID:   videoID,
	})
	if err != nil {
		t.Fatalf("queue %s: %v", videoID, err)
	}
	return item
}
