package api

import (
	"context"
	"errors"
	"testing"
	"time"

	"ytbili/internal/queue"
)

type mockQueueStore struct {
	items    []*queue.Item
	stats    map[queue.Status]int
	itemErr  error
	statsErr error
	retried  []int64
	removed  []int64
}

func (m *mockQueueStore) List(context.Context, ...queue.Status) ([]*queue.Item, error) {
	return m.items, m.itemErr
}

func (m *mockQueueStore) Stats(context.Context) (map[queue.Status]int, error) {
	return m.stats, m.statsErr
}

func (m *mockQueueStore) GetByID(_ context.Context, id int64) (*queue.Item, error) {
	for _, item := range m.items {
		if item.ID == id {
			return item, m.itemErr
		}
	}
	return nil, m.itemErr
}

func (m *mockQueueStore) Latest(context.Context) (*queue.Item, error) {
	var latest *queue.Item
	for _, item := range m.items {
		if latest == nil || item.ID > latest.ID {
			latest = item
		}
	}
	return latest, m.itemErr
}

func (m *mockQueueStore) RetryFailed(_ context.Context, ids ...int64) (int64, error) {
	var n int64
	for _, id := range ids {
		item, _ := m.GetByID(context.Background(), id)
		if item != nil && item.Status == queue.StatusFailed {
			item.Status = item.FailedStatus
			m.retried = append(m.retried, id)
			n++
		}
	}
	return n, nil
}

func (m *mockQueueStore) Remove(_ context.Context, ids ...int64) (int64, error) {
	var n int64
	for _, id := range ids {
		for i, item := range m.items {
			if item.ID == id {
				m.items = append(m.items[:i], m.items[i+1:]...)
				m.removed = append(m.removed, id)
				n++
				break
			}
		}
	}
	return n, nil
}

func TestQueueServiceListNewestFirst(t *testing.T) {
	now := time.Now().UTC()
	store := &mockQueueStore{
		items: []*queue.Item{
			{ID: 1, VideoID: "aaaaaaaaaaa", Status: queue.StatusCompleted, CreatedAt: now.Add(-time.Hour)},
			{ID: 2, VideoID: "bbbbbbbbbbb", Status: queue.StatusPending, CreatedAt: now},
		},
	}
	got, err := NewQueueService(store).List(context.Background())
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(got) != 2 || got[0].ID != 2 {
		t.Fatalf("expected newest job first, got %+v", got)
	}
	if got[0].CreatedAt == "" {
		t.Fatal("expected timestamps to be formatted")
	}
}

func TestQueueServiceListError(t *testing.T) {
	errSentinel := errors.New("boom")
	_, err := NewQueueService(&mockQueueStore{itemErr: errSentinel}).List(context.Background())
	if !errors.Is(err, errSentinel) {
		t.Fatalf("expected error %v, got %v", errSentinel, err)
	}
}

func TestQueueServiceStats(t *testing.T) {
	svc := NewQueueService(&mockQueueStore{stats: map[queue.Status]int{
		queue.StatusPending: 2,
		queue.StatusFailed:  1,
	}})
	got, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats returned error: %v", err)
	}
	if got["pending"] != 2 || got["failed"] != 1 {
		t.Fatalf("unexpected stats: %+v", got)
	}
}

func TestQueueServiceDescribeMissing(t *testing.T) {
	item, err := NewQueueService(&mockQueueStore{}).Describe(context.Background(), 7)
	if err != nil {
		t.Fatalf("Describe returned error: %v", err)
	}
	if item != nil {
		t.Fatalf("expected nil item, got %+v", item)
	}
}

func TestQueueServiceJobStatus(t *testing.T) {
	store := &mockQueueStore{items: []*queue.Item{
		{ID: 1, Status: queue.StatusCompleted, VideoFile: "/work/job-1/video.mp4"},
		{ID: 2, Status: queue.StatusDownloading},
	}}
	svc := NewQueueService(store)

	latest, job, err := svc.JobStatus(context.Background(), 0)
	if err != nil {
		t.Fatalf("JobStatus: %v", err)
	}
	if job == nil || job.ID != 2 || !latest.IsProcessing {
		t.Fatalf("expected latest job 2 processing, got %+v %+v", latest, job)
	}

	first, job, err := svc.JobStatus(context.Background(), 1)
	if err != nil {
		t.Fatalf("JobStatus(1): %v", err)
	}
	if job == nil || first.Result == nil || first.Result.VideoPath != "/work/job-1/video.mp4" {
		t.Fatalf("unexpected status for job 1: %+v", first)
	}

	idle, job, err := svc.JobStatus(context.Background(), 99)
	if err != nil {
		t.Fatalf("JobStatus(99): %v", err)
	}
	if job != nil || idle.IsProcessing || idle.Result != nil {
		t.Fatalf("expected idle status for unknown job, got %+v", idle)
	}
}

func TestNilQueueService(t *testing.T) {
	var svc *QueueService
	if items, err := svc.List(context.Background()); err != nil || items != nil {
		t.Fatalf("nil service List = %v, %v", items, err)
	}
	if NewQueueService(nil) != nil {
		t.Fatal("expected nil service for nil reader")
	}
}
