package api

import (
	"context"

	"ytbili/internal/queue"
)

// QueueReader abstracts the queue persistence calls behind the API queries.
type QueueReader interface {
	List(ctx context.Context, statuses ...queue.Status) ([]*queue.Item, error)
	Stats(ctx context.Context) (map[queue.Status]int, error)
	GetByID(ctx context.Context, id int64) (*queue.Item, error)
	Latest(ctx context.Context) (*queue.Item, error)
}

// QueueStore is a QueueReader that can also retry and remove jobs.
type QueueStore interface {
	QueueReader
	RetryFailed(ctx context.Context, ids ...int64) (int64, error)
	Remove(ctx context.Context, ids ...int64) (int64, error)
}

// QueueService answers queue queries with API DTOs. A nil service, or one
// built without a store, behaves like an empty queue.
type QueueService struct {
	store QueueReader
}

// NewQueueService wraps store. A nil store yields a nil service.
func NewQueueService(store QueueReader) *QueueService {
	if store == nil {
		return nil
	}
	return &QueueService{store: store}
}

func (s *QueueService) ready() bool { return s != nil && s.store != nil }

// List returns jobs in the given statuses, newest first.
func (s *QueueService) List(ctx context.Context, statuses ...queue.Status) ([]QueueItem, error) {
	if !s.ready() {
		return nil, nil
	}
	items, err := s.store.List(ctx, statuses...)
	if err != nil {
		return nil, err
	}
	return SortQueueItemsNewestFirst(FromQueueItems(items)), nil
}

// Stats returns job counts keyed by status name.
func (s *QueueService) Stats(ctx context.Context) (map[string]int, error) {
	if !s.ready() {
		return nil, nil
	}
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return MergeQueueStats(stats), nil
}

// Describe returns job id, or nil without error when it does not exist.
func (s *QueueService) Describe(ctx context.Context, id int64) (*QueueItem, error) {
	item, err := s.lookup(ctx, id)
	if err != nil || item == nil {
		return nil, err
	}
	dto := FromQueueItem(item)
	return &dto, nil
}

// JobStatus reports the flat status of job id, or of the most recent job when
// id is zero, together with the full job when there is one.
func (s *QueueService) JobStatus(ctx context.Context, id int64) (JobStatus, *QueueItem, error) {
	var (
		item *queue.Item
		err  error
	)
	if id > 0 {
		item, err = s.lookup(ctx, id)
	} else if s.ready() {
		item, err = s.store.Latest(ctx)
	}
	if err != nil {
		return JobStatus{}, nil, err
	}
	if item == nil {
		return JobStatusFromItem(nil), nil, nil
	}
	dto := FromQueueItem(item)
	return JobStatusFromItem(item), &dto, nil
}

func (s *QueueService) lookup(ctx context.Context, id int64) (*queue.Item, error) {
	if !s.ready() {
		return nil, nil
	}
	return s.store.GetByID(ctx, id)
}
