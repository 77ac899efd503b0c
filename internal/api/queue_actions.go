package api

import (
	"context"

	"ytbili/internal/queue"
)

// QueueActionService is the queue access behind per-job retries.
type QueueActionService interface {
	Describe(ctx context.Context, id int64) (*QueueItem, error)
	Retry(ctx context.Context, ids []int64) (int64, error)
}

type RetryItemOutcome string

const (
	RetryItemUpdated   RetryItemOutcome = "retried"
	RetryItemNotFound  RetryItemOutcome = "not_found"
	RetryItemNotFailed RetryItemOutcome = "not_failed"
)

type RetryItemResult struct {
	ID      int64            `json:"id"`
	Outcome RetryItemOutcome `json:"outcome"`

	// NewStatus is the status a retried job resumes from.
	NewStatus string `json:"new_status,omitempty"`
}

type RetryItemsResult struct {
	UpdatedCount int64             `json:"updatedCount"`
	Items        []RetryItemResult `json:"items"`
}

// RetryFailedItemsByID retries failed jobs one at a time. Jobs in any other
// status are reported not_failed and left alone.
func RetryFailedItemsByID(ctx context.Context, service QueueActionService, ids []int64) (RetryItemsResult, error) {
	result := RetryItemsResult{Items: make([]RetryItemResult, 0, len(ids))}
	for _, id := range ids {
		entry, err := retryOne(ctx, service, id)
		if err != nil {
			return RetryItemsResult{}, err
		}
		if entry.Outcome == RetryItemUpdated {
			result.UpdatedCount++
		}
		result.Items = append(result.Items, entry)
	}
	return result, nil
}

func retryOne(ctx context.Context, service QueueActionService, id int64) (RetryItemResult, error) {
	entry := RetryItemResult{ID: id, Outcome: RetryItemNotFailed}
	item, err := service.Describe(ctx, id)
	switch {
	case err != nil:
		return RetryItemResult{}, err
	case item == nil:
		entry.Outcome = RetryItemNotFound
		return entry, nil
	case item.Status != string(queue.StatusFailed):
		return entry, nil
	}

	updated, err := service.Retry(ctx, []int64{id})
	if err != nil {
		return RetryItemResult{}, err
	}
	if updated > 0 {
		entry.Outcome = RetryItemUpdated
		entry.NewStatus = item.FailedStatus
		if entry.NewStatus == "" {
			entry.NewStatus = string(queue.StatusPending)
		}
	}
	return entry, nil
}

// StoreActions serves both QueueActionService and QueueRemoveService from a
// single QueueStore.
type StoreActions struct {
	*QueueService
	store QueueStore
}

// NewStoreActions wraps store for RetryFailedItemsByID and RemoveItemsByID.
func NewStoreActions(store QueueStore) *StoreActions {
	return &StoreActions{QueueService: NewQueueService(store), store: store}
}

// Retry resets failed jobs to the status they failed at.
func (a *StoreActions) Retry(ctx context.Context, ids []int64) (int64, error) {
	return a.store.RetryFailed(ctx, ids...)
}

// Remove deletes jobs by id.
func (a *StoreActions) Remove(ctx context.Context, ids []int64) (int64, error) {
	return a.store.Remove(ctx, ids...)
}
