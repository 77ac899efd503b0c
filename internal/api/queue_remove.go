package api

import (
	"context"

	"ytbili/internal/queue"
)

// QueueRemoveService is the queue access behind per-job removal.
type QueueRemoveService interface {
	Describe(ctx context.Context, id int64) (*QueueItem, error)
	Remove(ctx context.Context, ids []int64) (int64, error)
}

type RemoveItemOutcome string

const (
	RemoveItemRemoved  RemoveItemOutcome = "removed"
	RemoveItemNotFound RemoveItemOutcome = "not_found"

	// RemoveItemBusy marks a job a lane is working on; it stays queued.
	RemoveItemBusy RemoveItemOutcome = "processing"
)

type RemoveItemResult struct {
	ID      int64             `json:"id"`
	Outcome RemoveItemOutcome `json:"outcome"`
}

type RemoveItemsResult struct {
	RemovedCount int64              `json:"removedCount"`
	Items        []RemoveItemResult `json:"items"`
}

// RemoveItemsByID removes jobs one at a time so every id gets its own
// outcome. Jobs in a processing status are reported busy and kept. Job
// directories stay on disk until pruned.
func RemoveItemsByID(ctx context.Context, service QueueRemoveService, ids []int64) (RemoveItemsResult, error) {
	result := RemoveItemsResult{Items: make([]RemoveItemResult, 0, len(ids))}
	for _, id := range ids {
		outcome, err := removeOne(ctx, service, id)
		if err != nil {
			return RemoveItemsResult{}, err
		}
		if outcome == RemoveItemRemoved {
			result.RemovedCount++
		}
		result.Items = append(result.Items, RemoveItemResult{ID: id, Outcome: outcome})
	}
	return result, nil
}

func removeOne(ctx context.Context, service QueueRemoveService, id int64) (RemoveItemOutcome, error) {
	item, err := service.Describe(ctx, id)
	if err != nil {
		return "", err
	}
	if item == nil {
		return RemoveItemNotFound, nil
	}
	if status, ok := queue.ParseStatus(item.Status); ok && queue.IsProcessingStatus(status) {
		return RemoveItemBusy, nil
	}
	removed, err := service.Remove(ctx, []int64{id})
	if err != nil {
		return "", err
	}
	if removed == 0 {
		return RemoveItemNotFound, nil
	}
	return RemoveItemRemoved, nil
}
