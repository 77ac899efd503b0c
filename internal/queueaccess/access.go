package queueaccess

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"ytbili/internal/api"
	"ytbili/internal/config"
	"ytbili/internal/daemon"
	"ytbili/internal/daemonctl"
	"ytbili/internal/queue"
)

// Access provides queue operations regardless of daemon API or direct store backing.
type Access interface {
	Stats(ctx context.Context) (map[string]int, error)
	List(ctx context.Context, statuses []string) ([]api.QueueItem, error)
	Describe(ctx context.Context, id int64) (*api.QueueItem, error)
	Submit(ctx context.Context, req daemon.SubmitRequest) (*api.QueueItem, error)
	Retry(ctx context.Context, ids []int64) (api.RetryItemsResult, error)
	Remove(ctx context.Context, ids []int64) (api.RemoveItemsResult, error)
}

// NewAPIAccess returns an Access backed by the daemon HTTP API.
func NewAPIAccess(client *daemonctl.Client) Access {
	return &apiAccess{client: client}
}

// NewStoreAccess returns an Access backed by direct DB access. cfg resolves
// submission defaults the daemon would otherwise apply.
func NewStoreAccess(store *queue.Store, cfg *config.Config) Access {
	return &storeAccess{store: store, cfg: cfg, actions: api.NewStoreActions(store)}
}

type apiAccess struct {
	client *daemonctl.Client
}

func (a *apiAccess) Stats(ctx context.Context) (map[string]int, error) {
	return a.client.QueueStats(ctx)
}

func (a *apiAccess) List(ctx context.Context, statuses []string) ([]api.QueueItem, error) {
	return a.client.Queue(ctx, statuses...)
}

func (a *apiAccess) Describe(ctx context.Context, id int64) (*api.QueueItem, error) {
	item, err := a.client.Item(ctx, id)
	if statusCode(err) == http.StatusNotFound {
		return nil, nil
	}
	return item, err
}

func (a *apiAccess) Submit(ctx context.Context, req daemon.SubmitRequest) (*api.QueueItem, error) {
	resp, err := a.client.Submit(ctx, api.ProcessRequest{
		YouTubeURL:       req.URL,
		VideoTitle:       req.Title,
		VideoDescription: req.Description,
		VideoTags:        strings.Join(req.Tags, ","),
		SourceLanguage:   req.SourceLanguage,
		TargetLanguage:   req.TargetLanguage,
	})
	if err != nil {
		return nil, err
	}
	return &resp.Job, nil
}

func (a *apiAccess) Retry(ctx context.Context, ids []int64) (api.RetryItemsResult, error) {
	result := api.RetryItemsResult{Items: make([]api.RetryItemResult, 0, len(ids))}
	for _, id := range ids {
		resp, err := a.client.Retry(ctx, id)
		switch statusCode(err) {
		case http.StatusNotFound:
			result.Items = append(result.Items, api.RetryItemResult{ID: id, Outcome: api.RetryItemNotFound})
			continue
		case http.StatusConflict:
			result.Items = append(result.Items, api.RetryItemResult{ID: id, Outcome: api.RetryItemNotFailed})
			continue
		}
		if err != nil {
			return api.RetryItemsResult{}, err
		}
		result.UpdatedCount += resp.UpdatedCount
		result.Items = append(result.Items, resp.Items...)
	}
	return result, nil
}

func (a *apiAccess) Remove(ctx context.Context, ids []int64) (api.RemoveItemsResult, error) {
	result := api.RemoveItemsResult{Items: make([]api.RemoveItemResult, 0, len(ids))}
	for _, id := range ids {
		resp, err := a.client.Remove(ctx, id)
		switch statusCode(err) {
		case http.StatusNotFound:
			result.Items = append(result.Items, api.RemoveItemResult{ID: id, Outcome: api.RemoveItemNotFound})
			continue
		case http.StatusConflict:
			result.Items = append(result.Items, api.RemoveItemResult{ID: id, Outcome: api.RemoveItemBusy})
			continue
		}
		if err != nil {
			return api.RemoveItemsResult{}, err
		}
		result.RemovedCount += resp.RemovedCount
		result.Items = append(result.Items, resp.Items...)
	}
	return result, nil
}

type storeAccess struct {
	store   *queue.Store
	cfg     *config.Config
	actions *api.StoreActions
}

func (a *storeAccess) Stats(ctx context.Context) (map[string]int, error) {
	return a.actions.Stats(ctx)
}

func (a *storeAccess) List(ctx context.Context, statuses []string) ([]api.QueueItem, error) {
	var filters []queue.Status
	for _, s := range statuses {
		if parsed, ok := queue.ParseStatus(s); ok {
			filters = append(filters, parsed)
		}
	}
	return a.actions.List(ctx, filters...)
}

func (a *storeAccess) Describe(ctx context.Context, id int64) (*api.QueueItem, error) {
	return a.actions.Describe(ctx, id)
}

// Submit enqueues directly. A duplicate returns the existing job together
// with an error wrapping queue.ErrDuplicate, as the daemon does.
func (a *storeAccess) Submit(ctx context.Context, req daemon.SubmitRequest) (*api.QueueItem, error) {
	sub, err := daemon.BuildSubmission(a.cfg, req)
	if err != nil {
		return nil, err
	}
	item, err := a.store.NewJob(ctx, sub)
	if item == nil {
		return nil, err
	}
	dto := api.FromQueueItem(item)
	return &dto, err
}

func (a *storeAccess) Retry(ctx context.Context, ids []int64) (api.RetryItemsResult, error) {
	return api.RetryFailedItemsByID(ctx, a.actions, ids)
}

func (a *storeAccess) Remove(ctx context.Context, ids []int64) (api.RemoveItemsResult, error) {
	return api.RemoveItemsByID(ctx, a.actions, ids)
}

func statusCode(err error) int {
	var apiErr *daemonctl.APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
