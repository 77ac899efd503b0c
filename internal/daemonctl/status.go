package daemonctl

import (
	"context"
	"errors"
	"time"

	"ytbili/internal/api"
	"ytbili/internal/config"
	"ytbili/internal/deps"
	"ytbili/internal/queue"
)

// Snapshot is what `ytbili status` renders. Source is "daemon" when the API
// answered and "local" when the snapshot was read from disk.
type Snapshot struct {
	Running      bool                   `json:"running"`
	Daemon       *api.DaemonStatus      `json:"daemon,omitempty"`
	Job          *api.JobStatus         `json:"job"`
	LatestItem   *api.QueueItem         `json:"latestItem,omitempty"`
	QueueStats   map[string]int         `json:"queueStats"`
	Dependencies []api.DependencyStatus `json:"dependencies"`
	Source       string                 `json:"source"`
}

// BuildStatusSnapshot asks the daemon for its status and falls back to the
// local queue database and binary probes when it is not reachable.
func BuildStatusSnapshot(ctx context.Context, cfg *config.Config, client *Client) (Snapshot, error) {
	if client == nil {
		client = NewClient(cfg)
	}
	resp, err := client.Status(ctx, 0)
	switch {
	case err == nil:
		snapshot := Snapshot{
			Running:    resp.Daemon != nil && resp.Daemon.Running,
			Daemon:     resp.Daemon,
			LatestItem: resp.Job,
			Source:     "daemon",
		}
		status := resp.JobStatus
		snapshot.Job = &status
		if resp.Daemon != nil {
			snapshot.QueueStats = resp.Daemon.Workflow.QueueStats
			snapshot.Dependencies = resp.Daemon.Dependencies
		}
		if len(snapshot.Dependencies) == 0 {
			snapshot.Dependencies = api.FromDependencyStatuses(deps.CheckPipeline(cfg))
		}
		return snapshot, nil
	case errors.Is(err, ErrDaemonNotRunning):
		return localSnapshot(ctx, cfg)
	default:
		return Snapshot{}, err
	}
}

func localSnapshot(ctx context.Context, cfg *config.Config) (Snapshot, error) {
	snapshot := Snapshot{
		Source:       "local",
		Dependencies: api.FromDependencyStatuses(deps.CheckPipeline(cfg)),
	}
	queryCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	store, err := queue.Open(cfg)
	if err != nil {
		return snapshot, err
	}
	defer store.Close()

	stats, err := store.Stats(queryCtx)
	if err != nil {
		return snapshot, err
	}
	snapshot.QueueStats = api.MergeQueueStats(stats)

	svc := api.NewQueueService(store)
	status, item, err := svc.JobStatus(queryCtx, 0)
	if err != nil {
		return snapshot, err
	}
	snapshot.Job = &status
	snapshot.LatestItem = item
	return snapshot, nil
}
