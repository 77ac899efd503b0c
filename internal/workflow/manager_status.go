package workflow

import (
	"context"

	"ytbili/internal/logging"
	"ytbili/internal/preflight"
	"ytbili/internal/queue"
	"ytbili/internal/stage"
	"ytbili/internal/stageexec"
)

// StatusSummary is what the daemon reports about the pipeline runner.
type StatusSummary struct {
	Running   bool
	LastError string

	// LastItem is a copy of the job most recently touched by a stage.
	LastItem    *queue.Item
	Lanes       []string
	QueueStats  map[queue.Status]int
	StageHealth map[string]stage.Health
	Preflight   []preflight.Result
}

// Status snapshots runner state, then asks the queue and every registered
// stage for their health outside the lock.
func (m *Manager) Status(ctx context.Context) StatusSummary {
	summary, steps := m.snapshot()

	stats, err := m.store.Stats(ctx)
	if err != nil {
		m.logger.Warn("queue stats unavailable",
			logging.Error(err),
			logging.String(logging.FieldEventType, "queue_stats_failed"),
			logging.String(logging.FieldErrorHint, "check queue database access"),
			logging.String(logging.FieldImpact, "status omits queue counts"),
		)
	}
	summary.QueueStats = stats

	summary.StageHealth = make(map[string]stage.Health, len(steps))
	for _, step := range steps {
		summary.StageHealth[step.Name] = step.Handler.HealthCheck(ctx)
	}
	return summary
}

func (m *Manager) snapshot() (StatusSummary, []stageexec.Step) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	summary := StatusSummary{
		Running:   m.running,
		LastItem:  cloneItem(m.lastItem),
		Preflight: append([]preflight.Result(nil), m.preflight...),
	}
	if m.lastErr != nil {
		summary.LastError = m.lastErr.Error()
	}
	var steps []stageexec.Step
	for _, kind := range m.laneOrder {
		if lane := m.lanes[kind]; lane != nil {
			summary.Lanes = append(summary.Lanes, string(kind))
			steps = append(steps, lane.steps...)
		}
	}
	return summary, steps
}

func cloneItem(item *queue.Item) *queue.Item {
	if item == nil {
		return nil
	}
	c := *item
	return &c
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastErr = err
}

func (m *Manager) setLastItem(item *queue.Item) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastItem = cloneItem(item)
}
