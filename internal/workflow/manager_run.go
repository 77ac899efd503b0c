package workflow

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"time"

	"ytbili/internal/logging"
)

// Start launches one goroutine per lane that has stages configured.
func (m *Manager) Start(ctx context.Context) error {
	runCtx, lanes, err := m.begin(ctx)
	if err != nil {
		return err
	}
	m.runPreflightChecks(runCtx)
	for _, lane := range lanes {
		go m.runLane(runCtx, lane)
	}
	return nil
}

func (m *Manager) begin(ctx context.Context) (context.Context, []*laneState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return nil, nil, errors.New("workflow already running")
	}
	var lanes []*laneState
	for _, kind := range m.laneOrder {
		lane := m.lanes[kind]
		if lane == nil || len(lane.statusOrder) == 0 {
			continue
		}
		lane.logger = m.laneLogger(lane)
		lanes = append(lanes, lane)
	}
	if len(lanes) == 0 {
		return nil, nil, errors.New("workflow stages not configured")
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(len(lanes))
	return runCtx, lanes, nil
}

// Stop cancels the lanes and waits for the stage in flight on each to return.
func (m *Manager) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	m.cancel = nil
	m.running = false
	m.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	m.wg.Wait()
}

func (m *Manager) runLane(ctx context.Context, lane *laneState) {
	defer m.wg.Done()
	logger := cmp.Or(lane.logger, m.logger)
	for ctx.Err() == nil {
		m.reclaimStale(ctx, logger, lane)
		idle, err := m.runNext(ctx, lane, logger)
		if errors.Is(err, context.Canceled) {
			return
		}
		if idle > 0 {
			sleepCtx(ctx, idle)
		}
	}
}

// runNext runs one stage for the oldest job waiting on lane. It returns how
// long the lane should idle before looking again.
func (m *Manager) runNext(ctx context.Context, lane *laneState, logger *slog.Logger) (time.Duration, error) {
	item, err := m.store.NextForStatuses(ctx, lane.statusOrder...)
	switch {
	case errors.Is(err, context.Canceled):
		return 0, err
	case err != nil:
		m.setLastError(err)
		logger.Error("fetch next job failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "queue_fetch_failed"),
			logging.String(logging.FieldErrorHint, "check queue database access"),
		)
		return time.Duration(m.cfg.Workflow.ErrorRetryInterval) * time.Second, nil
	case item == nil:
		return m.pollInterval, nil
	}
	return 0, m.processItem(ctx, lane, logger, item)
}

func (m *Manager) reclaimStale(ctx context.Context, logger *slog.Logger, lane *laneState) {
	err := m.heartbeat.ReclaimStaleItems(ctx, logger, lane.processingStatuses)
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	logging.WarnWithContext(logger, "reclaim of stale jobs failed", "heartbeat_reclaim_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check queue database access"),
		logging.String(logging.FieldImpact, "interrupted jobs stay in their processing status"),
	)
}

func sleepCtx(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
