package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"ytbili/internal/logging"
	"ytbili/internal/queue"
	"ytbili/internal/stage"
	"ytbili/internal/stageexec"
)

func (m *Manager) processItem(ctx context.Context, lane *laneState, laneLogger *slog.Logger, item *queue.Item) error {
	step, ok := lane.stepForStatus(item.Status)
	if !ok {
		laneLogger.Warn("no stage configured for status",
			logging.String("status", string(item.Status)),
			logging.String(logging.FieldEventType, "stage_missing"),
			logging.String(logging.FieldErrorHint, "check the stage configuration"),
			logging.String(logging.FieldImpact, "job will not advance"),
		)
		sleepCtx(ctx, m.pollInterval)
		return nil
	}

	stageCtx := withStageContext(ctx, lane, step.Name, item, uuid.NewString())
	stageLogger, closeLog := m.stageLogger(stageCtx, laneLogger, item)
	defer closeLog()
	if aware, ok := step.Handler.(stage.LoggerAware); ok {
		aware.SetLogger(stageLogger)
	}

	stageexec.SetProcessingState(item, step.Processing)
	if err := m.store.Update(stageCtx, item); err != nil {
		wrapped := fmt.Errorf("persist processing transition: %w", err)
		stageLogger.Error("failed to transition job to processing", logging.Error(wrapped))
		m.setLastError(wrapped)
		return wrapped
	}
	m.setLastItem(item)
	m.onItemStarted(stageCtx)

	return m.executeStage(stageCtx, stageLogger, step, item)
}

func (m *Manager) executeStage(ctx context.Context, stageLogger *slog.Logger, step stageexec.Step, item *queue.Item) error {
	stageStart := time.Now()
	stageLogger.Info(
		"stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("processing_status", string(step.Processing)),
		logging.String("title", item.DisplayTitle()),
		logging.String("source_url", strings.TrimSpace(item.SourceURL)),
	)

	if err := step.Handler.Prepare(ctx, item); err != nil {
		m.handleStageFailure(ctx, stageLogger, step, item, time.Since(stageStart), err)
		return err
	}
	if err := m.store.Update(ctx, item); err != nil {
		wrapped := fmt.Errorf("persist stage preparation: %w", err)
		stageLogger.Error("failed to persist stage preparation", logging.Error(wrapped))
		m.setLastError(wrapped)
		return wrapped
	}

	if err := m.executeWithHeartbeat(ctx, step.Handler, item); err != nil {
		if errors.Is(err, context.Canceled) {
			stageLogger.Debug("stage interrupted by shutdown")
			return err
		}
		m.handleStageFailure(ctx, stageLogger, step, item, time.Since(stageStart), err)
		return err
	}

	stageexec.CompleteState(item, step)
	if err := m.store.Update(ctx, item); err != nil {
		wrapped := fmt.Errorf("persist stage result: %w", err)
		stageLogger.Error("failed to persist stage result", logging.Error(wrapped))
		m.setLastError(wrapped)
		return wrapped
	}
	elapsed := time.Since(stageStart)
	stageLogger.Info(
		"stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("next_status", string(item.Status)),
		logging.String("progress_stage", strings.TrimSpace(item.ProgressStage)),
		logging.String("progress_message", strings.TrimSpace(item.ProgressMessage)),
		logging.Duration("stage_duration", elapsed),
	)
	m.observer.StageFinished(ctx, step.Name, item, elapsed, nil)
	m.setLastItem(item)
	m.checkQueueCompletion(ctx)
	return nil
}

func (m *Manager) executeWithHeartbeat(ctx context.Context, handler stage.Handler, item *queue.Item) error {
	stop := m.heartbeat.Beat(ctx, item.ID)
	defer stop()
	return handler.Execute(ctx, item)
}
