package queue

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"
)

// rollbackCase renders the CASE expression and IN list that move in-flight
// statuses back to the start of their stage. When only is non-empty the IN
// list is limited to those statuses.
func rollbackCase(only ...Status) (string, []any, string, []any) {
	var caseExpr strings.Builder
	caseArgs := make([]any, 0, len(processingRollback)*2)
	inArgs := make([]any, 0, len(processingRollback))
	caseExpr.WriteString("CASE status")
	for _, transition := range processingRollback {
		if len(only) > 0 && !slices.Contains(only, transition.from) {
			continue
		}
		caseExpr.WriteString(" WHEN ? THEN ?")
		caseArgs = append(caseArgs, transition.from, transition.to)
		inArgs = append(inArgs, transition.from)
	}
	caseExpr.WriteString(" ELSE status END")
	return caseExpr.String(), caseArgs, makePlaceholders(len(inArgs)), inArgs
}

// ResetStuckProcessing resets jobs in processing states back to the start of their current stage.
func (s *Store) ResetStuckProcessing(ctx context.Context) (int64, error) {
	caseExpr, caseArgs, inList, inArgs := rollbackCase()
	args := append([]any{}, caseArgs...)
	args = append(args, time.Now().UTC().Format(timestampLayout))
	args = append(args, inArgs...)
	res, err := s.exec(
		ctx,
		`UPDATE queue_items
         SET status = `+caseExpr+`,
             progress_stage = 'Reset from stuck processing',
             progress_percent = 0, progress_message = NULL, last_heartbeat = NULL, updated_at = ?
         WHERE status IN (`+inList+`)`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("reset stuck items: %w", err)
	}
	return res.RowsAffected()
}

// ReclaimStaleProcessing returns jobs stuck in processing back to the start of
// their current stage when heartbeats expire. statuses limits the reclaim to a
// lane's processing statuses; none means every processing status.
func (s *Store) ReclaimStaleProcessing(ctx context.Context, cutoff time.Time, statuses ...Status) (int64, error) {
	caseExpr, caseArgs, inList, inArgs := rollbackCase(statuses...)
	if len(inArgs) == 0 {
		return 0, nil
	}
	args := append([]any{}, caseArgs...)
	args = append(args, time.Now().UTC().Format(timestampLayout))
	args = append(args, inArgs...)
	args = append(args, cutoff.UTC().Format(timestampLayout))
	res, err := s.exec(
		ctx,
		`UPDATE queue_items
        SET status = `+caseExpr+`,
            progress_stage = 'Reclaimed from stale processing',
            progress_percent = 0, progress_message = NULL, last_heartbeat = NULL, updated_at = ?
        WHERE status IN (`+inList+`) AND last_heartbeat IS NOT NULL AND last_heartbeat < ?`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("reclaim stale items: %w", err)
	}
	return res.RowsAffected()
}

// FailActive marks every in-flight job failed with reason, recording the status
// a retry should resume from. The daemon calls it when it stops mid-stage.
func (s *Store) FailActive(ctx context.Context, reason string) (int64, error) {
	caseExpr, caseArgs, inList, inArgs := rollbackCase()
	args := []any{StatusFailed}
	args = append(args, caseArgs...)
	args = append(args, reason, reason, time.Now().UTC().Format(timestampLayout))
	args = append(args, inArgs...)
	res, err := s.exec(
		ctx,
		`UPDATE queue_items
        SET status = ?, failed_status = `+caseExpr+`,
            error_message = ?, progress_stage = 'Failed', progress_percent = 0, progress_message = ?,
            last_heartbeat = NULL, updated_at = ?
        WHERE status IN (`+inList+`)`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("fail active items: %w", err)
	}
	return res.RowsAffected()
}

// UpdateHeartbeat updates the last heartbeat timestamp for an in-flight job.
func (s *Store) UpdateHeartbeat(ctx context.Context, id int64) error {
	now := time.Now().UTC().Format(timestampLayout)
	if err := s.execOnly(
		ctx,
		`UPDATE queue_items SET last_heartbeat = ?, updated_at = ? WHERE id = ?`,
		now,
		now,
		id,
	); err != nil {
		return fmt.Errorf("update heartbeat: %w", err)
	}
	return nil
}

// RetryFailed moves failed jobs back to the status recorded when they failed,
// so work resumes at the stage that broke. With no ids every failed job is retried.
func (s *Store) RetryFailed(ctx context.Context, ids ...int64) (int64, error) {
	query := `UPDATE queue_items
        SET status = COALESCE(failed_status, ?), failed_status = NULL,
            progress_stage = 'Retry requested', progress_percent = 0,
            progress_message = NULL, error_message = NULL, updated_at = ?
        WHERE status = ?`
	args := []any{StatusPending, time.Now().UTC().Format(timestampLayout), StatusFailed}
	if len(ids) > 0 {
		query += ` AND id IN (` + makePlaceholders(len(ids)) + `)`
		for _, id := range ids {
			args = append(args, id)
		}
	}
	res, err := s.exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("retry failed items: %w", err)
	}
	return res.RowsAffected()
}
