package workflow

import (
	"context"

	"ytbili/internal/logging"
	"ytbili/internal/preflight"
)

// runPreflightChecks logs external service readiness when the lanes start.
// Failures do not stop the lanes: a missing Bilibili session only matters
// once a job reaches the upload stage, and the fetch lane can still progress.
func (m *Manager) runPreflightChecks(ctx context.Context) {
	results := preflight.RunAll(ctx, m.cfg)
	m.mu.Lock()
	m.preflight = results
	m.mu.Unlock()

	for _, r := range results {
		if r.Passed {
			m.logger.Info("preflight check passed",
				logging.String("check", r.Name),
				logging.String("detail", r.Detail),
				logging.String(logging.FieldEventType, "preflight_passed"),
			)
			continue
		}
		m.logger.Warn("preflight check failed",
			logging.String("check", r.Name),
			logging.String("detail", r.Detail),
			logging.String(logging.FieldEventType, "preflight_failed"),
			logging.String(logging.FieldErrorHint, "fix the reported issue and restart the daemon"),
			logging.String(logging.FieldImpact, "stages depending on this check will fail"),
		)
	}
}
