package stage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"ytbili/internal/logging"
	"ytbili/internal/queue"
	"ytbili/internal/services"
)

// RequireFile verifies that an artifact produced by an earlier stage exists and
// is not empty. A missing artifact is a not-found error so the operator knows to
// retry from an earlier stage.
func RequireFile(stageName, label, path string) error {
	if strings.TrimSpace(path) == "" {
		return services.Wrap(services.ErrValidation, stageName, "check "+label,
			fmt.Sprintf("%s path is not recorded on the job", label), nil)
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return services.Wrap(services.ErrNotFound, stageName, "check "+label,
				fmt.Sprintf("%s %q does not exist", label, path), err)
		}
		return services.Wrap(services.ErrTransient, stageName, "check "+label,
			fmt.Sprintf("stat %s", label), err)
	}
	if info.IsDir() {
		return services.Wrap(services.ErrValidation, stageName, "check "+label,
			fmt.Sprintf("%s %q is a directory", label, path), nil)
	}
	if info.Size() == 0 {
		return services.Wrap(services.ErrValidation, stageName, "check "+label,
			fmt.Sprintf("%s %q is empty", label, path), nil)
	}
	return nil
}

// EnsureDir creates a job working directory.
func EnsureDir(stageName, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, stageName, "create job directory",
			fmt.Sprintf("cannot create %q", dir), err)
	}
	return nil
}

// ReportProgress sets progress on item and persists it. Persistence failures
// are logged and otherwise ignored so a progress hiccup never fails a stage.
func ReportProgress(ctx context.Context, store ProgressStore, logger *slog.Logger, item *queue.Item, stageLabel, message string, percent float64) {
	if item == nil {
		return
	}
	item.SetProgress(stageLabel, message, percent)
	if store == nil {
		return
	}
	if err := store.UpdateProgress(ctx, item); err != nil && !errors.Is(err, context.Canceled) {
		logging.WarnWithContext(logger, "progress update failed", "progress_persist_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "status output may lag behind the running stage"),
		)
	}
}
