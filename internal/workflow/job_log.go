package workflow

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"ytbili/internal/config"
	"ytbili/internal/logging"
	"ytbili/internal/queue"
)

// JobLogFileName is the per-job log written next to the job's artifacts.
const JobLogFileName = "job.log"

// JobLogs opens the per-job log files stages write into.
type JobLogs struct {
	cfg *config.Config
}

// NewJobLogs creates a job log opener rooted at the configured work dir.
func NewJobLogs(cfg *config.Config) *JobLogs {
	return &JobLogs{cfg: cfg}
}

// Path returns the log file for item, assigning its work dir when the
// download stage has not done so yet.
func (j *JobLogs) Path(item *queue.Item) (string, error) {
	if item == nil {
		return "", fmt.Errorf("queue item is nil")
	}
	if strings.TrimSpace(item.WorkDir) == "" {
		if j == nil || j.cfg == nil || strings.TrimSpace(j.cfg.Paths.WorkDir) == "" {
			return "", fmt.Errorf("work directory not configured")
		}
		item.WorkDir = j.cfg.JobDir(item.ID)
	}
	return filepath.Join(item.WorkDir, JobLogFileName), nil
}

// Open tees base into the job's log file.
func (j *JobLogs) Open(base *slog.Logger, item *queue.Item) (*slog.Logger, io.Closer, error) {
	path, err := j.Path(item)
	if err != nil {
		return base, nil, err
	}
	logger, closer, err := logging.NewJobLogger(base, path)
	if err != nil {
		return base, nil, err
	}
	return logger.With(logging.Int64(logging.FieldItemID, item.ID)), closer, nil
}
