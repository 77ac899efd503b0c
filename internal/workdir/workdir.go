package workdir

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"ytbili/internal/logging"
	"ytbili/internal/queue"
)

const dirPrefix = "job-"

// State classifies a job directory against the queue.
type State string

const (
	StateOrphaned  State = "orphaned"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
	StateActive    State = "active"
)

// Dir describes one job directory.
type Dir struct {
	JobID   int64
	Name    string
	Path    string
	ModTime time.Time
	Size    int64
	State   State
}

// JobLister is the queue view Scan needs.
type JobLister interface {
	List(ctx context.Context, statuses ...queue.Status) ([]*queue.Item, error)
}

// Scan lists job-<id> directories under root, newest first, with their size
// and queue state. Other entries are ignored. A missing root yields nothing.
func Scan(ctx context.Context, root string, jobs JobLister) ([]Dir, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read work dir: %w", err)
	}

	items, err := jobs.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	statuses := make(map[int64]queue.Status, len(items))
	for _, item := range items {
		statuses[item.ID] = item.Status
	}

	var dirs []Dir
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		id, ok := parseJobDir(entry.Name())
		if !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		path := filepath.Join(root, entry.Name())
		dirs = append(dirs, Dir{
			JobID:   id,
			Name:    entry.Name(),
			Path:    path,
			ModTime: info.ModTime(),
			Size:    dirSize(path),
			State:   classify(statuses, id),
		})
	}
	sort.Slice(dirs, func(i, j int) bool { return dirs[i].JobID > dirs[j].JobID })
	return dirs, nil
}

func classify(statuses map[int64]queue.Status, id int64) State {
	status, ok := statuses[id]
	switch {
	case !ok:
		return StateOrphaned
	case status == queue.StatusCompleted:
		return StateCompleted
	case status == queue.StatusFailed:
		return StateFailed
	default:
		return StateActive
	}
}

func parseJobDir(name string) (int64, bool) {
	raw, ok := strings.CutPrefix(name, dirPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// dirSize is best effort; unreadable entries are skipped.
func dirSize(path string) int64 {
	var size int64
	_ = filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			size += info.Size()
		}
		return nil
	})
	return size
}

// CleanOptions selects which directories Clean removes.
type CleanOptions struct {
	// MaxAge keeps directories modified more recently than this.
	MaxAge time.Duration
	// IncludeCompleted also removes directories of completed jobs.
	IncludeCompleted bool
	DryRun           bool
}

// CleanResult lists what was (or with DryRun would be) removed.
type CleanResult struct {
	Removed    []Dir
	FreedBytes int64
	Errors     []CleanupError
}

// CleanupError pairs a directory path with its removal error.
type CleanupError struct {
	Path string
	Err  error
}

// Clean removes orphaned directories, and completed ones when asked, that are
// older than opts.MaxAge.
func Clean(ctx context.Context, root string, jobs JobLister, opts CleanOptions, logger *slog.Logger) (CleanResult, error) {
	dirs, err := Scan(ctx, root, jobs)
	if err != nil {
		return CleanResult{}, err
	}
	cutoff := time.Now().Add(-opts.MaxAge)

	var result CleanResult
	for _, dir := range dirs {
		if !removable(dir, opts.IncludeCompleted) || dir.ModTime.After(cutoff) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if !opts.DryRun {
			if err := os.RemoveAll(dir.Path); err != nil {
				result.Errors = append(result.Errors, CleanupError{Path: dir.Path, Err: err})
				if logger != nil {
					logger.Warn("failed to remove job directory",
						logging.String("path", dir.Path),
						logging.Error(err),
						logging.String(logging.FieldEventType, "workdir_cleanup_failed"),
						logging.String(logging.FieldErrorHint, "check paths.work_dir permissions"),
						logging.String(logging.FieldImpact, "disk space not reclaimed"),
					)
				}
				continue
			}
			if logger != nil {
				logger.Info("removed job directory",
					logging.Int64(logging.FieldItemID, dir.JobID),
					logging.String("state", string(dir.State)),
					logging.Duration("age", time.Since(dir.ModTime)),
					logging.String(logging.FieldEventType, "workdir_cleanup"),
				)
			}
		}
		result.Removed = append(result.Removed, dir)
		result.FreedBytes += dir.Size
	}
	return result, nil
}

func removable(dir Dir, includeCompleted bool) bool {
	switch dir.State {
	case StateOrphaned:
		return true
	case StateCompleted:
		return includeCompleted
	default:
		return false
	}
}
