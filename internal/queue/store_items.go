package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrDuplicate is returned when a video already has an active job.
var ErrDuplicate = errors.New("video already queued")

// NewJob inserts a pending job for the submitted video. A video that already
// has an active job is rejected with ErrDuplicate.
func (s *Store) NewJob(ctx context.Context, sub Submission) (*Item, error) {
	sub.SourceURL = strings.TrimSpace(sub.SourceURL)
	sub.VideoID = strings.TrimSpace(sub.VideoID)
	if sub.SourceURL == "" || sub.VideoID == "" {
		return nil, errors.New("source url and video id are required")
	}

	existing, err := s.FindActiveBySource(ctx, sub.VideoID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, fmt.Errorf("%w: job %d is %s", ErrDuplicate, existing.ID, existing.Status)
	}

	timestamp := time.Now().UTC().Format(timestampLayout)
	res, err := s.exec(
		ctx,
		`INSERT INTO queue_items (
            source_url, video_id, title, description, tags_json, source_language, target_language,
            status, created_at, updated_at, progress_stage, progress_percent, progress_message
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.SourceURL,
		sub.VideoID,
		nullableString(strings.TrimSpace(sub.Title)),
		nullableString(strings.TrimSpace(sub.Description)),
		encodeTags(sub.Tags),
		nullableString(sub.SourceLanguage),
		nullableString(sub.TargetLanguage),
		StatusPending,
		timestamp,
		timestamp,
		"Queued",
		0.0,
		"Waiting for download",
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID fetches a job by identifier. A missing job returns nil without error.
func (s *Store) GetByID(ctx context.Context, id int64) (*Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM queue_items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// FindActiveBySource returns the job for videoID that has not completed or failed.
func (s *Store) FindActiveBySource(ctx context.Context, videoID string) (*Item, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+itemColumns+` FROM queue_items WHERE video_id = ? AND status NOT IN (?, ?) ORDER BY id LIMIT 1`,
		videoID,
		StatusCompleted,
		StatusFailed,
	)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find by video id: %w", err)
	}
	return item, nil
}

// Latest returns the most recently created job, or nil for an empty queue.
func (s *Store) Latest(ctx context.Context) (*Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM queue_items ORDER BY id DESC LIMIT 1`)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest item: %w", err)
	}
	return item, nil
}

// Update persists changes to an existing job.
func (s *Store) Update(ctx context.Context, item *Item) error {
	if item == nil {
		return errors.New("item is nil")
	}
	item.UpdatedAt = time.Now().UTC()
	if err := s.execOnly(
		ctx,
		`UPDATE queue_items
         SET title = ?, description = ?, tags_json = ?, source_language = ?, target_language = ?,
             status = ?, work_dir = ?, source_title = ?, video_file = ?, audio_file = ?,
             original_subtitles = ?, translated_subtitles = ?, bilingual_subtitles = ?,
             upload_url = ?, upload_succeeded = ?, upload_error = ?, error_message = ?, failed_status = ?,
             progress_stage = ?, progress_percent = ?, progress_message = ?,
             updated_at = ?, last_heartbeat = ?
         WHERE id = ?`,
		nullableString(item.Title),
		nullableString(item.Description),
		encodeTags(item.Tags),
		nullableString(item.SourceLanguage),
		nullableString(item.TargetLanguage),
		item.Status,
		nullableString(item.WorkDir),
		nullableString(item.SourceTitle),
		nullableString(item.VideoFile),
		nullableString(item.AudioFile),
		nullableString(item.OriginalSubtitles),
		nullableString(item.TranslatedSubtitles),
		nullableString(item.BilingualSubtitles),
		nullableString(item.UploadURL),
		boolToInt(item.UploadSucceeded),
		nullableString(item.UploadError),
		nullableString(item.ErrorMessage),
		nullableString(string(item.FailedStatus)),
		nullableString(item.ProgressStage),
		item.ProgressPercent,
		nullableString(item.ProgressMessage),
		item.UpdatedAt.Format(timestampLayout),
		nullableTime(item.LastHeartbeat),
		item.ID,
	); err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

// UpdateProgress persists only the progress columns of a job. Stage handlers
// call it from progress callbacks while the full item is owned elsewhere.
func (s *Store) UpdateProgress(ctx context.Context, item *Item) error {
	if item == nil {
		return errors.New("item is nil")
	}
	item.UpdatedAt = time.Now().UTC()
	if err := s.execOnly(
		ctx,
		`UPDATE queue_items SET progress_stage = ?, progress_percent = ?, progress_message = ?, updated_at = ? WHERE id = ?`,
		nullableString(item.ProgressStage),
		item.ProgressPercent,
		nullableString(item.ProgressMessage),
		item.UpdatedAt.Format(timestampLayout),
		item.ID,
	); err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	return nil
}

// ItemsByStatus returns jobs matching a status ordered by creation time.
func (s *Store) ItemsByStatus(ctx context.Context, status Status) ([]*Item, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+itemColumns+` FROM queue_items WHERE status = ? ORDER BY id`, status)
	if err != nil {
		return nil, fmt.Errorf("query by status: %w", err)
	}
	return scanItems(rows)
}

// List returns jobs filtered by status set (or all jobs when no status is provided).
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Item, error) {
	var (
		rows *sql.Rows
		err  error
	)
	baseQuery := `SELECT ` + itemColumns + ` FROM queue_items`
	orderClause := ` ORDER BY id`
	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		query := baseQuery + ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, statusArgs(statuses)...)
	}
	if err != nil {
		return nil, fmt.Errorf("list queue items: %w", err)
	}
	return scanItems(rows)
}

// NextForStatuses returns the oldest job matching any of the provided statuses.
func (s *Store) NextForStatuses(ctx context.Context, statuses ...Status) (*Item, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	query := `SELECT ` + itemColumns + ` FROM queue_items WHERE status IN (` + makePlaceholders(len(statuses)) + `) ORDER BY id LIMIT 1`
	row := s.db.QueryRowContext(ctx, query, statusArgs(statuses)...)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

// ActiveCount returns the number of jobs that have not completed or failed.
func (s *Store) ActiveCount(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM queue_items WHERE status NOT IN (?, ?)`,
		StatusCompleted,
		StatusFailed,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count active items: %w", err)
	}
	return count, nil
}

// Remove deletes jobs by identifier and reports how many rows were removed.
func (s *Store) Remove(ctx context.Context, ids ...int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	res, err := s.exec(ctx, `DELETE FROM queue_items WHERE id IN (`+makePlaceholders(len(ids))+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("delete items: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return affected, nil
}

// ClearCompleted removes only completed jobs from the queue.
func (s *Store) ClearCompleted(ctx context.Context) (int64, error) {
	res, err := s.exec(ctx, `DELETE FROM queue_items WHERE status = ?`, StatusCompleted)
	if err != nil {
		return 0, fmt.Errorf("clear completed: %w", err)
	}
	return res.RowsAffected()
}

// ClearFailed removes only failed jobs from the queue.
func (s *Store) ClearFailed(ctx context.Context) (int64, error) {
	res, err := s.exec(ctx, `DELETE FROM queue_items WHERE status = ?`, StatusFailed)
	if err != nil {
		return 0, fmt.Errorf("clear failed: %w", err)
	}
	return res.RowsAffected()
}

// Clear removes all jobs from the queue.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.exec(ctx, `DELETE FROM queue_items`)
	if err != nil {
		return 0, fmt.Errorf("clear queue: %w", err)
	}
	return res.RowsAffected()
}
