package queue

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// timestampLayout is RFC3339 with a fixed-width fraction so stored timestamps
// compare correctly as strings.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

const itemColumns = "id, source_url, video_id, title, description, tags_json, source_language, target_language, status, work_dir, source_title, video_file, audio_file, original_subtitles, translated_subtitles, bilingual_subtitles, upload_url, upload_succeeded, upload_error, error_message, failed_status, progress_stage, progress_percent, progress_message, created_at, updated_at, last_heartbeat"

func scanItem(scanner interface{ Scan(dest ...any) error }) (*Item, error) {
	var (
		id                  int64
		sourceURL           string
		videoID             string
		title               sql.NullString
		description         sql.NullString
		tagsJSON            sql.NullString
		sourceLanguage      sql.NullString
		targetLanguage      sql.NullString
		statusStr           string
		workDir             sql.NullString
		sourceTitle         sql.NullString
		videoFile           sql.NullString
		audioFile           sql.NullString
		originalSubtitles   sql.NullString
		translatedSubtitles sql.NullString
		bilingualSubtitles  sql.NullString
		uploadURL           sql.NullString
		uploadSucceeded     sql.NullInt64
		uploadError         sql.NullString
		errorMessage        sql.NullString
		failedStatus        sql.NullString
		progressStage       sql.NullString
		progressPercent     sql.NullFloat64
		progressMessage     sql.NullString
		createdRaw          sql.NullString
		updatedRaw          sql.NullString
		lastHeartbeatRaw    sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&sourceURL,
		&videoID,
		&title,
		&description,
		&tagsJSON,
		&sourceLanguage,
		&targetLanguage,
		&statusStr,
		&workDir,
		&sourceTitle,
		&videoFile,
		&audioFile,
		&originalSubtitles,
		&translatedSubtitles,
		&bilingualSubtitles,
		&uploadURL,
		&uploadSucceeded,
		&uploadError,
		&errorMessage,
		&failedStatus,
		&progressStage,
		&progressPercent,
		&progressMessage,
		&createdRaw,
		&updatedRaw,
		&lastHeartbeatRaw,
	); err != nil {
		return nil, err
	}

	item := &Item{
		ID:                  id,
		SourceURL:           sourceURL,
		VideoID:             videoID,
		Title:               title.String,
		Description:         description.String,
		Tags:                decodeTags(tagsJSON.String),
		SourceLanguage:      sourceLanguage.String,
		TargetLanguage:      targetLanguage.String,
		Status:              Status(statusStr),
		WorkDir:             workDir.String,
		SourceTitle:         sourceTitle.String,
		VideoFile:           videoFile.String,
		AudioFile:           audioFile.String,
		OriginalSubtitles:   originalSubtitles.String,
		TranslatedSubtitles: translatedSubtitles.String,
		BilingualSubtitles:  bilingualSubtitles.String,
		UploadURL:           uploadURL.String,
		UploadSucceeded:     uploadSucceeded.Valid && uploadSucceeded.Int64 != 0,
		UploadError:         uploadError.String,
		ErrorMessage:        errorMessage.String,
		FailedStatus:        Status(failedStatus.String),
		ProgressStage:       progressStage.String,
		ProgressPercent:     progressPercent.Float64,
		ProgressMessage:     progressMessage.String,
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		item.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		item.UpdatedAt = updated
	}
	if lastHeartbeatRaw.Valid {
		if heartbeat, err := parseTimeString(lastHeartbeatRaw.String); err == nil {
			item.LastHeartbeat = &heartbeat
		}
	}
	return item, nil
}

func scanItems(rows *sql.Rows) ([]*Item, error) {
	defer rows.Close()
	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func encodeTags(tags []string) any {
	if len(tags) == 0 {
		return nil
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return nil
	}
	return string(data)
}

func decodeTags(raw string) []string {
	if raw == "" {
		return nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil
	}
	return tags
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(timestampLayout)
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}

func statusArgs(statuses []Status) []any {
	args := make([]any, len(statuses))
	for i, status := range statuses {
		args[i] = status
	}
	return args
}
