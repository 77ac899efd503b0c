package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a job.
type Status string

const (
	StatusPending      Status = "pending"
	StatusDownloading  Status = "downloading"
	StatusDownloaded   Status = "downloaded"
	StatusExtracting   Status = "extracting"
	StatusExtracted    Status = "extracted"
	StatusTranscribing Status = "transcribing"
	StatusTranscribed  Status = "transcribed"
	StatusTranslating  Status = "translating"
	StatusTranslated   Status = "translated"
	StatusMerging      Status = "merging"
	StatusMerged       Status = "merged"
	StatusUploading    Status = "uploading"
	StatusCompleted    Status = "completed"
	StatusFailed       Status = "failed"
)

// DaemonStopReason is the error message set when jobs are failed due to daemon shutdown.
const DaemonStopReason = "Daemon stopped"

var allStatuses = []Status{
	StatusPending,
	StatusDownloading,
	StatusDownloaded,
	StatusExtracting,
	StatusExtracted,
	StatusTranscribing,
	StatusTranscribed,
	StatusTranslating,
	StatusTranslated,
	StatusMerging,
	StatusMerged,
	StatusUploading,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

type statusTransition struct {
	from Status
	to   Status
}

// processingRollback maps every in-flight status to the status a job returns to
// when its stage is interrupted.
var processingRollback = []statusTransition{
	{from: StatusDownloading, to: StatusPending},
	{from: StatusExtracting, to: StatusDownloaded},
	{from: StatusTranscribing, to: StatusExtracted},
	{from: StatusTranslating, to: StatusTranscribed},
	{from: StatusMerging, to: StatusTranslated},
	{from: StatusUploading, to: StatusMerged},
}

var processingStatuses = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(processingRollback))
	for _, transition := range processingRollback {
		set[transition.from] = struct{}{}
	}
	return set
}()

// DatabaseHealth captures diagnostic information about the queue database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	SchemaVersion    string
	TableExists      bool
	ColumnsPresent   []string
	MissingColumns   []string
	IntegrityCheck   bool
	TotalItems       int
	Error            string
}

// HealthSummary describes aggregated queue counts per key lifecycle states.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Failed     int
	Completed  int
}

// Submission describes a video accepted for processing.
type Submission struct {
	SourceURL      string
	VideoID        string
	Title          string
	Description    string
	Tags           []string
	SourceLanguage string
	TargetLanguage string
}

// Item is one YouTube-to-Bilibili job persisted in SQLite.
type Item struct {
	ID             int64
	SourceURL      string
	VideoID        string
	Title          string
	Description    string
	Tags           []string
	SourceLanguage string
	TargetLanguage string
	Status         Status
	WorkDir        string

	SourceTitle         string
	VideoFile           string
	AudioFile           string
	OriginalSubtitles   string
	TranslatedSubtitles string
	BilingualSubtitles  string

	UploadURL       string
	UploadSucceeded bool
	UploadError     string

	ErrorMessage string
	// FailedStatus is the status a retry resumes from.
	FailedStatus Status

	ProgressStage   string
	ProgressPercent float64
	ProgressMessage string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	LastHeartbeat   *time.Time
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsProcessing returns true when the status reflects an in-flight operation.
func (i Item) IsProcessing() bool {
	return IsProcessingStatus(i.Status)
}

// IsProcessingStatus reports whether a status reflects an in-flight operation.
func IsProcessingStatus(status Status) bool {
	_, ok := processingStatuses[status]
	return ok
}

// IsActive reports whether the job has not yet reached a terminal status.
func (i Item) IsActive() bool {
	return i.Status != StatusCompleted && i.Status != StatusFailed
}

// RollbackStatus returns the status an in-flight status resets to.
func RollbackStatus(status Status) (Status, bool) {
	for _, transition := range processingRollback {
		if transition.from == status {
			return transition.to, true
		}
	}
	return "", false
}

// InitProgress resets progress fields for a new stage.
func (i *Item) InitProgress(stage, message string) {
	i.ProgressStage = stage
	i.ProgressMessage = message
	i.ProgressPercent = 0
	i.ErrorMessage = ""
}

// SetProgress updates all three progress fields atomically.
func (i *Item) SetProgress(stage, message string, percent float64) {
	i.ProgressStage = stage
	i.ProgressMessage = message
	i.ProgressPercent = percent
}

// SetProgressComplete sets progress to 100% with the given stage and message.
func (i *Item) SetProgressComplete(stage, message string) {
	i.SetProgress(stage, message, 100)
}

// SetFailed marks the job as failed. resume is the status a retry restarts
// from; an empty value restarts the job from the beginning.
func (i *Item) SetFailed(message string, resume Status) {
	if resume == "" {
		resume = StatusPending
	}
	i.Status = StatusFailed
	i.FailedStatus = resume
	i.ErrorMessage = message
	i.ProgressPercent = 0
	i.ProgressMessage = message
	i.LastHeartbeat = nil
	i.ProgressStage = "Failed"
}

// DisplayTitle returns the best known title for presentation.
func (i Item) DisplayTitle() string {
	for _, candidate := range []string{i.Title, i.SourceTitle, i.VideoID, i.SourceURL} {
		if trimmed := strings.TrimSpace(candidate); trimmed != "" {
			return trimmed
		}
	}
	return "Unknown"
}

// ProcessingLane partitions the workflow so a new download can start while an
// earlier job is still being published.
type ProcessingLane string

const (
	LaneFetch   ProcessingLane = "fetch"
	LanePublish ProcessingLane = "publish"
)

// LaneForStatus maps a status to its processing lane.
func LaneForStatus(status Status) ProcessingLane {
	switch status {
	case StatusPending, StatusDownloading, StatusDownloaded, StatusExtracting, StatusExtracted, StatusTranscribing:
		return LaneFetch
	default:
		return LanePublish
	}
}

// LaneForItem maps a job to its processing lane for observability purposes.
func LaneForItem(item *Item) ProcessingLane {
	if item == nil {
		return LaneFetch
	}
	if item.Status == StatusFailed && item.FailedStatus != "" {
		return LaneForStatus(item.FailedStatus)
	}
	return LaneForStatus(item.Status)
}
