package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// QueueItem describes a job in a transport-friendly format.
type QueueItem struct {
	ID             int64         `json:"id"`
	SourceURL      string        `json:"sourceUrl"`
	VideoID        string        `json:"videoId"`
	Title          string        `json:"title"`
	SourceTitle    string        `json:"sourceTitle,omitempty"`
	Description    string        `json:"description,omitempty"`
	Tags           []string      `json:"tags,omitempty"`
	SourceLanguage string        `json:"sourceLanguage"`
	TargetLanguage string        `json:"targetLanguage"`
	Status         string        `json:"status"`
	ProcessingLane string        `json:"processingLane"`
	Step           QueueStep     `json:"step"`
	Progress       QueueProgress `json:"progress"`
	ErrorMessage   string        `json:"errorMessage,omitempty"`
	FailedStatus   string        `json:"failedStatus,omitempty"`
	CreatedAt      string        `json:"createdAt,omitempty"`
	UpdatedAt      string        `json:"updatedAt,omitempty"`

	WorkDir             string `json:"workDir,omitempty"`
	VideoFile           string `json:"videoFile,omitempty"`
	AudioFile           string `json:"audioFile,omitempty"`
	OriginalSubtitles   string `json:"originalSubtitles,omitempty"`
	TranslatedSubtitles string `json:"translatedSubtitles,omitempty"`
	BilingualSubtitles  string `json:"bilingualSubtitles,omitempty"`

	UploadSucceeded bool   `json:"uploadSucceeded"`
	UploadURL       string `json:"uploadUrl,omitempty"`
	UploadError     string `json:"uploadError,omitempty"`
}

// QueueStep places a job within the six user-facing pipeline steps.
type QueueStep struct {
	Index    int     `json:"index"`
	Label    string  `json:"label"`
	Progress float64 `json:"progress"`
}

// QueueProgress captures stage progress information for a queue entry.
type QueueProgress struct {
	Stage   string  `json:"stage"`
	Percent float64 `json:"percent"`
	Message string  `json:"message"`
}

// JobStatus is the flat status document polled by simple web clients.
type JobStatus struct {
	IsProcessing bool `json:"is_processing"`
	// CurrentStep is the zero-based index into the six pipeline steps.
	CurrentStep int        `json:"current_step"`
	StepLabel   string     `json:"step_label"`
	Progress    float64    `json:"progress"`
	Result      *JobResult `json:"result"`
	Error       *string    `json:"error"`
}

// JobResult reports the artefacts of a finished job.
type JobResult struct {
	Success       bool   `json:"success"`
	VideoPath     string `json:"video_path"`
	AudioPath     string `json:"audio_path"`
	OriginalSRT   string `json:"original_srt"`
	TranslatedSRT string `json:"translated_srt"`
	BilingualSRT  string `json:"bilingual_srt"`
	UploadSuccess bool   `json:"upload_success"`
	UploadURL     string `json:"upload_url,omitempty"`
	Error         string `json:"error,omitempty"`
}

// ProcessRequest is the body accepted by POST /api/process.
type ProcessRequest struct {
	YouTubeURL       string `json:"youtube_url"`
	VideoTitle       string `json:"video_title"`
	VideoDescription string `json:"video_description"`
	// VideoTags is a comma separated list.
	VideoTags      string `json:"video_tags"`
	SourceLanguage string `json:"source_language"`
	TargetLanguage string `json:"target_language"`
}

// ProcessResponse acknowledges an accepted submission.
type ProcessResponse struct {
	Message string    `json:"message"`
	JobID   int64     `json:"job_id"`
	Job     QueueItem `json:"job"`
}

// StatusResponse is served by GET /api/status.
type StatusResponse struct {
	JobStatus
	Job    *QueueItem    `json:"job,omitempty"`
	Daemon *DaemonStatus `json:"daemon,omitempty"`
}

// ErrorResponse is the body of every non-2xx API reply.
type ErrorResponse struct {
	Error string `json:"error"`
	Hint  string `json:"hint,omitempty"`
	JobID int64  `json:"job_id,omitempty"`
}

// WorkflowStatus summarizes workflow execution state.
type WorkflowStatus struct {
	Running     bool              `json:"running"`
	Lanes       []string          `json:"lanes,omitempty"`
	QueueStats  map[string]int    `json:"queueStats"`
	LastError   string            `json:"lastError,omitempty"`
	LastItem    *QueueItem        `json:"lastItem,omitempty"`
	StageHealth []StageHealth     `json:"stageHealth"`
	Preflight   []PreflightResult `json:"preflight,omitempty"`
}

// StageHealth mirrors readiness reporting for workflow stages.
type StageHealth struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// PreflightResult mirrors a startup check.
type PreflightResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// DependencyStatus captures availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Path        string `json:"path,omitempty"`
	Detail      string `json:"detail,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool               `json:"running"`
	PID          int                `json:"pid"`
	Version      string             `json:"version,omitempty"`
	QueueDBPath  string             `json:"queueDbPath"`
	LockFilePath string             `json:"lockFilePath"`
	LogPath      string             `json:"logPath,omitempty"`
	Workflow     WorkflowStatus     `json:"workflow"`
	Dependencies []DependencyStatus `json:"dependencies"`
}

// QueueListResponse wraps a collection of queue items for API responses.
type QueueListResponse struct {
	Items []QueueItem `json:"items"`
}

// QueueItemResponse wraps a single queue item.
type QueueItemResponse struct {
	Item QueueItem `json:"item"`
}

// QueueStatsResponse provides a normalized queue stats payload.
type QueueStatsResponse struct {
	Counts map[string]int `json:"counts"`
}

// ServiceInfo is served at the API root.
type ServiceInfo struct {
	Name      string            `json:"name"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}
