package api

import (
	"slices"
	"strings"

	"ytbili/internal/deps"
	"ytbili/internal/preflight"
	"ytbili/internal/queue"
	"ytbili/internal/stage"
	"ytbili/internal/workflow"
)

// FromQueueItem converts a queue record to its API representation.
func FromQueueItem(item *queue.Item) QueueItem {
	if item == nil {
		return QueueItem{}
	}

	step := queue.StepFor(item)
	dto := QueueItem{
		ID:             item.ID,
		SourceURL:      item.SourceURL,
		VideoID:        item.VideoID,
		Title:          item.DisplayTitle(),
		SourceTitle:    item.SourceTitle,
		Description:    item.Description,
		Tags:           slices.Clone(item.Tags),
		SourceLanguage: item.SourceLanguage,
		TargetLanguage: item.TargetLanguage,
		Status:         string(item.Status),
		ProcessingLane: string(queue.LaneForItem(item)),
		Step: QueueStep{
			Index:    step.Index,
			Label:    step.Label,
			Progress: step.Progress,
		},
		Progress: QueueProgress{
			Stage:   item.ProgressStage,
			Percent: item.ProgressPercent,
			Message: item.ProgressMessage,
		},
		ErrorMessage:        item.ErrorMessage,
		WorkDir:             item.WorkDir,
		VideoFile:           item.VideoFile,
		AudioFile:           item.AudioFile,
		OriginalSubtitles:   item.OriginalSubtitles,
		TranslatedSubtitles: item.TranslatedSubtitles,
		BilingualSubtitles:  item.BilingualSubtitles,
		UploadSucceeded:     item.UploadSucceeded,
		UploadURL:           item.UploadURL,
		UploadError:         item.UploadError,
	}
	if item.Status == queue.StatusFailed {
		dto.FailedStatus = string(item.FailedStatus)
	}
	if !item.CreatedAt.IsZero() {
		dto.CreatedAt = item.CreatedAt.UTC().Format(dateTimeFormat)
	}
	if !item.UpdatedAt.IsZero() {
		dto.UpdatedAt = item.UpdatedAt.UTC().Format(dateTimeFormat)
	}
	return dto
}

// FromQueueItems converts a slice of queue records into API DTOs.
func FromQueueItems(items []*queue.Item) []QueueItem {
	if len(items) == 0 {
		return nil
	}
	out := make([]QueueItem, 0, len(items))
	for _, item := range items {
		out = append(out, FromQueueItem(item))
	}
	return out
}

// JobStatusFromItem renders item in the flat polling shape. A nil item yields
// the idle document.
func JobStatusFromItem(item *queue.Item) JobStatus {
	if item == nil {
		return JobStatus{StepLabel: queue.PipelineSteps[0].Label}
	}
	step := queue.StepFor(item)
	status := JobStatus{
		IsProcessing: item.IsActive(),
		CurrentStep:  step.Index,
		StepLabel:    step.Label,
		Progress:     step.Progress,
	}
	switch item.Status {
	case queue.StatusCompleted:
		status.Result = jobResult(item, true)
	case queue.StatusFailed:
		status.Result = jobResult(item, false)
		if msg := strings.TrimSpace(item.ErrorMessage); msg != "" {
			status.Error = &msg
		}
	}
	return status
}

func jobResult(item *queue.Item, success bool) *JobResult {
	result := &JobResult{
		Success:       success,
		VideoPath:     item.VideoFile,
		AudioPath:     item.AudioFile,
		OriginalSRT:   item.OriginalSubtitles,
		TranslatedSRT: item.TranslatedSubtitles,
		BilingualSRT:  item.BilingualSubtitles,
		UploadSuccess: item.UploadSucceeded,
		UploadURL:     item.UploadURL,
	}
	if success {
		result.Error = item.UploadError
	} else {
		result.Error = item.ErrorMessage
	}
	return result
}

// FromStatusSummary converts a workflow status summary to API payload.
func FromStatusSummary(summary workflow.StatusSummary) WorkflowStatus {
	wf := WorkflowStatus{
		Running:     summary.Running,
		Lanes:       slices.Clone(summary.Lanes),
		QueueStats:  MergeQueueStats(summary.QueueStats),
		StageHealth: StageHealthSlice(summary.StageHealth),
		Preflight:   FromPreflightResults(summary.Preflight),
		LastError:   summary.LastError,
	}
	if wf.StageHealth == nil {
		wf.StageHealth = []StageHealth{}
	}
	if summary.LastItem != nil {
		last := FromQueueItem(summary.LastItem)
		wf.LastItem = &last
	}
	return wf
}

// MergeQueueStats produces a string-keyed representation of queue stats.
func MergeQueueStats(stats map[queue.Status]int) map[string]int {
	out := make(map[string]int, len(stats))
	for status, count := range stats {
		out[string(status)] = count
	}
	return out
}

// StageHealthSlice converts a stage health map into a deterministic slice.
func StageHealthSlice(health map[string]stage.Health) []StageHealth {
	if len(health) == 0 {
		return nil
	}
	names := make([]string, 0, len(health))
	for name := range health {
		names = append(names, name)
	}
	slices.Sort(names)
	out := make([]StageHealth, 0, len(names))
	for _, name := range names {
		h := health[name]
		out = append(out, StageHealth{Name: name, Ready: h.Ready, Detail: h.Detail})
	}
	return out
}

// FromPreflightResults converts startup check results.
func FromPreflightResults(results []preflight.Result) []PreflightResult {
	if len(results) == 0 {
		return nil
	}
	out := make([]PreflightResult, 0, len(results))
	for _, r := range results {
		out = append(out, PreflightResult{Name: r.Name, Passed: r.Passed, Detail: r.Detail})
	}
	return out
}

// FromDependencyStatuses converts binary availability reports.
func FromDependencyStatuses(statuses []deps.Status) []DependencyStatus {
	out := make([]DependencyStatus, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, DependencyStatus{
			Name:        s.Name,
			Command:     s.Command,
			Description: s.Description,
			Optional:    s.Optional,
			Available:   s.Available,
			Path:        s.Path,
			Detail:      s.Detail,
		})
	}
	return out
}
