package stageexec

import (
	"ytbili/internal/queue"
	"ytbili/internal/stage"
)

// Stage names used in logs, metrics and failure messages.
const (
	StageDownload      = "download"
	StageAudio         = "audio"
	StageTranscription = "transcription"
	StageTranslation   = "translation"
	StageMerge         = "merge"
	StageUpload        = "upload"
)

// StageSet bundles the concrete handlers of the pipeline. A nil handler drops
// its step; the Uploader is nil when Bilibili uploads are disabled.
type StageSet struct {
	Downloader     stage.Handler
	AudioExtractor stage.Handler
	Transcriber    stage.Handler
	Translator     stage.Handler
	Merger         stage.Handler
	Uploader       stage.Handler
}

// Step binds a handler to the statuses that bracket it.
type Step struct {
	Name       string
	Handler    stage.Handler
	Start      queue.Status
	Processing queue.Status
	Done       queue.Status
	Lane       queue.ProcessingLane
}

// Steps chains the configured handlers: the first starts at pending, each
// next one starts at the previous done status and the last ends at completed.
func (s StageSet) Steps() []Step {
	handlers := []struct {
		name    string
		handler stage.Handler
	}{
		{StageDownload, s.Downloader},
		{StageAudio, s.AudioExtractor},
		{StageTranscription, s.Transcriber},
		{StageTranslation, s.Translator},
		{StageMerge, s.Merger},
		{StageUpload, s.Uploader},
	}

	steps := make([]Step, 0, len(handlers))
	start := queue.StatusPending
	for i, h := range handlers {
		if h.handler == nil {
			continue
		}
		canonical := queue.PipelineSteps[i]
		steps = append(steps, Step{
			Name:       h.name,
			Handler:    h.handler,
			Start:      start,
			Processing: canonical.Processing,
			Done:       canonical.Done,
			Lane:       queue.LaneForStatus(canonical.Start),
		})
		start = canonical.Done
	}
	if n := len(steps); n > 0 {
		steps[n-1].Done = queue.StatusCompleted
	}
	return steps
}

// StepFor returns the step that picks up a job in status.
func StepFor(steps []Step, status queue.Status) (Step, bool) {
	for _, step := range steps {
		if step.Start == status {
			return step, true
		}
	}
	return Step{}, false
}
