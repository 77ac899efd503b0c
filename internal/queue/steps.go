package queue

// PipelineStep is one of the user-facing steps a job walks through.
type PipelineStep struct {
	Index int
	Label string
	// Start, Processing and Done are the statuses that bracket the step.
	Start      Status
	Processing Status
	Done       Status
}

// PipelineSteps lists the six user-facing steps in order.
var PipelineSteps = []PipelineStep{
	{Index: 0, Label: "下载YouTube视频", Start: StatusPending, Processing: StatusDownloading, Done: StatusDownloaded},
	{Index: 1, Label: "提取音频", Start: StatusDownloaded, Processing: StatusExtracting, Done: StatusExtracted},
	{Index: 2, Label: "生成字幕", Start: StatusExtracted, Processing: StatusTranscribing, Done: StatusTranscribed},
	{Index: 3, Label: "翻译字幕", Start: StatusTranscribed, Processing: StatusTranslating, Done: StatusTranslated},
	{Index: 4, Label: "合并双语字幕", Start: StatusTranslated, Processing: StatusMerging, Done: StatusMerged},
	{Index: 5, Label: "上传到B站", Start: StatusMerged, Processing: StatusUploading, Done: StatusCompleted},
}

// StepPosition describes where a job sits in the pipeline for status displays.
type StepPosition struct {
	Index    int
	Label    string
	Progress float64
}

// StepFor maps a job to its current step and overall progress. Overall progress
// is the completed share of the six steps plus the running step's own percent.
func StepFor(item *Item) StepPosition {
	if item == nil {
		return StepPosition{Label: PipelineSteps[0].Label}
	}
	total := float64(len(PipelineSteps))
	status := item.Status
	if status == StatusFailed {
		status = item.FailedStatus
	}
	if status == StatusCompleted {
		last := PipelineSteps[len(PipelineSteps)-1]
		return StepPosition{Index: last.Index, Label: last.Label, Progress: 100}
	}
	for _, step := range PipelineSteps {
		switch status {
		case step.Start:
			return StepPosition{Index: step.Index, Label: step.Label, Progress: float64(step.Index) / total * 100}
		case step.Processing:
			base := float64(step.Index) / total * 100
			share := clampPercent(item.ProgressPercent) / total
			if item.Status == StatusFailed {
				share = 0
			}
			return StepPosition{Index: step.Index, Label: step.Label, Progress: base + share}
		}
	}
	return StepPosition{Label: PipelineSteps[0].Label}
}

func clampPercent(value float64) float64 {
	switch {
	case value < 0:
		return 0
	case value > 100:
		return 100
	default:
		return value
	}
}
