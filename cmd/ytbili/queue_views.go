package main

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"ytbili/internal/api"
	"ytbili/internal/queue"
)

var queueListColumns = []column{
	{header: "ID", right: true},
	{header: "Title", maxWidth: 40},
	{header: "Status"},
	{header: "Step"},
	{header: "Progress", right: true},
	{header: "Created"},
}

func buildQueueListRows(items []api.QueueItem, now time.Time) [][]string {
	sorted := api.SortQueueItemsNewestFirst(items)
	rows := make([][]string, 0, len(sorted))
	for _, item := range sorted {
		rows = append(rows, []string{
			strconv.FormatInt(item.ID, 10),
			item.Title,
			formatStatusLabel(item.Status),
			item.Step.Label,
			formatPercent(item.Step.Progress),
			api.FormatAge(item.CreatedAt, now),
		})
	}
	return rows
}

func buildQueueStatusRows(stats map[string]int) [][]string {
	if len(stats) == 0 {
		return nil
	}
	keys := make([]string, 0, len(stats))
	for key, count := range stats {
		if count > 0 {
			keys = append(keys, key)
		}
	}
	slices.SortFunc(keys, func(a, b string) int {
		return statusOrder(a) - statusOrder(b)
	})
	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, []string{formatStatusLabel(key), strconv.Itoa(stats[key])})
	}
	return rows
}

// statusOrder sorts statuses in pipeline order with unknown values last.
func statusOrder(status string) int {
	idx := slices.Index(queue.AllStatuses(), queue.Status(status))
	if idx < 0 {
		return len(queue.AllStatuses())
	}
	return idx
}

func formatStatusLabel(status string) string {
	status = strings.TrimSpace(status)
	if status == "" {
		return ""
	}
	parts := strings.Split(status, "_")
	for i, part := range parts {
		if part == "" {
			continue
		}
		lower := strings.ToLower(part)
		parts[i] = strings.ToUpper(lower[:1]) + lower[1:]
	}
	return strings.Join(parts, " ")
}

func formatPercent(value float64) string {
	return fmt.Sprintf("%.0f%%", value)
}

// queueItemDetails renders `ytbili queue show`.
func queueItemDetails(item api.QueueItem) []string {
	lines := []string{
		fmt.Sprintf("ID:          %d", item.ID),
		fmt.Sprintf("Title:       %s", item.Title),
		fmt.Sprintf("Source:      %s", item.SourceURL),
		fmt.Sprintf("Status:      %s", formatStatusLabel(item.Status)),
		fmt.Sprintf("Step:        %d/%d %s (%s)", item.Step.Index+1, len(queue.PipelineSteps), item.Step.Label, formatPercent(item.Step.Progress)),
		fmt.Sprintf("Languages:   %s -> %s", valueOrDash(item.SourceLanguage), valueOrDash(item.TargetLanguage)),
	}
	if len(item.Tags) > 0 {
		lines = append(lines, "Tags:        "+strings.Join(item.Tags, ", "))
	}
	if msg := strings.TrimSpace(item.Progress.Message); msg != "" && item.Status != string(queue.StatusCompleted) {
		lines = append(lines, "Progress:    "+msg)
	}
	if item.ErrorMessage != "" {
		lines = append(lines, "Error:       "+item.ErrorMessage)
	}
	if item.FailedStatus != "" {
		lines = append(lines, "Failed at:   "+formatStatusLabel(item.FailedStatus))
	}
	for _, artefact := range []struct{ label, path string }{
		{"Work dir:    ", item.WorkDir},
		{"Video:       ", item.VideoFile},
		{"Audio:       ", item.AudioFile},
		{"Original:    ", item.OriginalSubtitles},
		{"Translated:  ", item.TranslatedSubtitles},
		{"Bilingual:   ", item.BilingualSubtitles},
	} {
		if artefact.path != "" {
			lines = append(lines, artefact.label+artefact.path)
		}
	}
	if item.Status == string(queue.StatusCompleted) {
		lines = append(lines, "Uploaded:    "+yesNo(item.UploadSucceeded))
	}
	if item.UploadURL != "" {
		lines = append(lines, "Upload URL:  "+item.UploadURL)
	}
	if item.UploadError != "" {
		lines = append(lines, "Upload error: "+item.UploadError)
	}
	return lines
}

func valueOrDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
