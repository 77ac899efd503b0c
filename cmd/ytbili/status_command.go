package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"ytbili/internal/api"
	"ytbili/internal/daemonctl"
	"ytbili/internal/queue"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon, current job and queue status",
		RunE: func(cmd *cobra.Command, args []string) error {
			snapshot, err := daemonctl.BuildStatusSnapshot(cmd.Context(), ctx.configValue(), ctx.client())
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, snapshot)
			}
			renderStatus(cmd.OutOrStdout(), snapshot, shouldColorize(cmd.OutOrStdout()))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print JSON")
	return cmd
}

func renderStatus(out io.Writer, snapshot daemonctl.Snapshot, colorize bool) {
	printSection(out, "Daemon", colorize, daemonLines(snapshot, colorize))
	printSection(out, "Current Job", colorize, jobLines(snapshot, colorize))
	printDependencies(out, snapshot.Dependencies, colorize)

	for _, line := range renderSectionHeader("Queue", colorize) {
		fmt.Fprintln(out, line)
	}
	rows := buildQueueStatusRows(snapshot.QueueStats)
	if len(rows) == 0 {
		fmt.Fprintln(out, "Queue is empty")
		return
	}
	fmt.Fprint(out, renderTable([]column{{header: "Status"}, {header: "Count", right: true}}, rows))
}

func daemonLines(snapshot daemonctl.Snapshot, colorize bool) []string {
	if !snapshot.Running || snapshot.Daemon == nil {
		return []string{renderStatusLine("Daemon", statusWarn, "Not running", colorize)}
	}
	d := snapshot.Daemon
	lines := []string{
		renderStatusLine("Daemon", statusOK, "Running (pid "+strconv.Itoa(d.PID)+")", colorize),
	}
	if d.Version != "" {
		lines = append(lines, renderStatusLine("Version", statusInfo, d.Version, colorize))
	}
	workflow := "Idle"
	kind := statusInfo
	if d.Workflow.Running {
		workflow, kind = "Running", statusOK
	}
	lines = append(lines, renderStatusLine("Workflow", kind, workflow, colorize))
	if d.Workflow.LastError != "" {
		lines = append(lines, renderStatusLine("Last error", statusError, d.Workflow.LastError, colorize))
	}
	for _, health := range d.Workflow.StageHealth {
		if !health.Ready {
			lines = append(lines, renderStatusLine(health.Name, statusError, health.Detail, colorize))
		}
	}
	for _, check := range d.Workflow.Preflight {
		if !check.Passed {
			lines = append(lines, renderStatusLine(check.Name, statusWarn, check.Detail, colorize))
		}
	}
	if d.LogPath != "" {
		lines = append(lines, renderStatusLine("Log", statusInfo, d.LogPath, colorize))
	}
	return lines
}

func jobLines(snapshot daemonctl.Snapshot, colorize bool) []string {
	item := snapshot.LatestItem
	if item == nil || snapshot.Job == nil {
		return []string{renderStatusLine("Job", statusInfo, "No jobs yet", colorize)}
	}
	job := snapshot.Job
	kind := statusInfo
	state := "Processing"
	switch {
	case job.Result != nil && job.Result.Success:
		kind, state = statusOK, "Completed"
	case job.Error != nil:
		kind, state = statusError, "Failed"
	case item.Status == string(queue.StatusPending):
		state = "Waiting"
	}
	lines := []string{
		renderStatusLine("Job", kind, fmt.Sprintf("#%d %s", item.ID, item.Title), colorize),
		renderStatusLine("State", kind, state, colorize),
		renderStatusLine("Step", statusInfo,
			fmt.Sprintf("%d/%d %s (%s)", job.CurrentStep+1, len(queue.PipelineSteps), job.StepLabel, formatPercent(job.Progress)), colorize),
	}
	if job.Error != nil {
		lines = append(lines, renderStatusLine("Error", statusError, *job.Error, colorize))
	}
	if job.Result != nil && job.Result.Success {
		lines = append(lines, uploadLine(job.Result, colorize))
	}
	return lines
}

func uploadLine(result *api.JobResult, colorize bool) string {
	switch {
	case result.UploadSuccess:
		return renderStatusLine("Upload", statusOK, valueOrDash(result.UploadURL), colorize)
	case result.Error != "":
		return renderStatusLine("Upload", statusWarn, result.Error, colorize)
	default:
		return renderStatusLine("Upload", statusInfo, "Skipped", colorize)
	}
}
