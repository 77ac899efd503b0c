// Package api defines wire-format types and converters shared by the daemon's
// HTTP server and the ytbili CLI. It translates internal queue models into
// transport-friendly DTOs so consumers never depend on queue or workflow types.
//
// # Key Types
//
// QueueItem: transport representation of a job with its pipeline step,
// progress, artefact paths and upload outcome.
//
// JobStatus: the flat {is_processing, current_step, progress, result, error}
// shape served by /api/status for simple pollers.
//
// DaemonStatus: lock, queue database and dependency readiness for the daemon.
//
// # Converters
//
// FromQueueItem: queue.Item -> QueueItem.
//
// JobStatusFromItem: queue.Item -> JobStatus.
//
// FromStatusSummary: workflow.StatusSummary -> WorkflowStatus.
//
// # Design Notes
//
// Queue DTOs use camelCase JSON tags. JobStatus and ProcessRequest keep the
// snake_case names existing web front ends already post and poll. Timestamps
// use RFC3339 with milliseconds.
package api
