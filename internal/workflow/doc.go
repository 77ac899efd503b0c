// Package workflow advances queued jobs through the pipeline stages.
//
// The Manager runs two independent lanes. The fetch lane downloads, extracts
// audio and transcribes; the publish lane translates, merges the bilingual
// subtitles and uploads to Bilibili. Each lane polls for jobs whose status is
// the start status of one of its stages, so a new video can download while an
// earlier one is still uploading.
//
// Every stage runs under a heartbeat goroutine. Jobs whose heartbeat expires
// are reclaimed back to their stage start status. Failures are classified via
// services.Details, persisted with the status a retry resumes from and
// reported through the stageexec.Observer.
package workflow
