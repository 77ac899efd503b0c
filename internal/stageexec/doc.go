// Package stageexec runs pipeline stages outside the daemon loop.
//
// It owns the step table that chains stage handlers through queue statuses,
// the transition helpers shared with the workflow manager and the Observer
// that turns stage outcomes into metrics and notifications. `ytbili process`
// drives a whole job through RunPipeline in the foreground.
package stageexec
