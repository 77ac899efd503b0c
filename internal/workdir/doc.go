// Package workdir inspects and prunes the per-job directories under
// paths.work_dir.
//
// Each job keeps its video, audio and subtitle files in job-<id>. Directories
// whose job was removed from the queue are orphans; directories of completed
// jobs are finished. Both can be pruned once older than a cutoff. Failed and
// in-flight jobs are never touched because a retry resumes from their files.
package workdir
