// Package queue persists ytbili jobs in SQLite and exposes helpers for driving
// their lifecycle.
//
// The Store manages the database connection, schema initialization, stats
// queries, heartbeat tracking, stale-job recovery, and the status transitions
// that move a job from pending through download, audio extraction,
// transcription, translation, bilingual merge and upload. Jobs carry every
// artifact path so a failed job resumes at the stage that broke.
//
// The database is transient storage for in-flight jobs rather than an archive.
// Schema changes are appended to the migrations list and applied on Open; a
// database written by a newer build is refused with ErrSchemaMismatch.
package queue
