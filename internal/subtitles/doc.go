// Package subtitles reads and writes SRT files and merges an original and a
// translated track into the bilingual subtitle artifact.
//
// Parsing and encoding go through go-astisub; cues are exposed as a small
// Cue slice so the transcription and translation stages can rewrite text
// while keeping index and timing intact. Merger is the workflow stage that
// produces bilingual_subtitles.srt.
package subtitles
