// Package audio extracts the audio track of a downloaded video with ffmpeg.
//
// The video is probed with ffprobe first so a silent download fails with a
// validation error instead of an opaque ffmpeg exit status.
package audio
