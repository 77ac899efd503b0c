// Package transcription turns extracted audio into the original-language
// subtitle track.
//
// Three providers are available: the openai-whisper CLI, whisperx run through
// uvx, and the OpenAI audio API. Whatever the provider emits is parsed,
// stripped of blank cues, renumbered from 1 and written as
// original_subtitles.srt in the job directory.
package transcription
