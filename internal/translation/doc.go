// Package translation produces the translated subtitle track.
//
// Cues are sent in batches of translation.batch_size to either Google Cloud
// Translation or an OpenAI chat model. Blank cues are skipped; every other cue
// keeps its index and timing and receives exactly one translation.
package translation
