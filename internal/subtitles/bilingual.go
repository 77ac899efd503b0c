package subtitles

import (
	"fmt"
	"strings"
)

// MergeBilingual pairs original and translated cues by position. Each merged
// cue keeps the original index and timing and carries the original text
// followed by the translation on the next line.
func MergeBilingual(original, translated []Cue) ([]Cue, error) {
	if len(original) == 0 {
		return nil, fmt.Errorf("original subtitles contain no cues")
	}
	if len(original) != len(translated) {
		return nil, fmt.Errorf("original has %d cues but translation has %d", len(original), len(translated))
	}
	merged := make([]Cue, len(original))
	for i, cue := range original {
		parts := make([]string, 0, 2)
		if text := strings.TrimSpace(cue.Text); text != "" {
			parts = append(parts, text)
		}
		if text := strings.TrimSpace(translated[i].Text); text != "" {
			parts = append(parts, text)
		}
		cue.Text = strings.Join(parts, "\n")
		merged[i] = cue
	}
	return merged, nil
}
