package subtitles

import (
	"fmt"
	"strings"
)

// ValidateSRTContent checks an SRT file for format issues.
// Returns a list of issues found; empty slice means validation passed.
func ValidateSRTContent(path string) []string {
	cues, err := Load(path)
	if err != nil {
		return []string{fmt.Sprintf("read_error: %v", err)}
	}
	return ValidateCues(cues)
}

// ValidateCues applies the same checks as ValidateSRTContent to parsed cues.
func ValidateCues(cues []Cue) []string {
	if len(cues) == 0 {
		return []string{"empty_subtitle_file"}
	}

	var issues []string
	var timed, texted int
	for i, cue := range cues {
		if cue.End > 0 {
			timed++
		}
		if strings.TrimSpace(cue.Text) != "" {
			texted++
		}
		if cue.End < cue.Start {
			issues = append(issues, fmt.Sprintf("inverted_timing: cue %d", i+1))
		}
		if i > 0 && cue.Start < cues[i-1].Start {
			issues = append(issues, fmt.Sprintf("out_of_order: cue %d", i+1))
		}
	}
	if timed == 0 {
		issues = append(issues, "no_valid_timestamps")
	}
	if texted == 0 {
		issues = append(issues, "no_text")
	}
	return issues
}
