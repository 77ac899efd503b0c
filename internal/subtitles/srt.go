package subtitles

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/asticode/go-astisub"

	"ytbili/internal/fileutil"
)

// Artifact file names inside a job directory.
const (
	OriginalFileName   = "original_subtitles.srt"
	TranslatedFileName = "translated_subtitles.srt"
	BilingualFileName  = "bilingual_subtitles.srt"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Cue is a single subtitle entry. Text lines are separated by "\n".
type Cue struct {
	Index int
	Start time.Duration
	End   time.Duration
	Text  string
}

// Parse reads SRT content.
func Parse(r io.Reader) ([]Cue, error) {
	subs, err := astisub.ReadFromSRT(r)
	if err != nil {
		return nil, fmt.Errorf("parse srt: %w", err)
	}
	return fromAstisub(subs), nil
}

// Load reads and parses an SRT file.
func Load(path string) ([]Cue, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open srt: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Write encodes cues as SRT. Cues are numbered sequentially from 1 regardless
// of their Index.
func Write(w io.Writer, cues []Cue) error {
	if len(cues) == 0 {
		return fmt.Errorf("write srt: no cues")
	}
	var buf bytes.Buffer
	if err := toAstisub(cues).WriteToSRT(&buf); err != nil {
		return fmt.Errorf("write srt: %w", err)
	}
	_, err := w.Write(bytes.TrimPrefix(buf.Bytes(), utf8BOM))
	return err
}

// Save writes cues to path atomically.
func Save(path string, cues []Cue) error {
	return fileutil.WriteAtomic(path, func(w io.Writer) error {
		return Write(w, cues)
	})
}

// Renumber returns a copy of cues indexed from 1.
func Renumber(cues []Cue) []Cue {
	out := make([]Cue, len(cues))
	for i, cue := range cues {
		cue.Index = i + 1
		out[i] = cue
	}
	return out
}

// Texts returns the text of every cue in order.
func Texts(cues []Cue) []string {
	texts := make([]string, len(cues))
	for i, cue := range cues {
		texts[i] = cue.Text
	}
	return texts
}

// WithTexts returns a copy of cues with their text replaced, keeping index and
// timing.
func WithTexts(cues []Cue, texts []string) ([]Cue, error) {
	if len(cues) != len(texts) {
		return nil, fmt.Errorf("cue count %d does not match text count %d", len(cues), len(texts))
	}
	out := make([]Cue, len(cues))
	for i, cue := range cues {
		cue.Text = normalizeText(texts[i])
		out[i] = cue
	}
	return out, nil
}

func fromAstisub(subs *astisub.Subtitles) []Cue {
	if subs == nil {
		return nil
	}
	cues := make([]Cue, 0, len(subs.Items))
	for i, item := range subs.Items {
		if item == nil {
			continue
		}
		lines := make([]string, 0, len(item.Lines))
		for _, line := range item.Lines {
			var sb strings.Builder
			for _, part := range line.Items {
				sb.WriteString(part.Text)
			}
			if text := strings.TrimSpace(sb.String()); text != "" {
				lines = append(lines, text)
			}
		}
		index := item.Index
		if index <= 0 {
			index = i + 1
		}
		cues = append(cues, Cue{
			Index: index,
			Start: item.StartAt,
			End:   item.EndAt,
			Text:  strings.Join(lines, "\n"),
		})
	}
	return cues
}

func toAstisub(cues []Cue) *astisub.Subtitles {
	subs := astisub.NewSubtitles()
	for i, cue := range cues {
		item := &astisub.Item{
			Index:   i + 1,
			StartAt: cue.Start,
			EndAt:   cue.End,
		}
		for _, line := range strings.Split(normalizeText(cue.Text), "\n") {
			if line == "" {
				continue
			}
			item.Lines = append(item.Lines, astisub.Line{Items: []astisub.LineItem{{Text: line}}})
		}
		subs.Items = append(subs.Items, item)
	}
	return subs
}

func normalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			kept = append(kept, trimmed)
		}
	}
	return strings.Join(kept, "\n")
}
