package bilibili

import (
	"strings"

	"ytbili/internal/config"
	"ytbili/internal/queue"
)

// Bilibili form limits.
const (
	MaxTitleRunes       = 80
	MaxDescriptionRunes = 2000
	MaxTagRunes         = 20
	MaxTags             = 10
)

// Metadata is what gets typed into the submission form.
type Metadata struct {
	Title       string
	Description string
	Tags        []string
}

// BuildMetadata resolves the submission form for item. The title prefers the
// submitted title, then the title yt-dlp reported, then the configured default.
func BuildMetadata(item *queue.Item, cfg config.Bilibili) Metadata {
	title := firstNonEmpty(item.Title, item.SourceTitle, cfg.DefaultTitle)
	description := firstNonEmpty(item.Description, cfg.DefaultDescription)
	tags := item.Tags
	if len(cleanTags(tags)) == 0 {
		tags = cfg.DefaultTags
	}
	return Metadata{
		Title:       truncateRunes(title, MaxTitleRunes),
		Description: truncateRunes(description, MaxDescriptionRunes),
		Tags:        cleanTags(tags),
	}
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = truncateRunes(strings.TrimSpace(tag), MaxTagRunes)
		if tag == "" {
			continue
		}
		key := strings.ToLower(tag)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tag)
		if len(out) == MaxTags {
			break
		}
	}
	return out
}

func truncateRunes(value string, limit int) string {
	value = strings.TrimSpace(value)
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return strings.TrimSpace(string(runes[:limit]))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
