package download

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"ytbili/internal/services"
)

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

var youtubeHosts = map[string]struct{}{
	"youtube.com":       {},
	"www.youtube.com":   {},
	"m.youtube.com":     {},
	"music.youtube.com": {},
}

var pathPrefixes = []string{"/shorts/", "/embed/", "/live/", "/v/"}

// NormalizeURL validates a YouTube link or bare video id and returns the
// canonical watch URL together with the video id. Playlist and tracking
// parameters are dropped.
func NormalizeURL(input string) (string, string, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", "", services.Wrap(services.ErrValidation, stageName, "normalize url", "youtube url is required", nil)
	}
	if videoIDPattern.MatchString(trimmed) {
		return WatchURL(trimmed), trimmed, nil
	}
	candidate := trimmed
	if !strings.Contains(candidate, "://") {
		candidate = "https://" + candidate
	}
	parsed, err := url.Parse(candidate)
	if err != nil {
		return "", "", invalidURL(trimmed, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", "", invalidURL(trimmed, nil)
	}

	host := strings.ToLower(parsed.Hostname())
	var id string
	switch {
	case host == "youtu.be":
		id = strings.Trim(parsed.Path, "/")
	case isYouTubeHost(host):
		if parsed.Path == "/watch" {
			id = parsed.Query().Get("v")
			break
		}
		for _, prefix := range pathPrefixes {
			if rest, ok := strings.CutPrefix(parsed.Path, prefix); ok {
				id, _, _ = strings.Cut(rest, "/")
				break
			}
		}
	default:
		return "", "", invalidURL(trimmed, nil)
	}
	if !videoIDPattern.MatchString(id) {
		return "", "", invalidURL(trimmed, nil)
	}
	return WatchURL(id), id, nil
}

// WatchURL returns the canonical watch URL for a video id.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

func isYouTubeHost(host string) bool {
	_, ok := youtubeHosts[host]
	return ok
}

func invalidURL(input string, err error) error {
	return services.Wrap(services.ErrValidation, stageName, "normalize url",
		fmt.Sprintf("not a YouTube video link: %q", input), err)
}
