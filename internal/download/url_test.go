package download

import (
	"errors"
	"testing"

	"ytbili/internal/services"
)

func TestNormalizeURL(t *testing.T) {
	const id = "dQw4w9WgXcQ"
	want := "https://www.youtube.com/watch?v=" + id
	valid := []string{
		"https://www.youtube.com/watch?v=" + id,
		"https://www.youtube.com/watch?v=" + id + "&list=PL123&t=42s",
		"http://youtube.com/watch?v=" + id,
		"www.youtube.com/watch?v=" + id,
		"https://youtu.be/" + id,
		"https://youtu.be/" + id + "?si=abc",
		"https://www.youtube.com/shorts/" + id,
		"https://www.youtube.com/embed/" + id,
		"https://www.youtube.com/live/" + id + "?feature=share",
		"https://m.youtube.com/watch?v=" + id,
		"https://music.youtube.com/watch?v=" + id,
		"  " + id + "  ",
	}
	for _, input := range valid {
		t.Run(input, func(t *testing.T) {
			gotURL, gotID, err := NormalizeURL(input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if gotURL != want || gotID != id {
				t.Fatalf("got (%q, %q)", gotURL, gotID)
			}
		})
	}
}

func TestNormalizeURLRejects(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", "   "},
		{"other host", "https://vimeo.com/12345"},
		{"channel", "https://www.youtube.com/@someone"},
		{"short id", "https://youtu.be/abc"},
		{"missing v", "https://www.youtube.com/watch?list=PL1"},
		{"ftp", "ftp://youtube.com/watch?v=dQw4w9WgXcQ"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := NormalizeURL(tc.input)
			if !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestNormalizeURLEmptyMessage(t *testing.T) {
	_, _, err := NormalizeURL("")
	if details := services.Details(err); details.Message != "youtube url is required" {
		t.Fatalf("unexpected message %q", details.Message)
	}
}
