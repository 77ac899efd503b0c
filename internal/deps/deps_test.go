package deps

import (
	"os"
	"path/filepath"
	"testing"

	"ytbili/internal/config"
	"ytbili/internal/testsupport"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Blank", Command: "  "},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Detail != "" {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary to be unavailable with detail, got %#v", results[1])
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}
	if results[2].Detail != "command not configured" {
		t.Fatalf("unexpected blank detail: %q", results[2].Detail)
	}
}

func TestMissingSkipsOptional(t *testing.T) {
	statuses := []Status{
		{Name: "a", Available: true},
		{Name: "b"},
		{Name: "c", Optional: true},
	}
	missing := Missing(statuses)
	if len(missing) != 1 || missing[0].Name != "b" {
		t.Fatalf("unexpected missing set: %#v", missing)
	}
}

func TestPipelineRequirementsFollowProvider(t *testing.T) {
	cfg := config.Default()
	cfg.Transcription.Provider = config.TranscriptionOpenAI
	for _, req := range PipelineRequirements(&cfg) {
		if req.Name == "Whisper" || req.Name == "uvx" {
			t.Fatalf("openai provider should not require %s", req.Name)
		}
	}

	cfg.Transcription.Provider = config.TranscriptionWhisperX
	found := false
	for _, req := range PipelineRequirements(&cfg) {
		if req.Name == "uvx" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected whisperx provider to require uvx")
	}
}

func TestCheckPipelineWithStubs(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithBilibili(), testsupport.WithStubbedBinaries("yt-dlp", "ffmpeg", "whisper", "chromium"))
	cfg.Bilibili.ChromePath = ""

	statuses := CheckPipeline(cfg)
	byName := map[string]Status{}
	for _, status := range statuses {
		byName[status.Name] = status
	}
	for _, name := range []string{"yt-dlp", "FFmpeg", "Whisper", "Chrome"} {
		if !byName[name].Available {
			t.Fatalf("expected %s available, got %#v", name, byName[name])
		}
	}
	if len(Missing(statuses)) != 0 {
		t.Fatalf("optional ffprobe should not count as missing: %#v", Missing(statuses))
	}
}
