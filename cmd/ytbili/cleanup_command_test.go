package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"ytbili/internal/testsupport"
)

func TestCleanupRemovesOrphanedJobDirs(t *testing.T) {
	env := setupCLITestEnv(t, "")
	kept := testsupport.NewJob(t, env.store, "aaaaaaaaaaa")
	for _, id := range []int64{kept.ID, 500} {
		testsupport.WriteFile(t, filepath.Join(env.cfg.JobDir(id), "audio.wav"), 1024)
	}
	orphan := env.cfg.JobDir(500)

	out, err := env.run(t, "cleanup", "--list")
	if err != nil {
		t.Fatalf("cleanup --list: %v", err)
	}
	requireContains(t, out, "orphaned")
	requireContains(t, out, "active")

	out, err = env.run(t, "cleanup", "--dry-run")
	if err != nil {
		t.Fatalf("cleanup --dry-run: %v", err)
	}
	requireContains(t, out, "Would remove job-500")
	if _, err := os.Stat(orphan); err != nil {
		t.Fatalf("dry run removed %s: %v", orphan, err)
	}

	out, err = env.run(t, "cleanup", "--older-than", "1d")
	if err != nil {
		t.Fatalf("cleanup --older-than: %v", err)
	}
	requireContains(t, out, "Removed 0 job directories")

	out, err = env.run(t, "cleanup")
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	requireContains(t, out, "Removed job-500")
	if _, err := os.Stat(orphan); !os.IsNotExist(err) {
		t.Fatalf("expected %s to be gone, got %v", orphan, err)
	}
	if _, err := os.Stat(env.cfg.JobDir(kept.ID)); err != nil {
		t.Fatalf("active job dir removed: %v", err)
	}
	requireContains(t, out, "Removed 1 job directories")
}

func TestParseAge(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "", want: 0},
		{in: "0", want: 0},
		{in: "36h", want: 36 * time.Hour},
		{in: "7d", want: 7 * 24 * time.Hour},
		{in: "-1d", wantErr: true},
		{in: "soon", wantErr: true},
	}
	for _, tc := range tests {
		got, err := parseAge(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("parseAge(%q) expected error", tc.in)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("parseAge(%q) = %v, %v; want %v", tc.in, got, err, tc.want)
		}
	}
}
