package preflight

import (
	"context"

	"ytbili/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Provider checks only run for the providers the config selects.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}

	if cfg.Translation.Provider == config.TranslationGoogle {
		results = append(results, CheckGoogleCredentials(cfg.Translation))
	}
	if usesOpenAI(cfg) {
		results = append(results, CheckOpenAI(ctx, cfg))
	}
	if cfg.Bilibili.Enabled {
		results = append(results,
			CheckDirectoryAccess("Browser profile", cfg.Bilibili.ProfileDir),
			CheckBilibiliSession(cfg.Bilibili),
		)
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}

func usesOpenAI(cfg *config.Config) bool {
	return cfg.Transcription.Provider == config.TranscriptionOpenAI ||
		cfg.Translation.Provider == config.TranslationOpenAI
}
