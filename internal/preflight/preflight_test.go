package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"ytbili/internal/config"
	"ytbili/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func newModelsServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/models" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status == http.StatusOK {
			_, _ = w.Write([]byte(`{"object":"list","data":[]}`))
			return
		}
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCheckOpenAI(t *testing.T) {
	cfg := config.Default()
	if result := CheckOpenAI(context.Background(), &cfg); result.Passed {
		t.Fatal("expected failure without api key")
	}

	cfg.OpenAI.APIKey = "sk-test"
	cfg.OpenAI.BaseURL = newModelsServer(t, http.StatusOK).URL + "/v1"
	if result := CheckOpenAI(context.Background(), &cfg); !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}

	cfg.OpenAI.BaseURL = newModelsServer(t, http.StatusUnauthorized).URL + "/v1"
	result := CheckOpenAI(context.Background(), &cfg)
	if result.Passed {
		t.Fatal("expected failure for rejected key")
	}
	if result.Detail != "authentication failed (401)" {
		t.Fatalf("unexpected detail: %s", result.Detail)
	}
}

func TestCheckGoogleCredentials(t *testing.T) {
	if result := CheckGoogleCredentials(config.Translation{}); result.Passed {
		t.Fatal("expected failure without credentials")
	}
	if result := CheckGoogleCredentials(config.Translation{GoogleAPIKey: "key"}); !result.Passed {
		t.Fatalf("expected api key to pass, got %s", result.Detail)
	}
	missing := filepath.Join(t.TempDir(), "missing.json")
	if result := CheckGoogleCredentials(config.Translation{GoogleCredentialsFile: missing}); result.Passed {
		t.Fatal("expected missing credentials file to fail")
	}
	creds := filepath.Join(t.TempDir(), "creds.json")
	testsupport.WriteText(t, creds, "{}")
	if result := CheckGoogleCredentials(config.Translation{GoogleCredentialsFile: creds}); !result.Passed {
		t.Fatalf("expected readable file to pass, got %s", result.Detail)
	}
}

func TestCheckBilibiliSession(t *testing.T) {
	profile := t.TempDir()
	cfg := config.Bilibili{ProfileDir: profile}
	if result := CheckBilibiliSession(cfg); result.Passed {
		t.Fatal("expected failure for empty profile")
	}
	testsupport.WriteText(t, filepath.Join(profile, "Default", "Network", "Cookies"), "sqlite")
	if result := CheckBilibiliSession(cfg); !result.Passed {
		t.Fatalf("expected pass once cookies exist, got %s", result.Detail)
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil); results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_MinimalConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure dirs: %v", err)
	}
	cfg.Translation.GoogleAPIKey = "key"

	results := RunAll(context.Background(), cfg)
	if len(results) != 3 {
		t.Fatalf("expected work, log and google checks, got %d", len(results))
	}
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("unexpected failures: %#v", failed)
	}
}

func TestRunAll_IncludesBilibiliWhenEnabled(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithBilibili())
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure dirs: %v", err)
	}
	cfg.Translation.GoogleAPIKey = "key"

	results := RunAll(context.Background(), cfg)
	failed := Failed(results)
	if len(failed) != 1 || failed[0].Name != "Bilibili session" {
		t.Fatalf("expected only the session check to fail, got %#v", failed)
	}
}
