package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"ytbili/internal/config"
	"ytbili/internal/services/llm"
)

// CheckOpenAI verifies that the OpenAI API is reachable and the key is valid.
// It uses a 30-second timeout and a single attempt (no retries).
func CheckOpenAI(ctx context.Context, cfg *config.Config) Result {
	const name = "OpenAI"
	if strings.TrimSpace(cfg.OpenAI.APIKey) == "" {
		return Result{Name: name, Detail: "API key missing (set openai.api_key or OPENAI_API_KEY)"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client := llm.NewClient(llm.Config{
		APIKey:         cfg.OpenAI.APIKey,
		BaseURL:        cfg.OpenAI.BaseURL,
		Model:          cfg.Translation.Model,
		TimeoutSeconds: cfg.OpenAI.TimeoutSeconds,
	}, llm.WithRetryMaxAttempts(1))

	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeAPIError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// CheckGoogleCredentials verifies that Google Cloud Translation has either an
// API key or a readable service account file.
func CheckGoogleCredentials(cfg config.Translation) Result {
	const name = "Google Translate"
	if strings.TrimSpace(cfg.GoogleAPIKey) != "" {
		return Result{Name: name, Passed: true, Detail: "API key configured"}
	}
	path := strings.TrimSpace(cfg.GoogleCredentialsFile)
	if path == "" {
		return Result{Name: name, Detail: "no API key or credentials file (set GOOGLE_TRANSLATE_API_KEY or GOOGLE_APPLICATION_CREDENTIALS)"}
	}
	if err := unix.Access(path, unix.R_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: unreadable: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (readable)", path)}
}

// CheckBilibiliSession looks for the cookie store Chrome writes once
// `ytbili bilibili login` has completed.
func CheckBilibiliSession(cfg config.Bilibili) Result {
	const name = "Bilibili session"
	profile := strings.TrimSpace(cfg.ProfileDir)
	if profile == "" {
		return Result{Name: name, Detail: "browser profile directory not configured"}
	}
	for _, candidate := range []string{
		filepath.Join(profile, "Default", "Network", "Cookies"),
		filepath.Join(profile, "Default", "Cookies"),
	} {
		if info, err := os.Stat(candidate); err == nil && info.Size() > 0 {
			return Result{Name: name, Passed: true, Detail: "browser profile has cookies"}
		}
	}
	return Result{Name: name, Detail: "no saved login; run `ytbili bilibili login`"}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

func summarizeAPIError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (API unreachable)"
	}
	if code := llm.StatusCode(err); code == 401 || code == 403 {
		return fmt.Sprintf("authentication failed (%d)", code)
	}
	return err.Error()
}
