package bilibili

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"ytbili/internal/config"
	"ytbili/internal/logging"
)

const loginPollInterval = 2 * time.Second

// Login opens a visible browser on the Bilibili login page using the upload
// profile and returns once the browser has left the passport domain, which
// means the session cookie is stored in the profile.
func Login(ctx context.Context, cfg config.Bilibili, logger *slog.Logger) error {
	logger = logging.NewComponentLogger(logger, "bilibili-login")
	browserCtx, cancel := newBrowser(ctx, cfg, false)
	defer cancel()

	if err := chromedp.Run(browserCtx, chromedp.Navigate(cfg.LoginURL)); err != nil {
		return fmt.Errorf("open login page: %w", err)
	}
	logger.Info("waiting for bilibili login",
		logging.String(logging.FieldEventType, "bilibili_login_waiting"),
		logging.String("profile_dir", cfg.ProfileDir),
	)

	ticker := time.NewTicker(loginPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		var location string
		if err := chromedp.Run(browserCtx, chromedp.Location(&location)); err != nil {
			return fmt.Errorf("read browser location: %w", err)
		}
		if loggedIn(location) {
			logger.Info("bilibili login stored",
				logging.String(logging.FieldEventType, "bilibili_login_complete"),
				logging.String("location", location),
			)
			return nil
		}
	}
}

func loggedIn(location string) bool {
	return location != "" &&
		!strings.Contains(location, "passport.bilibili.com") &&
		strings.Contains(location, "bilibili.com")
}
